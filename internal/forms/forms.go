// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package forms provides parsing, sanitization, and validation for the
// HTML forms exposed by the site. Each form type binds request values,
// strips markup from free-text fields, and collects field-scoped error
// messages. Nothing is persisted when validation fails.
package forms

import (
	"html"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes all HTML tags from user input. Free-text fields are
// stored and rendered as plain text, so nothing richer than that is allowed
// through.
var stripPolicy = bluemonday.StrictPolicy()

// usernameRe matches the accepted username alphabet.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// StripTags removes HTML markup from s and returns the trimmed plain text.
// Entities escaped by the sanitizer are unescaped so the stored value is
// plain text, not HTML.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

// Errors collects field-scoped validation messages keyed by field name.
type Errors map[string]string

// Add records a message for a field. The first message for a field wins.
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Has reports whether the field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Get returns the message for a field, or empty string.
func (e Errors) Get(field string) string {
	return e[field]
}

// BlogForm is the create/update form for a blog post.
type BlogForm struct {
	Title      string
	Content    string
	CategoryID int64
	Tags       string // comma-separated tag names
	Published  bool

	Errors Errors
}

// ParseBlogForm binds a blog form from the request.
func ParseBlogForm(r *http.Request) *BlogForm {
	categoryID, _ := strconv.ParseInt(r.PostFormValue("category"), 10, 64)
	return &BlogForm{
		Title:      r.PostFormValue("title"),
		Content:    r.PostFormValue("content"),
		CategoryID: categoryID,
		Tags:       r.PostFormValue("tags"),
		Published:  r.PostFormValue("published") == "on" || r.PostFormValue("published") == "true",
		Errors:     make(Errors),
	}
}

// Validate strips markup from the text fields and checks the form.
// The stripped values replace the raw ones, so callers persist plain text.
func (f *BlogForm) Validate() bool {
	f.Title = StripTags(f.Title)
	f.Content = StripTags(f.Content)

	if utf8.RuneCountInString(f.Title) < 5 {
		f.Errors.Add("title", "Title must be at least 5 characters long.")
	}
	if utf8.RuneCountInString(f.Content) < 10 {
		f.Errors.Add("content", "Content must be at least 10 characters long.")
	}
	if f.CategoryID <= 0 {
		f.Errors.Add("category", "Please choose a category.")
	}

	return len(f.Errors) == 0
}

// TagNames splits the comma-separated tag input into trimmed, de-duplicated
// names. Empty entries are dropped.
func (f *BlogForm) TagNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, raw := range strings.Split(f.Tags, ",") {
		name := StripTags(raw)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// CommentForm is the form for posting a comment on a blog post.
type CommentForm struct {
	Content string
	Rating  int64 // 0 means no rating given

	Errors Errors
}

// ParseCommentForm binds a comment form from the request.
func ParseCommentForm(r *http.Request) *CommentForm {
	rating, _ := strconv.ParseInt(r.PostFormValue("rating"), 10, 64)
	return &CommentForm{
		Content: r.PostFormValue("content"),
		Rating:  rating,
		Errors:  make(Errors),
	}
}

// Validate strips markup from the content and checks the form.
// A rating is optional; when present it must be between 1 and 5.
func (f *CommentForm) Validate() bool {
	f.Content = StripTags(f.Content)

	if utf8.RuneCountInString(f.Content) < 5 {
		f.Errors.Add("content", "Comment must be at least 5 characters long.")
	}
	if f.Rating != 0 && (f.Rating < 1 || f.Rating > 5) {
		f.Errors.Add("rating", "Rating must be between 1 and 5.")
	}

	return len(f.Errors) == 0
}

// MessageForm is the form for composing a private message.
type MessageForm struct {
	ReceiverID int64
	Subject    string
	Content    string

	Errors Errors
}

// ParseMessageForm binds a message form from the request.
func ParseMessageForm(r *http.Request) *MessageForm {
	receiverID, _ := strconv.ParseInt(r.PostFormValue("receiver"), 10, 64)
	return &MessageForm{
		ReceiverID: receiverID,
		Subject:    r.PostFormValue("subject"),
		Content:    r.PostFormValue("content"),
		Errors:     make(Errors),
	}
}

// Validate strips markup from the text fields and checks the form.
func (f *MessageForm) Validate() bool {
	f.Subject = StripTags(f.Subject)
	f.Content = StripTags(f.Content)

	if f.ReceiverID <= 0 {
		f.Errors.Add("receiver", "Please choose a recipient.")
	}
	if utf8.RuneCountInString(f.Subject) < 3 {
		f.Errors.Add("subject", "Subject must be at least 3 characters long.")
	}
	if utf8.RuneCountInString(f.Content) < 5 {
		f.Errors.Add("content", "Message must be at least 5 characters long.")
	}

	return len(f.Errors) == 0
}

// RegisterForm is the self-registration form.
type RegisterForm struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string

	Errors Errors
}

// ParseRegisterForm binds a registration form from the request.
func ParseRegisterForm(r *http.Request) *RegisterForm {
	return &RegisterForm{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password1"),
		PasswordConfirm: r.PostFormValue("password2"),
		Errors:          make(Errors),
	}
}

// Validate checks the registration form. Uniqueness of username and email
// is enforced by the user service, not here.
func (f *RegisterForm) Validate() bool {
	if len(f.Username) < 3 || len(f.Username) > 30 {
		f.Errors.Add("username", "Username must be between 3 and 30 characters long.")
	} else if !usernameRe.MatchString(f.Username) {
		f.Errors.Add("username", "Username may only contain letters, digits, dots, dashes and underscores.")
	}

	if f.Email == "" {
		f.Errors.Add("email", "Email is required.")
	} else if _, err := mail.ParseAddress(f.Email); err != nil {
		f.Errors.Add("email", "Enter a valid email address.")
	}

	if len(f.Password) < 8 {
		f.Errors.Add("password1", "Password must be at least 8 characters long.")
	}
	if f.Password != f.PasswordConfirm {
		f.Errors.Add("password2", "The two password fields do not match.")
	}

	return len(f.Errors) == 0
}

// LoginForm is the login form.
type LoginForm struct {
	Username string
	Password string

	Errors Errors
}

// ParseLoginForm binds a login form from the request.
func ParseLoginForm(r *http.Request) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Errors:   make(Errors),
	}
}

// Validate checks that both credentials were supplied.
func (f *LoginForm) Validate() bool {
	if f.Username == "" {
		f.Errors.Add("username", "Username is required.")
	}
	if f.Password == "" {
		f.Errors.Add("password", "Password is required.")
	}
	return len(f.Errors) == 0
}

// ProfileForm is the profile update form.
type ProfileForm struct {
	Name        string
	Surname     string
	Description string
	URL         string

	Errors Errors
}

// ParseProfileForm binds a profile form from the request.
func ParseProfileForm(r *http.Request) *ProfileForm {
	return &ProfileForm{
		Name:        r.PostFormValue("name"),
		Surname:     r.PostFormValue("surname"),
		Description: r.PostFormValue("description"),
		URL:         strings.TrimSpace(r.PostFormValue("url")),
		Errors:      make(Errors),
	}
}

// Validate strips markup from the text fields and checks the form.
// All profile fields are optional.
func (f *ProfileForm) Validate() bool {
	f.Name = StripTags(f.Name)
	f.Surname = StripTags(f.Surname)
	f.Description = StripTags(f.Description)

	if f.URL != "" {
		u, err := url.Parse(f.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			f.Errors.Add("url", "Enter a valid URL starting with http:// or https://.")
		}
	}

	return len(f.Errors) == 0
}

// PasswordForm is the password change form.
type PasswordForm struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string

	Errors Errors
}

// ParsePasswordForm binds a password change form from the request.
func ParsePasswordForm(r *http.Request) *PasswordForm {
	return &PasswordForm{
		CurrentPassword: r.PostFormValue("current_password"),
		NewPassword:     r.PostFormValue("new_password1"),
		ConfirmPassword: r.PostFormValue("new_password2"),
		Errors:          make(Errors),
	}
}

// Validate checks the password change form. Verification of the current
// password against the stored hash happens in the handler.
func (f *PasswordForm) Validate() bool {
	if f.CurrentPassword == "" {
		f.Errors.Add("current_password", "Current password is required.")
	}
	if len(f.NewPassword) < 8 {
		f.Errors.Add("new_password1", "Password must be at least 8 characters long.")
	}
	if f.NewPassword != f.ConfirmPassword {
		f.Errors.Add("new_password2", "The two password fields do not match.")
	}
	return len(f.Errors) == 0
}
