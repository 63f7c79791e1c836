// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package forms

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// postRequest builds a form-encoded POST request with the given values.
func postRequest(t *testing.T, values url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"simple tags", "<b>hello</b>", "hello"},
		{"script removed", "<script>alert('x')</script>hi there", "hi there"},
		{"trims whitespace", "  hello  ", "hello"},
		{"entities unescaped", "fish &amp; chips", "fish & chips"},
		{"nested tags", "<div><p>text</p></div>", "text"},
		{"only tags", "<br><hr>", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBlogFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      BlogForm
		wantValid bool
		wantField string
	}{
		{
			name:      "valid form",
			form:      BlogForm{Title: "Hello World", Content: "Long enough content here", CategoryID: 1},
			wantValid: true,
		},
		{
			name:      "title too short",
			form:      BlogForm{Title: "Hi", Content: "Long enough content here", CategoryID: 1},
			wantValid: false,
			wantField: "title",
		},
		{
			name:      "title short after stripping",
			form:      BlogForm{Title: "<b><i>Hi</i></b>", Content: "Long enough content here", CategoryID: 1},
			wantValid: false,
			wantField: "title",
		},
		{
			name:      "content too short",
			form:      BlogForm{Title: "Hello World", Content: "short", CategoryID: 1},
			wantValid: false,
			wantField: "content",
		},
		{
			name:      "content short after stripping",
			form:      BlogForm{Title: "Hello World", Content: "<p>tiny</p>", CategoryID: 1},
			wantValid: false,
			wantField: "content",
		},
		{
			name:      "missing category",
			form:      BlogForm{Title: "Hello World", Content: "Long enough content here"},
			wantValid: false,
			wantField: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.form.Errors = make(Errors)
			valid := tt.form.Validate()
			if valid != tt.wantValid {
				t.Errorf("Validate() = %v, want %v (errors: %v)", valid, tt.wantValid, tt.form.Errors)
			}
			if tt.wantField != "" && !tt.form.Errors.Has(tt.wantField) {
				t.Errorf("expected error on field %q, got %v", tt.wantField, tt.form.Errors)
			}
		})
	}
}

func TestBlogFormValidateStripsMarkup(t *testing.T) {
	form := BlogForm{
		Title:      "My <script>evil()</script> Post",
		Content:    "Body with <b>bold</b> formatting inside",
		CategoryID: 1,
		Errors:     make(Errors),
	}

	if !form.Validate() {
		t.Fatalf("Validate() = false, errors: %v", form.Errors)
	}
	if form.Title != "My  Post" {
		t.Errorf("Title = %q, want markup stripped", form.Title)
	}
	if strings.Contains(form.Content, "<b>") {
		t.Errorf("Content = %q, want markup stripped", form.Content)
	}
}

func TestBlogFormTagNames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "go, web", []string{"go", "web"}},
		{"duplicates collapsed", "go, Go, web", []string{"go", "web"}},
		{"empty entries dropped", "go,, ,web", []string{"go", "web"}},
		{"markup stripped", "<b>go</b>, web", []string{"go", "web"}},
		{"empty input", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := BlogForm{Tags: tt.input}
			got := form.TagNames()
			if len(got) != len(tt.want) {
				t.Fatalf("TagNames() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("TagNames()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCommentFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		rating    int64
		wantValid bool
		wantField string
	}{
		{"valid with rating", "Great post!", 5, true, ""},
		{"valid without rating", "Great post!", 0, true, ""},
		{"content too short", "Hi", 0, false, "content"},
		{"content short after stripping", "<p>Hey</p>", 0, false, "content"},
		{"rating too low", "Great post!", -1, false, "rating"},
		{"rating too high", "Great post!", 6, false, "rating"},
		{"boundary rating one", "Great post!", 1, true, ""},
		{"boundary rating five", "Great post!", 5, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := CommentForm{Content: tt.content, Rating: tt.rating, Errors: make(Errors)}
			valid := form.Validate()
			if valid != tt.wantValid {
				t.Errorf("Validate() = %v, want %v (errors: %v)", valid, tt.wantValid, form.Errors)
			}
			if tt.wantField != "" && !form.Errors.Has(tt.wantField) {
				t.Errorf("expected error on field %q, got %v", tt.wantField, form.Errors)
			}
		})
	}
}

func TestMessageFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      MessageForm
		wantValid bool
		wantField string
	}{
		{
			name:      "valid form",
			form:      MessageForm{ReceiverID: 2, Subject: "Hey", Content: "How are you?"},
			wantValid: true,
		},
		{
			name:      "missing receiver",
			form:      MessageForm{Subject: "Hey", Content: "How are you?"},
			wantValid: false,
			wantField: "receiver",
		},
		{
			name:      "subject too short",
			form:      MessageForm{ReceiverID: 2, Subject: "Hi", Content: "How are you?"},
			wantValid: false,
			wantField: "subject",
		},
		{
			name:      "content too short",
			form:      MessageForm{ReceiverID: 2, Subject: "Hey", Content: "Yo"},
			wantValid: false,
			wantField: "content",
		},
		{
			name:      "subject short after stripping",
			form:      MessageForm{ReceiverID: 2, Subject: "<b>Hi</b>", Content: "How are you?"},
			wantValid: false,
			wantField: "subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.form.Errors = make(Errors)
			valid := tt.form.Validate()
			if valid != tt.wantValid {
				t.Errorf("Validate() = %v, want %v (errors: %v)", valid, tt.wantValid, tt.form.Errors)
			}
			if tt.wantField != "" && !tt.form.Errors.Has(tt.wantField) {
				t.Errorf("expected error on field %q, got %v", tt.wantField, tt.form.Errors)
			}
		})
	}
}

func TestRegisterFormValidate(t *testing.T) {
	valid := RegisterForm{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "correct-horse",
		PasswordConfirm: "correct-horse",
	}

	tests := []struct {
		name      string
		modify    func(*RegisterForm)
		wantValid bool
		wantField string
	}{
		{"valid form", func(*RegisterForm) {}, true, ""},
		{"username too short", func(f *RegisterForm) { f.Username = "ab" }, false, "username"},
		{"username bad characters", func(f *RegisterForm) { f.Username = "al ice!" }, false, "username"},
		{"missing email", func(f *RegisterForm) { f.Email = "" }, false, "email"},
		{"invalid email", func(f *RegisterForm) { f.Email = "not-an-email" }, false, "email"},
		{"password too short", func(f *RegisterForm) { f.Password, f.PasswordConfirm = "short", "short" }, false, "password1"},
		{"passwords do not match", func(f *RegisterForm) { f.PasswordConfirm = "different-pass" }, false, "password2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			form.Errors = make(Errors)
			tt.modify(&form)
			got := form.Validate()
			if got != tt.wantValid {
				t.Errorf("Validate() = %v, want %v (errors: %v)", got, tt.wantValid, form.Errors)
			}
			if tt.wantField != "" && !form.Errors.Has(tt.wantField) {
				t.Errorf("expected error on field %q, got %v", tt.wantField, form.Errors)
			}
		})
	}
}

func TestProfileFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      ProfileForm
		wantValid bool
		wantField string
	}{
		{"empty form is valid", ProfileForm{}, true, ""},
		{"valid url", ProfileForm{URL: "https://example.com"}, true, ""},
		{"invalid url", ProfileForm{URL: "not a url"}, false, "url"},
		{"bad scheme", ProfileForm{URL: "javascript:alert(1)"}, false, "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.form.Errors = make(Errors)
			valid := tt.form.Validate()
			if valid != tt.wantValid {
				t.Errorf("Validate() = %v, want %v (errors: %v)", valid, tt.wantValid, tt.form.Errors)
			}
			if tt.wantField != "" && !tt.form.Errors.Has(tt.wantField) {
				t.Errorf("expected error on field %q, got %v", tt.wantField, tt.form.Errors)
			}
		})
	}
}

func TestProfileFormValidateStripsMarkup(t *testing.T) {
	form := ProfileForm{
		Name:        "<b>Alice</b>",
		Description: "Writer of <script>bad()</script>things",
		Errors:      make(Errors),
	}
	if !form.Validate() {
		t.Fatalf("Validate() = false, errors: %v", form.Errors)
	}
	if form.Name != "Alice" {
		t.Errorf("Name = %q, want %q", form.Name, "Alice")
	}
	if strings.Contains(form.Description, "script") {
		t.Errorf("Description = %q, want script removed", form.Description)
	}
}

func TestPasswordFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      PasswordForm
		wantValid bool
		wantField string
	}{
		{
			name:      "valid form",
			form:      PasswordForm{CurrentPassword: "old-pass", NewPassword: "new-password", ConfirmPassword: "new-password"},
			wantValid: true,
		},
		{
			name:      "missing current password",
			form:      PasswordForm{NewPassword: "new-password", ConfirmPassword: "new-password"},
			wantValid: false,
			wantField: "current_password",
		},
		{
			name:      "new password too short",
			form:      PasswordForm{CurrentPassword: "old-pass", NewPassword: "short", ConfirmPassword: "short"},
			wantValid: false,
			wantField: "new_password1",
		},
		{
			name:      "passwords do not match",
			form:      PasswordForm{CurrentPassword: "old-pass", NewPassword: "new-password", ConfirmPassword: "other-password"},
			wantValid: false,
			wantField: "new_password2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.form.Errors = make(Errors)
			valid := tt.form.Validate()
			if valid != tt.wantValid {
				t.Errorf("Validate() = %v, want %v (errors: %v)", valid, tt.wantValid, tt.form.Errors)
			}
			if tt.wantField != "" && !tt.form.Errors.Has(tt.wantField) {
				t.Errorf("expected error on field %q, got %v", tt.wantField, tt.form.Errors)
			}
		})
	}
}

func TestParseBlogForm(t *testing.T) {
	req := postRequest(t, url.Values{
		"title":     {"My Post"},
		"content":   {"Some long content"},
		"category":  {"3"},
		"tags":      {"go, web"},
		"published": {"on"},
	})

	form := ParseBlogForm(req)
	if form.Title != "My Post" {
		t.Errorf("Title = %q, want %q", form.Title, "My Post")
	}
	if form.CategoryID != 3 {
		t.Errorf("CategoryID = %d, want 3", form.CategoryID)
	}
	if !form.Published {
		t.Error("Published = false, want true")
	}
}

func TestParseCommentForm(t *testing.T) {
	req := postRequest(t, url.Values{
		"content": {"Nice post!"},
		"rating":  {"4"},
	})

	form := ParseCommentForm(req)
	if form.Content != "Nice post!" {
		t.Errorf("Content = %q, want %q", form.Content, "Nice post!")
	}
	if form.Rating != 4 {
		t.Errorf("Rating = %d, want 4", form.Rating)
	}
}

func TestParseCommentFormNoRating(t *testing.T) {
	req := postRequest(t, url.Values{"content": {"Nice post!"}})

	form := ParseCommentForm(req)
	if form.Rating != 0 {
		t.Errorf("Rating = %d, want 0", form.Rating)
	}
	if !form.Validate() {
		t.Errorf("Validate() = false, errors: %v", form.Errors)
	}
}
