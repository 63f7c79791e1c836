// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/ecomhub/ecomhub/internal/auth"
	"github.com/ecomhub/ecomhub/internal/forms"
	"github.com/ecomhub/ecomhub/internal/imaging"
	"github.com/ecomhub/ecomhub/internal/middleware"
	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/service"
	"github.com/ecomhub/ecomhub/internal/store"
)

// SessionKeyUserID is the session key for storing the authenticated user ID.
const SessionKeyUserID = "user_id"

// AccountHandler handles registration, login, and profile routes.
type AccountHandler struct {
	queries         *store.Queries
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	userService     *service.UserService
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
	images          *imaging.Processor
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager,
	users *service.UserService, events *service.EventService,
	lp *middleware.LoginProtection, images *imaging.Processor) *AccountHandler {
	return &AccountHandler{
		queries:         store.New(db),
		renderer:        renderer,
		sessionManager:  sm,
		userService:     users,
		eventService:    events,
		loginProtection: lp,
		images:          images,
	}
}

// SignupForm renders the registration form.
func (h *AccountHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}
	h.renderSignupForm(w, r, &forms.RegisterForm{Errors: make(forms.Errors)})
}

// Signup handles user registration. A profile is provisioned automatically
// for the new account.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, RouteSignup) {
		return
	}

	form := forms.ParseRegisterForm(r)
	if !form.Validate() {
		h.renderSignupForm(w, r, form)
		return
	}

	_, err := h.userService.CreateUser(r.Context(), service.CreateUserParams{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			form.Errors.Add("username", "This username is already taken.")
		case errors.Is(err, service.ErrEmailTaken):
			form.Errors.Add("email", "This email address is already in use.")
		default:
			logAndInternalError(w, "failed to create user", "error", err)
			return
		}
		h.renderSignupForm(w, r, form)
		return
	}

	flashSuccess(w, r, h.renderer, RouteLogin, "Your account has been created. Please log in.")
}

// LoginForm renders the login form.
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}
	h.renderLoginForm(w, r, &forms.LoginForm{Errors: make(forms.Errors)}, r.URL.Query().Get("next"))
}

// Login handles authentication. Failed attempts feed the account lockout
// tracker; a locked account is rejected before the password is checked.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.redirectIfAuthenticated(w, r) {
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, RouteLogin) {
		return
	}

	form := forms.ParseLoginForm(r)
	next := r.PostFormValue("next")
	if !form.Validate() {
		h.renderLoginForm(w, r, form, next)
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(form.Username); locked {
		form.Errors.Add("username",
			fmt.Sprintf("Account temporarily locked. Try again in %d minutes.",
				int(remaining.Minutes())+1))
		h.renderLoginForm(w, r, form, next)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.loginProtection.RecordFailedAttempt(form.Username)
			_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelWarning,
				"Failed login attempt", nil, r.RemoteAddr,
				map[string]any{"username": form.Username})
			form.Errors.Add("username", "Invalid username or password.")
			h.renderLoginForm(w, r, form, next)
			return
		}
		logAndInternalError(w, "failed to authenticate", "error", err)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(form.Username)

	// Rotate the session token on privilege change
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "failed to renew session", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), SessionKeyUserID, user.ID)

	userID := user.ID
	_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
		"User logged in", &userID, r.RemoteAddr, nil)

	flashSuccess(w, r, h.renderer, safeNextURL(next), fmt.Sprintf("Welcome back, %s!", user.Username))
}

// Logout destroys the session and redirects home.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDPtr(r)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("failed to destroy session", "error", err)
	}

	_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
		"User logged out", userID, r.RemoteAddr, nil)

	flashSuccess(w, r, h.renderer, RouteRoot, "You have been logged out.")
}

// Profile renders the current user's profile, creating the row if it is
// somehow missing.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	profile, err := h.userService.EnsureProfile(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to load profile", "error", err, "user_id", user.ID)
		return
	}

	data := map[string]any{
		"User":    user,
		"Profile": profile,
	}

	if err := h.renderer.Render(w, r, "accounts/profile", baseData(r, "Profile", data)); err != nil {
		logAndInternalError(w, "failed to render profile", "error", err)
	}
}

// ProfileUpdateForm renders the profile edit form.
func (h *AccountHandler) ProfileUpdateForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	profile, err := h.userService.EnsureProfile(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to load profile", "error", err, "user_id", user.ID)
		return
	}

	form := &forms.ProfileForm{
		Name:        profile.Name,
		Surname:     profile.Surname,
		Description: profile.Description,
		URL:         profile.URL,
		Errors:      make(forms.Errors),
	}
	h.renderProfileForm(w, r, form, profile)
}

// ProfileUpdate handles profile edits, including the optional image upload.
// A replaced image file is deleted only after the row points at the new one.
func (h *AccountHandler) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	profile, err := h.userService.EnsureProfile(r.Context(), user.ID)
	if err != nil {
		logAndInternalError(w, "failed to load profile", "error", err, "user_id", user.ID)
		return
	}

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		if err := r.ParseForm(); err != nil {
			flashError(w, r, h.renderer, RouteProfileUpdate, "Invalid form data")
			return
		}
	}

	form := forms.ParseProfileForm(r)
	if !form.Validate() {
		h.renderProfileForm(w, r, form, profile)
		return
	}

	now := time.Now()
	err = h.queries.UpdateProfile(r.Context(), store.UpdateProfileParams{
		Name:        form.Name,
		Surname:     form.Surname,
		Description: form.Description,
		URL:         form.URL,
		UpdatedAt:   now,
		UserID:      user.ID,
	})
	if err != nil {
		logAndInternalError(w, "failed to update profile", "error", err, "user_id", user.ID)
		return
	}

	if newImage, ok := h.saveProfileImage(w, r); !ok {
		return
	} else if newImage != "" {
		err = h.queries.UpdateProfileImage(r.Context(), store.UpdateProfileImageParams{
			Image:     newImage,
			UpdatedAt: now,
			UserID:    user.ID,
		})
		if err != nil {
			logAndInternalError(w, "failed to update profile image", "error", err, "user_id", user.ID)
			return
		}
		if profile.Image != "" {
			if err := h.images.Delete(profile.Image); err != nil {
				slog.Warn("failed to delete replaced profile image", "error", err, "path", profile.Image)
			}
		}
	}

	userID := user.ID
	_ = h.eventService.LogUserEvent(r.Context(), store.EventLevelInfo,
		"Profile updated", &userID, r.RemoteAddr, nil)

	flashSuccess(w, r, h.renderer, RouteProfile, "Profile updated")
}

// PasswordUpdateForm renders the password change form.
func (h *AccountHandler) PasswordUpdateForm(w http.ResponseWriter, r *http.Request) {
	h.renderPasswordForm(w, r, &forms.PasswordForm{Errors: make(forms.Errors)})
}

// PasswordUpdate handles password changes. The current password must verify
// against the stored hash before anything is written.
func (h *AccountHandler) PasswordUpdate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if !parseFormOrRedirect(w, r, h.renderer, RoutePasswordUpdate) {
		return
	}

	form := forms.ParsePasswordForm(r)
	if !form.Validate() {
		h.renderPasswordForm(w, r, form)
		return
	}

	match, err := auth.CheckPassword(form.CurrentPassword, user.PasswordHash)
	if err != nil {
		logAndInternalError(w, "failed to verify password", "error", err, "user_id", user.ID)
		return
	}
	if !match {
		form.Errors.Add("current_password", "Current password is incorrect.")
		h.renderPasswordForm(w, r, form)
		return
	}

	hash, err := auth.HashPassword(form.NewPassword)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	err = h.queries.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
		PasswordHash: hash,
		UpdatedAt:    time.Now(),
		ID:           user.ID,
	})
	if err != nil {
		logAndInternalError(w, "failed to update password", "error", err, "user_id", user.ID)
		return
	}

	userID := user.ID
	_ = h.eventService.LogAuthEvent(r.Context(), store.EventLevelInfo,
		"Password changed", &userID, r.RemoteAddr, nil)

	flashSuccess(w, r, h.renderer, RouteProfile, "Password updated")
}

// redirectIfAuthenticated sends logged-in users to the home page.
// Returns true if a redirect was written.
func (h *AccountHandler) redirectIfAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	if h.sessionManager.GetInt64(r.Context(), SessionKeyUserID) > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return true
	}
	return false
}

// safeNextURL returns next if it is a local path, otherwise the home page.
// Guards against open redirects (CWE-601).
func safeNextURL(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") ||
		strings.Contains(next, "\\") {
		return RouteRoot
	}
	return next
}

// saveProfileImage stores the optional "image" form file and returns its
// relative path. Returns ok=false if a response was already written.
func (h *AccountHandler) saveProfileImage(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.MultipartForm == nil {
		return "", true
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		flashError(w, r, h.renderer, RouteProfileUpdate, "Invalid image upload")
		return "", false
	}
	defer func() { _ = file.Close() }()

	result, err := h.images.ProcessUpload(file, "profile")
	if err != nil {
		flashError(w, r, h.renderer, RouteProfileUpdate, "Could not process the uploaded image")
		return "", false
	}
	return result.RelPath, true
}

func (h *AccountHandler) renderSignupForm(w http.ResponseWriter, r *http.Request, form *forms.RegisterForm) {
	data := map[string]any{"Form": form}
	if err := h.renderer.Render(w, r, "accounts/signup", baseData(r, "Sign Up", data)); err != nil {
		logAndInternalError(w, "failed to render signup form", "error", err)
	}
}

func (h *AccountHandler) renderLoginForm(w http.ResponseWriter, r *http.Request, form *forms.LoginForm, next string) {
	data := map[string]any{
		"Form": form,
		"Next": next,
	}
	if err := h.renderer.Render(w, r, "accounts/login", baseData(r, "Log In", data)); err != nil {
		logAndInternalError(w, "failed to render login form", "error", err)
	}
}

func (h *AccountHandler) renderProfileForm(w http.ResponseWriter, r *http.Request, form *forms.ProfileForm, profile store.Profile) {
	data := map[string]any{
		"Form":    form,
		"Profile": profile,
	}
	if err := h.renderer.Render(w, r, "accounts/profile_form", baseData(r, "Edit Profile", data)); err != nil {
		logAndInternalError(w, "failed to render profile form", "error", err)
	}
}

func (h *AccountHandler) renderPasswordForm(w http.ResponseWriter, r *http.Request, form *forms.PasswordForm) {
	data := map[string]any{"Form": form}
	if err := h.renderer.Render(w, r, "accounts/password_form", baseData(r, "Change Password", data)); err != nil {
		logAndInternalError(w, "failed to render password form", "error", err)
	}
}
