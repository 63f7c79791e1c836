// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ecomhub/ecomhub/internal/auth"
	"github.com/ecomhub/ecomhub/internal/store"
)

// Registration errors surfaced to the signup form.
var (
	ErrUsernameTaken = errors.New("username is already taken")
	ErrEmailTaken    = errors.New("email is already registered")
)

// UserService provisions and authenticates user accounts. Every account
// created through it gets a profile alongside the user row.
type UserService struct {
	queries *store.Queries
	events  *EventService
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events *EventService) *UserService {
	return &UserService{
		queries: store.New(db),
		events:  events,
	}
}

// CreateUserParams holds the fields needed to register an account.
type CreateUserParams struct {
	Username    string
	Email       string
	Password    string
	IsSuperuser bool
}

// CreateUser registers a new account: it hashes the password, inserts the
// user row, and provisions an empty profile for it.
func (s *UserService) CreateUser(ctx context.Context, arg CreateUserParams) (store.User, error) {
	taken, err := s.queries.CountUsersByUsername(ctx, arg.Username)
	if err != nil {
		return store.User{}, fmt.Errorf("checking username: %w", err)
	}
	if taken > 0 {
		return store.User{}, ErrUsernameTaken
	}

	taken, err = s.queries.CountUsersByEmail(ctx, arg.Email)
	if err != nil {
		return store.User{}, fmt.Errorf("checking email: %w", err)
	}
	if taken > 0 {
		return store.User{}, ErrEmailTaken
	}

	passwordHash, err := auth.HashPassword(arg.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: passwordHash,
		IsSuperuser:  arg.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return store.User{}, fmt.Errorf("creating user: %w", err)
	}

	if _, err := s.EnsureProfile(ctx, user.ID); err != nil {
		return store.User{}, err
	}

	if s.events != nil {
		_ = s.events.LogUserEvent(ctx, store.EventLevelInfo, "user registered",
			&user.ID, "", map[string]any{"username": user.Username})
	}

	return user, nil
}

// EnsureProfile returns the profile belonging to a user, creating an empty
// one if it does not exist yet.
func (s *UserService) EnsureProfile(ctx context.Context, userID int64) (store.Profile, error) {
	profile, err := s.queries.GetProfileByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if err != sql.ErrNoRows {
		return store.Profile{}, fmt.Errorf("fetching profile: %w", err)
	}

	now := time.Now()
	profile, err = s.queries.CreateProfile(ctx, store.CreateProfileParams{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.Profile{}, fmt.Errorf("creating profile: %w", err)
	}
	return profile, nil
}

// Authenticate verifies a username/password pair. On success it updates the
// user's last login timestamp and returns the user.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (store.User, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return store.User{}, err
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return store.User{}, sql.ErrNoRows
	}

	now := time.Now()
	if err := s.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		LastLoginAt: sql.NullTime{Time: now, Valid: true},
		ID:          user.ID,
	}); err != nil {
		return store.User{}, fmt.Errorf("updating last login: %w", err)
	}
	user.LastLoginAt = sql.NullTime{Time: now, Valid: true}

	// Transparently upgrade hashes created with older parameters.
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			_ = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: newHash,
				UpdatedAt:    now,
				ID:           user.ID,
			})
		}
	}

	return user, nil
}
