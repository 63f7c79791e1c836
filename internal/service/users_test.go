// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ecomhub/ecomhub/internal/store"
	"github.com/ecomhub/ecomhub/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewUserService(db, nil)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if user.Username != "alice" {
		t.Errorf("Username = %q, want alice", user.Username)
	}
	if user.PasswordHash == "secret-password" {
		t.Error("password stored in plain text")
	}

	// A profile is provisioned with the account, all fields empty.
	q := store.New(db)
	profile, err := q.GetProfileByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetProfileByUserID: %v", err)
	}
	if profile.Name != "" || profile.Surname != "" {
		t.Errorf("new profile fields = %q %q, want empty", profile.Name, profile.Surname)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewUserService(db, nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserParams{
		Username: "bob", Email: "bob@example.com", Password: "secret-password",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := svc.CreateUser(ctx, CreateUserParams{
		Username: "bob", Email: "other@example.com", Password: "secret-password",
	})
	if err != ErrUsernameTaken {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewUserService(db, nil)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserParams{
		Username: "carol", Email: "carol@example.com", Password: "secret-password",
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, err := svc.CreateUser(ctx, CreateUserParams{
		Username: "carol2", Email: "carol@example.com", Password: "secret-password",
	})
	if err != ErrEmailTaken {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestEnsureProfile_Idempotent(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewUserService(db, nil)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserParams{
		Username: "dana", Email: "dana@example.com", Password: "secret-password",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	first, err := svc.EnsureProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	second, err := svc.EnsureProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("EnsureProfile (second): %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("EnsureProfile created a duplicate: %d != %d", second.ID, first.ID)
	}
}

func TestAuthenticate(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := NewUserService(db, nil)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, CreateUserParams{
		Username: "erin", Email: "erin@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if created.LastLoginAt.Valid {
		t.Error("LastLoginAt should be null before first login")
	}

	user, err := svc.Authenticate(ctx, "erin", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !user.LastLoginAt.Valid {
		t.Error("LastLoginAt should be set after login")
	}

	if _, err := svc.Authenticate(ctx, "erin", "wrong-password"); err != sql.ErrNoRows {
		t.Errorf("wrong password err = %v, want sql.ErrNoRows", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "correct-horse"); err != sql.ErrNoRows {
		t.Errorf("unknown user err = %v, want sql.ErrNoRows", err)
	}
}
