// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecomhub/ecomhub/internal/auth"
)

// Default superuser credentials
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
)

// Seed creates initial data in the database.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	// Check if the superuser already exists
	_, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err == nil {
		slog.Info("superuser already exists, skipping seed")
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for superuser: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     DefaultAdminUsername,
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		IsSuperuser:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating superuser: %w", err)
	}

	// Every user gets a profile at creation time.
	if _, err := queries.CreateProfile(ctx, CreateProfileParams{
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("creating superuser profile: %w", err)
	}

	slog.Info("created default superuser",
		"id", user.ID,
		"username", user.Username,
		"password", DefaultAdminPassword,
	)

	return nil
}

// SeedDemo creates sample content so a fresh install has something to show.
// It is a no-op when any blog posts already exist.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	count, err := queries.CountPublishedBlogs(ctx)
	if err != nil {
		return fmt.Errorf("counting blogs: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin, err := queries.GetUserByUsername(ctx, DefaultAdminUsername)
	if err != nil {
		return fmt.Errorf("looking up superuser: %w", err)
	}

	category, err := queries.getOrCreateGeneralCategory(ctx)
	if err != nil {
		return fmt.Errorf("creating demo category: %w", err)
	}

	now := time.Now()
	posts := []CreateBlogParams{
		{
			Title:      "Welcome to EcomHub",
			Content:    "This is your first post. Log in as the superuser to edit or delete it, or create your own posts from the navigation bar.",
			Slug:       "welcome-to-ecomhub",
			AuthorID:   admin.ID,
			CategoryID: category.ID,
			Published:  true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			Title:      "Writing your first post",
			Content:    "Posts support categories, free-form tags and an optional header image. Readers can comment on published posts and leave a rating from one to five stars.",
			Slug:       "writing-your-first-post",
			AuthorID:   admin.ID,
			CategoryID: category.ID,
			Published:  true,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	for _, p := range posts {
		if _, err := queries.CreateBlog(ctx, p); err != nil {
			return fmt.Errorf("creating demo post %q: %w", p.Slug, err)
		}
	}

	if _, err := queries.CreatePage(ctx, CreatePageParams{
		Title:     "About",
		Content:   "## About this site\n\nThis page is rendered from Markdown. Edit it in the database or replace it with your own content.",
		Slug:      "about",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("creating demo page: %w", err)
	}

	slog.Info("seeded demo content", "posts", len(posts))
	return nil
}

// getOrCreateGeneralCategory looks up the demo category, creating it on first use.
func (q *Queries) getOrCreateGeneralCategory(ctx context.Context) (Category, error) {
	category, err := q.GetCategoryBySlug(ctx, "general")
	if err == nil {
		return category, nil
	}
	if err != sql.ErrNoRows {
		return Category{}, err
	}
	return q.CreateCategory(ctx, CreateCategoryParams{Name: "General", Slug: "general"})
}
