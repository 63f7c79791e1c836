// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const profileColumns = `id, user_id, name, surname, image, description, url, created_at, updated_at`

func scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Surname, &p.Image, &p.Description,
		&p.URL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProfileParams holds parameters for CreateProfile.
type CreateProfileParams struct {
	UserID    int64
	Name      string
	Surname   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateProfile inserts a blank profile for a user and returns it.
func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, name, surname, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.UserID, arg.Name, arg.Surname, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Profile{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Profile{}, err
	}
	return q.GetProfileByID(ctx, id)
}

// GetProfileByID fetches a profile by ID.
func (q *Queries) GetProfileByID(ctx context.Context, id int64) (Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
}

// GetProfileByUserID fetches the profile belonging to a user.
func (q *Queries) GetProfileByUserID(ctx context.Context, userID int64) (Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID))
}

// UpdateProfileParams holds parameters for UpdateProfile.
type UpdateProfileParams struct {
	Name        string
	Surname     string
	Description string
	URL         string
	UpdatedAt   time.Time
	UserID      int64
}

// UpdateProfile replaces the text fields of a user's profile.
func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, surname = ?, description = ?, url = ?, updated_at = ?
		 WHERE user_id = ?`,
		arg.Name, arg.Surname, arg.Description, arg.URL, arg.UpdatedAt, arg.UserID)
	return err
}

// UpdateProfileImageParams holds parameters for UpdateProfileImage.
type UpdateProfileImageParams struct {
	Image     string
	UpdatedAt time.Time
	UserID    int64
}

// UpdateProfileImage replaces the stored image path of a user's profile.
func (q *Queries) UpdateProfileImage(ctx context.Context, arg UpdateProfileImageParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE profiles SET image = ?, updated_at = ? WHERE user_id = ?`,
		arg.Image, arg.UpdatedAt, arg.UserID)
	return err
}
