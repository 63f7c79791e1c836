// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const pageColumns = `id, title, content, slug, created_at, updated_at`

func scanPageRow(row *sql.Row) (Page, error) {
	var p Page
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Slug, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreatePageParams holds parameters for CreatePage.
type CreatePageParams struct {
	Title     string
	Content   string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePage inserts a static page and returns it.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO pages (title, content, slug, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.Title, arg.Content, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Page{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Page{}, err
	}
	return q.GetPageByID(ctx, id)
}

// GetPageByID fetches a page by ID.
func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	return scanPageRow(q.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
}

// GetPageBySlug fetches a page by slug.
func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	return scanPageRow(q.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug))
}

// ListPages returns all static pages ordered by title.
func (q *Queries) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+pageColumns+` FROM pages ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.Slug, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// UpdatePageParams holds parameters for UpdatePage.
type UpdatePageParams struct {
	Title     string
	Content   string
	UpdatedAt time.Time
	ID        int64
}

// UpdatePage replaces the editable fields of a page. The slug is immutable.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE pages SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		arg.Title, arg.Content, arg.UpdatedAt, arg.ID)
	return err
}

// DeletePage removes a static page.
func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	return err
}

// CountPagesBySlug returns how many pages carry the given slug.
func (q *Queries) CountPagesBySlug(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE slug = ?`, slug).Scan(&n)
	return n, err
}
