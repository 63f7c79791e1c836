// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const blogColumns = `id, title, content, author_id, category_id, published, slug, image, created_at, updated_at`

func scanBlogRow(row *sql.Row) (Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.CategoryID,
		&b.Published, &b.Slug, &b.Image, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanBlogs(rows *sql.Rows) ([]Blog, error) {
	defer rows.Close()
	var blogs []Blog
	for rows.Next() {
		var b Blog
		if err := rows.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.CategoryID,
			&b.Published, &b.Slug, &b.Image, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

// CreateBlogParams holds parameters for CreateBlog.
type CreateBlogParams struct {
	Title      string
	Content    string
	AuthorID   int64
	CategoryID int64
	Published  bool
	Slug       string
	Image      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateBlog inserts a new blog post and returns it.
func (q *Queries) CreateBlog(ctx context.Context, arg CreateBlogParams) (Blog, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO blogs (title, content, author_id, category_id, published, slug, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Content, arg.AuthorID, arg.CategoryID, arg.Published,
		arg.Slug, arg.Image, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return Blog{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Blog{}, err
	}
	return q.GetBlogByID(ctx, id)
}

// GetBlogByID fetches a blog post by ID regardless of published state.
func (q *Queries) GetBlogByID(ctx context.Context, id int64) (Blog, error) {
	return scanBlogRow(q.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id))
}

// GetBlogBySlug fetches a blog post by slug regardless of published state.
func (q *Queries) GetBlogBySlug(ctx context.Context, slug string) (Blog, error) {
	return scanBlogRow(q.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE slug = ?`, slug))
}

// GetPublishedBlogBySlug fetches a published blog post by slug.
func (q *Queries) GetPublishedBlogBySlug(ctx context.Context, slug string) (Blog, error) {
	return scanBlogRow(q.db.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE slug = ? AND published = 1`, slug))
}

// ListPublishedBlogsParams holds parameters for ListPublishedBlogs.
type ListPublishedBlogsParams struct {
	Limit  int64
	Offset int64
}

// ListPublishedBlogs returns published posts, newest first.
func (q *Queries) ListPublishedBlogs(ctx context.Context, arg ListPublishedBlogsParams) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE published = 1
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// ListBlogs returns every post including drafts, oldest first.
func (q *Queries) ListBlogs(ctx context.Context) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// CountPublishedBlogs returns the number of published posts.
func (q *Queries) CountPublishedBlogs(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs WHERE published = 1`).Scan(&n)
	return n, err
}

// SearchPublishedBlogsParams holds parameters for SearchPublishedBlogs.
type SearchPublishedBlogsParams struct {
	Query  string
	Limit  int64
	Offset int64
}

// SearchPublishedBlogs returns published posts whose title or content
// contains the query, case-insensitively, newest first.
func (q *Queries) SearchPublishedBlogs(ctx context.Context, arg SearchPublishedBlogsParams) ([]Blog, error) {
	pattern := "%" + escapeLike(arg.Query) + "%"
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs
		 WHERE published = 1
		   AND (lower(title) LIKE lower(?) ESCAPE '\' OR lower(content) LIKE lower(?) ESCAPE '\')
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		pattern, pattern, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// CountSearchPublishedBlogs returns the number of published posts matching the query.
func (q *Queries) CountSearchPublishedBlogs(ctx context.Context, query string) (int64, error) {
	pattern := "%" + escapeLike(query) + "%"
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs
		 WHERE published = 1
		   AND (lower(title) LIKE lower(?) ESCAPE '\' OR lower(content) LIKE lower(?) ESCAPE '\')`,
		pattern, pattern).Scan(&n)
	return n, err
}

// ListPublishedBlogsByCategoryParams holds parameters for ListPublishedBlogsByCategory.
type ListPublishedBlogsByCategoryParams struct {
	CategoryID int64
	Limit      int64
	Offset     int64
}

// ListPublishedBlogsByCategory returns published posts in a category, newest first.
func (q *Queries) ListPublishedBlogsByCategory(ctx context.Context, arg ListPublishedBlogsByCategoryParams) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE published = 1 AND category_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		arg.CategoryID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// CountPublishedBlogsByCategory returns the number of published posts in a category.
func (q *Queries) CountPublishedBlogsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs WHERE published = 1 AND category_id = ?`, categoryID).Scan(&n)
	return n, err
}

// ListPublishedBlogsByTagParams holds parameters for ListPublishedBlogsByTag.
type ListPublishedBlogsByTagParams struct {
	TagID  int64
	Limit  int64
	Offset int64
}

// ListPublishedBlogsByTag returns published posts carrying a tag, newest first.
func (q *Queries) ListPublishedBlogsByTag(ctx context.Context, arg ListPublishedBlogsByTagParams) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT b.id, b.title, b.content, b.author_id, b.category_id, b.published, b.slug, b.image, b.created_at, b.updated_at
		 FROM blogs b
		 JOIN blog_tags bt ON bt.blog_id = b.id
		 WHERE b.published = 1 AND bt.tag_id = ?
		 ORDER BY b.created_at DESC LIMIT ? OFFSET ?`,
		arg.TagID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// CountPublishedBlogsByTag returns the number of published posts carrying a tag.
func (q *Queries) CountPublishedBlogsByTag(ctx context.Context, tagID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs b JOIN blog_tags bt ON bt.blog_id = b.id
		 WHERE b.published = 1 AND bt.tag_id = ?`, tagID).Scan(&n)
	return n, err
}

// ListLatestPublishedBlogs returns the most recently created published posts.
func (q *Queries) ListLatestPublishedBlogs(ctx context.Context, limit int64) ([]Blog, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE published = 1
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// UpdateBlogParams holds parameters for UpdateBlog.
type UpdateBlogParams struct {
	Title      string
	Content    string
	CategoryID int64
	Published  bool
	Image      string
	UpdatedAt  time.Time
	ID         int64
}

// UpdateBlog replaces the editable fields of a blog post. The slug is immutable.
func (q *Queries) UpdateBlog(ctx context.Context, arg UpdateBlogParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE blogs SET title = ?, content = ?, category_id = ?, published = ?, image = ?, updated_at = ?
		 WHERE id = ?`,
		arg.Title, arg.Content, arg.CategoryID, arg.Published, arg.Image, arg.UpdatedAt, arg.ID)
	return err
}

// DeleteBlog removes a blog post. Comments and tag links cascade.
func (q *Queries) DeleteBlog(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	return err
}

// CountBlogsBySlug returns how many posts carry the given slug.
func (q *Queries) CountBlogsBySlug(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM blogs WHERE slug = ?`, slug).Scan(&n)
	return n, err
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
