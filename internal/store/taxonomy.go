// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

// CreateCategoryParams holds parameters for CreateCategory.
type CreateCategoryParams struct {
	Name string
	Slug string
}

// CreateCategory inserts a category and returns it.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, slug) VALUES (?, ?)`, arg.Name, arg.Slug)
	if err != nil {
		return Category{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Category{}, err
	}
	return q.GetCategoryByID(ctx, id)
}

// GetCategoryByID fetches a category by ID.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.Slug)
	return c, err
}

// GetCategoryBySlug fetches a category by slug.
func (q *Queries) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM categories WHERE slug = ?`, slug).Scan(&c.ID, &c.Name, &c.Slug)
	return c, err
}

// ListCategories returns all categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// DeleteCategory removes a category. Posts in it are deleted by the FK cascade.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return err
}

// CreateTagParams holds parameters for CreateTag.
type CreateTagParams struct {
	Name string
	Slug string
}

// CreateTag inserts a tag and returns it.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (Tag, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO tags (name, slug) VALUES (?, ?)`, arg.Name, arg.Slug)
	if err != nil {
		return Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return q.GetTagByID(ctx, id)
}

// GetTagByID fetches a tag by ID.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// GetTagBySlug fetches a tag by slug.
func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM tags WHERE slug = ?`, slug).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// GetTagByName fetches a tag by exact name.
func (q *Queries) GetTagByName(ctx context.Context, name string) (Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, slug FROM tags WHERE name = ?`, name).Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// ListTags returns all tags ordered by name.
func (q *Queries) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTagsForBlog returns the tags attached to a blog post, ordered by name.
func (q *Queries) GetTagsForBlog(ctx context.Context, blogID int64) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.slug FROM tags t
		 JOIN blog_tags bt ON bt.tag_id = t.id
		 WHERE bt.blog_id = ? ORDER BY t.name`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// SetBlogTagsParams holds parameters for SetBlogTags.
type SetBlogTagsParams struct {
	BlogID int64
	TagIDs []int64
}

// SetBlogTags replaces the tag set of a blog post.
func (q *Queries) SetBlogTags(ctx context.Context, arg SetBlogTagsParams) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM blog_tags WHERE blog_id = ?`, arg.BlogID); err != nil {
		return err
	}
	for _, tagID := range arg.TagIDs {
		if _, err := q.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO blog_tags (blog_id, tag_id) VALUES (?, ?)`,
			arg.BlogID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreateTagParams holds parameters for GetOrCreateTag.
type GetOrCreateTagParams struct {
	Name string
	Slug string
}

// GetOrCreateTag returns the tag with the given name, creating it if absent.
func (q *Queries) GetOrCreateTag(ctx context.Context, arg GetOrCreateTagParams) (Tag, error) {
	t, err := q.GetTagByName(ctx, arg.Name)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return Tag{}, err
	}
	return q.CreateTag(ctx, CreateTagParams(arg))
}
