// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// CreateCommentParams holds parameters for CreateComment.
type CreateCommentParams struct {
	BlogID    int64
	AuthorID  int64
	Content   string
	Rating    sql.NullInt64
	CreatedAt time.Time
}

// CreateComment inserts a comment and returns it.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO comments (blog_id, author_id, content, rating, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.BlogID, arg.AuthorID, arg.Content, arg.Rating, arg.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Comment{}, err
	}
	return q.GetCommentByID(ctx, id)
}

// GetCommentByID fetches a comment by ID.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (Comment, error) {
	var c Comment
	err := q.db.QueryRowContext(ctx,
		`SELECT id, blog_id, author_id, content, rating, created_at
		 FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.Rating, &c.CreatedAt)
	return c, err
}

// CommentWithAuthor pairs a comment with its author's username for display.
type CommentWithAuthor struct {
	Comment
	AuthorName string
}

// ListCommentsForBlog returns a post's comments with author names, newest first.
func (q *Queries) ListCommentsForBlog(ctx context.Context, blogID int64) ([]CommentWithAuthor, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT c.id, c.blog_id, c.author_id, c.content, c.rating, c.created_at, u.username
		 FROM comments c
		 JOIN users u ON u.id = c.author_id
		 WHERE c.blog_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []CommentWithAuthor
	for rows.Next() {
		var c CommentWithAuthor
		if err := rows.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.Rating,
			&c.CreatedAt, &c.AuthorName); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountCommentsForBlog returns the number of comments on a post.
func (q *Queries) CountCommentsForBlog(ctx context.Context, blogID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE blog_id = ?`, blogID).Scan(&n)
	return n, err
}

// AvgRatingForBlog returns the mean rating of a post's rated comments.
// Valid is false when no comment on the post carries a rating.
func (q *Queries) AvgRatingForBlog(ctx context.Context, blogID int64) (sql.NullFloat64, error) {
	var avg sql.NullFloat64
	err := q.db.QueryRowContext(ctx,
		`SELECT AVG(rating) FROM comments WHERE blog_id = ? AND rating IS NOT NULL`,
		blogID).Scan(&avg)
	return avg, err
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}
