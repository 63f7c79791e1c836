// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestCommentAdd_PersistsWithRating(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("alice", false)
	app.createUser("bob", false)
	category := app.createCategory("General")
	blog := app.createBlog(author.ID, category.ID, "Commentable Post", true)

	app.login("bob")
	resp := app.postForm("/comments/add/"+blog.Slug+"/", url.Values{
		"content": {"Great read, thanks for sharing."},
		"rating":  {"4"},
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	comments, err := app.queries.ListCommentsForBlog(context.Background(), blog.ID)
	if err != nil {
		t.Fatalf("ListCommentsForBlog: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments; want 1", len(comments))
	}
	c := comments[0]
	if c.AuthorName != "bob" {
		t.Errorf("author = %q; want bob", c.AuthorName)
	}
	if !c.Rating.Valid || c.Rating.Int64 != 4 {
		t.Errorf("rating = %+v; want 4", c.Rating)
	}

	avg, err := app.queries.AvgRatingForBlog(context.Background(), blog.ID)
	if err != nil {
		t.Fatalf("AvgRatingForBlog: %v", err)
	}
	if !avg.Valid || avg.Float64 != 4 {
		t.Errorf("avg rating = %+v; want 4", avg)
	}
}

func TestCommentAdd_RatingIsOptional(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("alice", false)
	category := app.createCategory("General")
	blog := app.createBlog(author.ID, category.ID, "No Rating Needed", true)

	app.login("alice")
	resp := app.postForm("/comments/add/"+blog.Slug+"/", url.Values{
		"content": {"Commenting on my own post."},
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	comments, err := app.queries.ListCommentsForBlog(context.Background(), blog.ID)
	if err != nil {
		t.Fatalf("ListCommentsForBlog: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments; want 1", len(comments))
	}
	if comments[0].Rating.Valid {
		t.Errorf("rating should be NULL, got %d", comments[0].Rating.Int64)
	}

	avg, err := app.queries.AvgRatingForBlog(context.Background(), blog.ID)
	if err != nil {
		t.Fatalf("AvgRatingForBlog: %v", err)
	}
	if avg.Valid {
		t.Error("average over unrated comments should be NULL")
	}
}

func TestCommentAdd_DraftPostNotFound(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("alice", false)
	category := app.createCategory("General")
	draft := app.createBlog(author.ID, category.ID, "Unpublished", false)

	app.login("alice")
	resp := app.postForm("/comments/add/"+draft.Slug+"/", url.Values{
		"content": {"Should never land anywhere."},
	})
	assertStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestCommentAdd_InvalidInputRerendersForm(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("alice", false)
	app.createUser("bob", false)
	category := app.createCategory("General")
	blog := app.createBlog(author.ID, category.ID, "Strict Post", true)

	app.login("bob")
	resp := app.postForm("/comments/add/"+blog.Slug+"/", url.Values{
		"content": {"hi"},
		"rating":  {"9"},
	})
	assertStatus(t, resp, http.StatusOK)
	body := readBody(t, resp)

	if !strings.Contains(body, "Comment must be at least 5 characters long.") {
		t.Error("content error missing from response")
	}
	if !strings.Contains(body, "Rating must be between 1 and 5.") {
		t.Error("rating error missing from response")
	}

	comments, err := app.queries.ListCommentsForBlog(context.Background(), blog.ID)
	if err != nil {
		t.Fatalf("ListCommentsForBlog: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("invalid comment was persisted")
	}
}

func TestCommentAdd_RequiresLogin(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("alice", false)
	category := app.createCategory("General")
	blog := app.createBlog(author.ID, category.ID, "Login First", true)

	resp := app.postFormBare("/comments/add/"+blog.Slug+"/", url.Values{
		"content": {"Anonymous drive-by comment."},
	})
	assertStatus(t, resp, http.StatusSeeOther)
	resp.Body.Close()
}
