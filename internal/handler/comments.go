// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecomhub/ecomhub/internal/forms"
	"github.com/ecomhub/ecomhub/internal/middleware"
	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/service"
	"github.com/ecomhub/ecomhub/internal/store"
	"github.com/ecomhub/ecomhub/internal/util"
)

// CommentHandler handles comment submission on blog posts.
type CommentHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService) *CommentHandler {
	return &CommentHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: events,
	}
}

// Add handles comment submission on a published post. Comments cannot be
// attached to drafts.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	blog, err := h.queries.GetPublishedBlogBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get post", "error", err, "slug", slug)
		return
	}
	detailURL := "/pages/blog/" + blog.Slug + "/"

	if !parseFormOrRedirect(w, r, h.renderer, detailURL) {
		return
	}

	form := forms.ParseCommentForm(r)
	if !form.Validate() {
		// Re-render the add-comment form with the field errors
		data := map[string]any{
			"Blog": blog,
			"Form": form,
		}
		if err := h.renderer.Render(w, r, "blog/comment_form", baseData(r, "Add Comment", data)); err != nil {
			logAndInternalError(w, "failed to render comment form", "error", err)
		}
		return
	}

	user := middleware.GetUser(r)
	rating := sql.NullInt64{}
	if form.Rating != 0 {
		rating = util.NullInt64FromValue(form.Rating)
	}

	comment, err := h.queries.CreateComment(r.Context(), store.CreateCommentParams{
		BlogID:    blog.ID,
		AuthorID:  user.ID,
		Content:   form.Content,
		Rating:    rating,
		CreatedAt: time.Now(),
	})
	if err != nil {
		logAndInternalError(w, "failed to create comment", "error", err, "blog_id", blog.ID)
		return
	}

	userID := user.ID
	_ = h.eventService.LogBlogEvent(r.Context(), store.EventLevelInfo,
		fmt.Sprintf("Comment added on: %s", blog.Title), &userID, r.RemoteAddr,
		map[string]any{"blog_id": blog.ID, "comment_id": comment.ID})

	flashSuccess(w, r, h.renderer, detailURL, "Comment added")
}
