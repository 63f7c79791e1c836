// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/store"
)

// HomeHandler handles the home page.
type HomeHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(db *sql.DB, renderer *render.Renderer) *HomeHandler {
	return &HomeHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// Index renders the home page with the latest published posts.
func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	latest, err := h.queries.ListLatestPublishedBlogs(r.Context(), homeLatestCount)
	if err != nil {
		logAndInternalError(w, "failed to list latest posts", "error", err)
		return
	}

	data := map[string]any{
		"LatestBlogs": latest,
	}

	if err := h.renderer.Render(w, r, "home/index", baseData(r, "Home", data)); err != nil {
		logAndInternalError(w, "failed to render home page", "error", err)
	}
}
