// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/store"
)

// PageHandler handles static pages.
type PageHandler struct {
	queries  *store.Queries
	renderer *render.Renderer
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(db *sql.DB, renderer *render.Renderer) *PageHandler {
	return &PageHandler{
		queries:  store.New(db),
		renderer: renderer,
	}
}

// List renders the static page index.
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.queries.ListPages(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list pages", "error", err)
		return
	}

	data := map[string]any{
		"Pages": pages,
	}

	if err := h.renderer.Render(w, r, "pages/list", baseData(r, "Pages", data)); err != nil {
		logAndInternalError(w, "failed to render page list", "error", err)
	}
}

// Detail renders a static page. Page bodies are authored in Markdown and
// converted to HTML on render.
func (h *PageHandler) Detail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.queries.GetPageBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get page", "error", err, "slug", slug)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(page.Content), &buf); err != nil {
		logAndInternalError(w, "failed to render page markdown", "error", err, "slug", slug)
		return
	}

	data := map[string]any{
		"Page":    page,
		"Content": template.HTML(buf.String()), //nolint:gosec // page bodies are authored by site admins
	}

	if err := h.renderer.Render(w, r, "pages/detail", baseData(r, page.Title, data)); err != nil {
		logAndInternalError(w, "failed to render page", "error", err, "slug", slug)
	}
}
