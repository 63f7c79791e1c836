// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the application.
package handler

import (
	"net/http"

	"github.com/ecomhub/ecomhub/internal/middleware"
	"github.com/ecomhub/ecomhub/internal/render"
)

// baseData builds template data with the current user's authentication
// state filled in from the request context.
func baseData(r *http.Request, title string, data any) render.TemplateData {
	td := render.TemplateData{
		Title: title,
		Data:  data,
	}
	if user := middleware.GetUser(r); user != nil {
		td.IsAuthenticated = true
		td.Username = user.Username
		td.IsSuperuser = user.IsSuperuser
	}
	return td
}
