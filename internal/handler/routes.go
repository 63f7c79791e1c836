// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/ecomhub/ecomhub/internal/imaging"
	"github.com/ecomhub/ecomhub/internal/middleware"
	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/service"
)

// RouterDeps holds the shared dependencies the route handlers need.
type RouterDeps struct {
	DB              *sql.DB
	Renderer        *render.Renderer
	SessionManager  *scs.SessionManager
	UserService     *service.UserService
	EventService    *service.EventService
	LoginProtection *middleware.LoginProtection
	Images          *imaging.Processor
}

// RegisterRoutes mounts every application route on the router. The router
// is expected to already carry the session and security middleware.
func RegisterRoutes(r chi.Router, deps RouterDeps) {
	home := NewHomeHandler(deps.DB, deps.Renderer)
	blog := NewBlogHandler(deps.DB, deps.Renderer, deps.EventService, deps.Images)
	comments := NewCommentHandler(deps.DB, deps.Renderer, deps.EventService)
	pages := NewPageHandler(deps.DB, deps.Renderer)
	messages := NewMessageHandler(deps.DB, deps.Renderer, deps.EventService)
	accounts := NewAccountHandler(deps.DB, deps.Renderer, deps.SessionManager,
		deps.UserService, deps.EventService, deps.LoginProtection, deps.Images)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(deps.SessionManager)(
			middleware.LoadUser(deps.SessionManager, deps.DB)(h))
	}
	optionalAuth := func(h http.HandlerFunc) http.Handler {
		return middleware.OptionalLoadUser(deps.SessionManager, deps.DB)(h)
	}

	// Public routes
	r.Method(http.MethodGet, RouteRoot, optionalAuth(home.Index))
	r.Method(http.MethodGet, RouteBlogList, optionalAuth(blog.List))
	r.Method(http.MethodGet, RouteBlogSearch, optionalAuth(blog.Search))
	r.Method(http.MethodGet, RouteBlogCategory, optionalAuth(blog.Category))
	r.Method(http.MethodGet, RouteBlogTag, optionalAuth(blog.Tag))
	r.Method(http.MethodGet, RouteBlogDetail, optionalAuth(blog.Detail))
	r.Method(http.MethodGet, RoutePageList, optionalAuth(pages.List))
	r.Method(http.MethodGet, RoutePageDetail, optionalAuth(pages.Detail))

	// Blog mutations require login; update/delete additionally check the
	// author-or-superuser predicate inside the handler.
	r.Method(http.MethodGet, RouteBlogCreate, requireAuth(blog.CreateForm))
	r.Method(http.MethodPost, RouteBlogCreate, requireAuth(blog.Create))
	r.Method(http.MethodGet, RouteBlogUpdate, requireAuth(blog.UpdateForm))
	r.Method(http.MethodPost, RouteBlogUpdate, requireAuth(blog.Update))
	r.Method(http.MethodGet, RouteBlogDelete, requireAuth(blog.DeleteConfirm))
	r.Method(http.MethodPost, RouteBlogDelete, requireAuth(blog.Delete))

	// Comments
	r.Method(http.MethodPost, RouteCommentAdd, requireAuth(comments.Add))

	// Messaging
	r.Method(http.MethodGet, RouteMessageInbox, requireAuth(messages.Inbox))
	r.Method(http.MethodGet, RouteMessageSent, requireAuth(messages.Sent))
	r.Method(http.MethodGet, RouteMessageCompose, requireAuth(messages.ComposeForm))
	r.Method(http.MethodPost, RouteMessageCompose, requireAuth(messages.Compose))
	r.Method(http.MethodGet, RouteMessageDetail, requireAuth(messages.Detail))
	r.Method(http.MethodGet, RouteMessageDelete, requireAuth(messages.DeleteConfirm))
	r.Method(http.MethodPost, RouteMessageDelete, requireAuth(messages.Delete))

	// Accounts
	loginLimited := deps.LoginProtection.Middleware()
	r.Method(http.MethodGet, RouteSignup, optionalAuth(accounts.SignupForm))
	r.Method(http.MethodPost, RouteSignup, optionalAuth(accounts.Signup))
	r.Method(http.MethodGet, RouteLogin, optionalAuth(accounts.LoginForm))
	r.Method(http.MethodPost, RouteLogin, loginLimited(optionalAuth(accounts.Login)))
	r.Method(http.MethodGet, RouteLogout, optionalAuth(accounts.Logout))
	r.Method(http.MethodPost, RouteLogout, optionalAuth(accounts.Logout))
	r.Method(http.MethodGet, RouteProfile, requireAuth(accounts.Profile))
	r.Method(http.MethodGet, RouteProfileUpdate, requireAuth(accounts.ProfileUpdateForm))
	r.Method(http.MethodPost, RouteProfileUpdate, requireAuth(accounts.ProfileUpdate))
	r.Method(http.MethodGet, RoutePasswordUpdate, requireAuth(accounts.PasswordUpdateForm))
	r.Method(http.MethodPost, RoutePasswordUpdate, requireAuth(accounts.PasswordUpdate))
}
