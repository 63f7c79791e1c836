// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"

	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"

	// RouteBlogList is the public blog listing.
	RouteBlogList = "/pages/blog/"
	// RouteBlogCreate is the blog post creation form.
	RouteBlogCreate = "/pages/blog/create/"
	// RouteBlogSearch is the blog search endpoint.
	RouteBlogSearch = "/pages/blog/search/"
	// RouteBlogDetail is the blog detail pattern.
	RouteBlogDetail = "/pages/blog/{slug}/"
	// RouteBlogUpdate is the blog update pattern.
	RouteBlogUpdate = "/pages/blog/{slug}/update/"
	// RouteBlogDelete is the blog delete pattern.
	RouteBlogDelete = "/pages/blog/{slug}/delete/"
	// RouteBlogCategory is the category archive pattern.
	RouteBlogCategory = "/pages/blog/category/{slug}/"
	// RouteBlogTag is the tag archive pattern.
	RouteBlogTag = "/pages/blog/tag/{slug}/"

	// RoutePageList is the static page index.
	RoutePageList = "/pages/"
	// RoutePageDetail is the static page detail pattern.
	RoutePageDetail = "/pages/{slug}/"

	// RouteCommentAdd is the comment submission pattern.
	RouteCommentAdd = "/comments/add/{slug}/"

	// RouteMessageInbox is the inbox listing.
	RouteMessageInbox = "/messages/inbox/"
	// RouteMessageSent is the sent messages listing.
	RouteMessageSent = "/messages/sent/"
	// RouteMessageCompose is the message composition form.
	RouteMessageCompose = "/messages/compose/"
	// RouteMessageDetail is the message detail pattern.
	RouteMessageDetail = "/messages/{id}/"
	// RouteMessageDelete is the message delete pattern.
	RouteMessageDelete = "/messages/{id}/delete/"

	// RouteSignup is the registration form.
	RouteSignup = "/accounts/signup/"
	// RouteLogin is the login form.
	RouteLogin = "/accounts/login/"
	// RouteLogout is the logout endpoint.
	RouteLogout = "/accounts/logout/"
	// RouteProfile is the profile view.
	RouteProfile = "/accounts/profile/"
	// RouteProfileUpdate is the profile update form.
	RouteProfileUpdate = "/accounts/profile/update/"
	// RoutePasswordUpdate is the password change form.
	RoutePasswordUpdate = "/accounts/profile/password/update/"
)

// listPageSize is the page size for blog listings, search results,
// and message listings.
const listPageSize = 10

// homeLatestCount is how many recent posts the home page shows.
const homeLatestCount = 5
