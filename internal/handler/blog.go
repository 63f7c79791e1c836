// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecomhub/ecomhub/internal/forms"
	"github.com/ecomhub/ecomhub/internal/imaging"
	"github.com/ecomhub/ecomhub/internal/middleware"
	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/service"
	"github.com/ecomhub/ecomhub/internal/store"
	"github.com/ecomhub/ecomhub/internal/util"
)

// BlogHandler handles public blog routes.
type BlogHandler struct {
	queries      *store.Queries
	renderer     *render.Renderer
	eventService *service.EventService
	images       *imaging.Processor
}

// NewBlogHandler creates a new BlogHandler.
func NewBlogHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService, images *imaging.Processor) *BlogHandler {
	return &BlogHandler{
		queries:      store.New(db),
		renderer:     renderer,
		eventService: events,
		images:       images,
	}
}

// canModify reports whether the user may update or delete the post.
// Permitted iff the user is the post's author or a superuser.
func canModify(user *store.User, blog store.Blog) bool {
	if user == nil {
		return false
	}
	return user.ID == blog.AuthorID || user.IsSuperuser
}

// List renders the paginated listing of published posts.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	total, err := h.queries.CountPublishedBlogs(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count posts", "error", err)
		return
	}

	blogs, err := h.queries.ListPublishedBlogs(r.Context(), store.ListPublishedBlogsParams{
		Limit:  listPageSize,
		Offset: int64((page - 1) * listPageSize),
	})
	if err != nil {
		logAndInternalError(w, "failed to list posts", "error", err)
		return
	}

	data := map[string]any{
		"Blogs":      blogs,
		"Pagination": buildPagination(page, total, listPageSize, RouteBlogList, nil),
	}

	if err := h.renderer.Render(w, r, "blog/list", baseData(r, "Blog", data)); err != nil {
		logAndInternalError(w, "failed to render blog list", "error", err)
	}
}

// Detail renders a single published post with its comments and rating.
// Unpublished posts are not visible here, not even to their author.
func (h *BlogHandler) Detail(w http.ResponseWriter, r *http.Request) {
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

	author, err := h.queries.GetUserByID(r.Context(), blog.AuthorID)
	if err != nil {
		logAndInternalError(w, "failed to get post author", "error", err, "blog_id", blog.ID)
		return
	}

	category, err := h.queries.GetCategoryByID(r.Context(), blog.CategoryID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logAndInternalError(w, "failed to get post category", "error", err, "blog_id", blog.ID)
		return
	}

	tags, err := h.queries.GetTagsForBlog(r.Context(), blog.ID)
	if err != nil {
		logAndInternalError(w, "failed to get post tags", "error", err, "blog_id", blog.ID)
		return
	}

	comments, err := h.queries.ListCommentsForBlog(r.Context(), blog.ID)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err, "blog_id", blog.ID)
		return
	}

	avg, err := h.queries.AvgRatingForBlog(r.Context(), blog.ID)
	if err != nil {
		logAndInternalError(w, "failed to get rating", "error", err, "blog_id", blog.ID)
		return
	}

	user := middleware.GetUser(r)
	data := map[string]any{
		"Blog":        blog,
		"Author":      author,
		"Category":    category,
		"Tags":        tags,
		"Comments":    comments,
		"HasRating":   avg.Valid,
		"AvgRating":   avg.Float64,
		"CanModify":   canModify(user, blog),
		"CommentForm": &forms.CommentForm{Errors: make(forms.Errors)},
	}

	if err := h.renderer.Render(w, r, "blog/detail", baseData(r, blog.Title, data)); err != nil {
		logAndInternalError(w, "failed to render post", "error", err, "slug", slug)
	}
}

// CreateForm renders the post creation form.
func (h *BlogHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderBlogForm(w, r, "New Post", &forms.BlogForm{Errors: make(forms.Errors)}, RouteBlogCreate)
}

// Create handles post creation.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		if err := r.ParseForm(); err != nil {
			flashError(w, r, h.renderer, RouteBlogCreate, "Invalid form data")
			return
		}
	}

	form := forms.ParseBlogForm(r)
	if !form.Validate() {
		h.renderBlogForm(w, r, "New Post", form, RouteBlogCreate)
		return
	}

	slug, err := h.uniqueSlug(r, form.Title)
	if err != nil {
		logAndInternalError(w, "failed to build slug", "error", err)
		return
	}

	imagePath, ok := h.saveUploadedImage(w, r, RouteBlogCreate)
	if !ok {
		return
	}

	now := time.Now()
	blog, err := h.queries.CreateBlog(r.Context(), store.CreateBlogParams{
		Title:      form.Title,
		Content:    form.Content,
		AuthorID:   user.ID,
		CategoryID: form.CategoryID,
		Published:  form.Published,
		Slug:       slug,
		Image:      imagePath,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		h.discardUploadedImage(imagePath)
		logAndInternalError(w, "failed to create post", "error", err)
		return
	}

	if err := h.applyTags(r, blog.ID, form); err != nil {
		logAndInternalError(w, "failed to set tags", "error", err, "blog_id", blog.ID)
		return
	}

	userID := user.ID
	_ = h.eventService.LogBlogEvent(r.Context(), store.EventLevelInfo,
		fmt.Sprintf("Post created: %s", blog.Title), &userID, r.RemoteAddr,
		map[string]any{"blog_id": blog.ID, "slug": blog.Slug})

	flashSuccess(w, r, h.renderer, RouteBlogList, "Post created successfully")
}

// UpdateForm renders the edit form for a post.
func (h *BlogHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.requireModifiableBlog(w, r)
	if !ok {
		return
	}

	tags, err := h.queries.GetTagsForBlog(r.Context(), blog.ID)
	if err != nil {
		logAndInternalError(w, "failed to get post tags", "error", err, "blog_id", blog.ID)
		return
	}

	form := &forms.BlogForm{
		Title:      blog.Title,
		Content:    blog.Content,
		CategoryID: blog.CategoryID,
		Tags:       joinTagNames(tags),
		Published:  blog.Published,
		Errors:     make(forms.Errors),
	}

	h.renderBlogForm(w, r, "Edit Post", form, "/pages/blog/"+blog.Slug+"/update/")
}

// Update handles post edits. The slug never changes on update.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.requireModifiableBlog(w, r)
	if !ok {
		return
	}
	formURL := "/pages/blog/" + blog.Slug + "/update/"

	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		if err := r.ParseForm(); err != nil {
			flashError(w, r, h.renderer, formURL, "Invalid form data")
			return
		}
	}

	form := forms.ParseBlogForm(r)
	if !form.Validate() {
		h.renderBlogForm(w, r, "Edit Post", form, formURL)
		return
	}

	imagePath, ok := h.saveUploadedImage(w, r, formURL)
	if !ok {
		return
	}

	oldImage := blog.Image
	newImage := oldImage
	if imagePath != "" {
		newImage = imagePath
	}

	err := h.queries.UpdateBlog(r.Context(), store.UpdateBlogParams{
		Title:      form.Title,
		Content:    form.Content,
		CategoryID: form.CategoryID,
		Published:  form.Published,
		Image:      newImage,
		UpdatedAt:  time.Now(),
		ID:         blog.ID,
	})
	if err != nil {
		h.discardUploadedImage(imagePath)
		logAndInternalError(w, "failed to update post", "error", err, "blog_id", blog.ID)
		return
	}

	if err := h.applyTags(r, blog.ID, form); err != nil {
		logAndInternalError(w, "failed to set tags", "error", err, "blog_id", blog.ID)
		return
	}

	// Remove the replaced image file only after the row points at the new one
	if imagePath != "" && oldImage != "" {
		if err := h.images.Delete(oldImage); err != nil {
			slog.Warn("failed to delete replaced post image", "error", err, "path", oldImage)
		}
	}

	userID := middleware.GetUserID(r)
	_ = h.eventService.LogBlogEvent(r.Context(), store.EventLevelInfo,
		fmt.Sprintf("Post updated: %s", form.Title), &userID, r.RemoteAddr,
		map[string]any{"blog_id": blog.ID, "slug": blog.Slug})

	flashSuccess(w, r, h.renderer, RouteBlogList, "Post updated successfully")
}

// DeleteConfirm renders the delete confirmation page.
func (h *BlogHandler) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.requireModifiableBlog(w, r)
	if !ok {
		return
	}

	data := map[string]any{"Blog": blog}
	if err := h.renderer.Render(w, r, "blog/delete", baseData(r, "Delete Post", data)); err != nil {
		logAndInternalError(w, "failed to render delete confirmation", "error", err)
	}
}

// Delete handles post deletion.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	blog, ok := h.requireModifiableBlog(w, r)
	if !ok {
		return
	}

	if err := h.queries.DeleteBlog(r.Context(), blog.ID); err != nil {
		logAndInternalError(w, "failed to delete post", "error", err, "blog_id", blog.ID)
		return
	}

	if blog.Image != "" {
		if err := h.images.Delete(blog.Image); err != nil {
			slog.Warn("failed to delete post image", "error", err, "path", blog.Image)
		}
	}

	userID := middleware.GetUserID(r)
	_ = h.eventService.LogBlogEvent(r.Context(), store.EventLevelInfo,
		fmt.Sprintf("Post deleted: %s", blog.Title), &userID, r.RemoteAddr,
		map[string]any{"blog_id": blog.ID, "slug": blog.Slug})

	flashSuccess(w, r, h.renderer, RouteBlogList, "Post deleted successfully")
}

// Search renders search results over published posts.
// An empty query yields no results, not the full listing.
func (h *BlogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	page := pageParam(r)

	var (
		blogs []store.Blog
		total int64
		err   error
	)
	if query != "" {
		total, err = h.queries.CountSearchPublishedBlogs(r.Context(), query)
		if err != nil {
			logAndInternalError(w, "failed to count search results", "error", err)
			return
		}
		blogs, err = h.queries.SearchPublishedBlogs(r.Context(), store.SearchPublishedBlogsParams{
			Query:  query,
			Limit:  listPageSize,
			Offset: int64((page - 1) * listPageSize),
		})
		if err != nil {
			logAndInternalError(w, "failed to search posts", "error", err)
			return
		}
	}

	params := r.URL.Query()
	data := map[string]any{
		"Blogs":      blogs,
		"Query":      query,
		"Pagination": buildPagination(page, total, listPageSize, RouteBlogSearch, params),
	}

	if err := h.renderer.Render(w, r, "blog/search", baseData(r, "Search", data)); err != nil {
		logAndInternalError(w, "failed to render search results", "error", err)
	}
}

// Category renders the archive of published posts in a category.
func (h *BlogHandler) Category(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	category, err := h.queries.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get category", "error", err, "slug", slug)
		return
	}

	page := pageParam(r)
	total, err := h.queries.CountPublishedBlogsByCategory(r.Context(), category.ID)
	if err != nil {
		logAndInternalError(w, "failed to count category posts", "error", err)
		return
	}

	blogs, err := h.queries.ListPublishedBlogsByCategory(r.Context(), store.ListPublishedBlogsByCategoryParams{
		CategoryID: category.ID,
		Limit:      listPageSize,
		Offset:     int64((page - 1) * listPageSize),
	})
	if err != nil {
		logAndInternalError(w, "failed to list category posts", "error", err)
		return
	}

	data := map[string]any{
		"Category":   category,
		"Blogs":      blogs,
		"Pagination": buildPagination(page, total, listPageSize, "/pages/blog/category/"+category.Slug+"/", nil),
	}

	if err := h.renderer.Render(w, r, "blog/category", baseData(r, category.Name, data)); err != nil {
		logAndInternalError(w, "failed to render category archive", "error", err)
	}
}

// Tag renders the archive of published posts carrying a tag.
func (h *BlogHandler) Tag(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	tag, err := h.queries.GetTagBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, "failed to get tag", "error", err, "slug", slug)
		return
	}

	page := pageParam(r)
	total, err := h.queries.CountPublishedBlogsByTag(r.Context(), tag.ID)
	if err != nil {
		logAndInternalError(w, "failed to count tag posts", "error", err)
		return
	}

	blogs, err := h.queries.ListPublishedBlogsByTag(r.Context(), store.ListPublishedBlogsByTagParams{
		TagID:  tag.ID,
		Limit:  listPageSize,
		Offset: int64((page - 1) * listPageSize),
	})
	if err != nil {
		logAndInternalError(w, "failed to list tag posts", "error", err)
		return
	}

	data := map[string]any{
		"Tag":        tag,
		"Blogs":      blogs,
		"Pagination": buildPagination(page, total, listPageSize, "/pages/blog/tag/"+tag.Slug+"/", nil),
	}

	if err := h.renderer.Render(w, r, "blog/tag", baseData(r, tag.Name, data)); err != nil {
		logAndInternalError(w, "failed to render tag archive", "error", err)
	}
}

// requireModifiableBlog fetches the post named in the URL and checks that the
// current user may modify it. Missing posts get a 404, other users' posts a
// 403. Drafts are reachable here so their authors can keep editing them.
func (h *BlogHandler) requireModifiableBlog(w http.ResponseWriter, r *http.Request) (store.Blog, bool) {
	slug := chi.URLParam(r, "slug")

	blog, err := h.queries.GetBlogBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return store.Blog{}, false
		}
		logAndInternalError(w, "failed to get post", "error", err, "slug", slug)
		return store.Blog{}, false
	}

	if !canModify(middleware.GetUser(r), blog) {
		forbidden(w)
		return store.Blog{}, false
	}

	return blog, true
}

// renderBlogForm renders the create/edit form with the category choices.
func (h *BlogHandler) renderBlogForm(w http.ResponseWriter, r *http.Request, title string, form *forms.BlogForm, action string) {
	categories, err := h.queries.ListCategories(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list categories", "error", err)
		return
	}

	data := map[string]any{
		"Form":       form,
		"Categories": categories,
		"Action":     action,
	}

	if err := h.renderer.Render(w, r, "blog/form", baseData(r, title, data)); err != nil {
		logAndInternalError(w, "failed to render post form", "error", err)
	}
}

// applyTags resolves the form's tag names and replaces the post's tag set.
func (h *BlogHandler) applyTags(r *http.Request, blogID int64, form *forms.BlogForm) error {
	names := form.TagNames()
	tagIDs := make([]int64, 0, len(names))
	for _, name := range names {
		tag, err := h.queries.GetOrCreateTag(r.Context(), store.GetOrCreateTagParams{
			Name: name,
			Slug: util.Slugify(name),
		})
		if err != nil {
			return err
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	return h.queries.SetBlogTags(r.Context(), store.SetBlogTagsParams{
		BlogID: blogID,
		TagIDs: tagIDs,
	})
}

// uniqueSlug derives a slug from the title, appending a numeric suffix
// until it is unique among posts.
func (h *BlogHandler) uniqueSlug(r *http.Request, title string) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = "post"
	}

	slug := base
	for i := 2; ; i++ {
		count, err := h.queries.CountBlogsBySlug(r.Context(), slug)
		if err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// saveUploadedImage stores the optional "image" form file and returns its
// relative path. Returns ok=false if a response was already written.
func (h *BlogHandler) saveUploadedImage(w http.ResponseWriter, r *http.Request, formURL string) (string, bool) {
	if r.MultipartForm == nil {
		return "", true
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		flashError(w, r, h.renderer, formURL, "Invalid image upload")
		return "", false
	}
	defer func() { _ = file.Close() }()

	result, err := h.images.ProcessUpload(file, "blog")
	if err != nil {
		flashError(w, r, h.renderer, formURL, "Could not process the uploaded image")
		return "", false
	}
	return result.RelPath, true
}

// discardUploadedImage removes an image saved for a write that never reached
// the database, so failed inserts don't leave files behind in the media dir.
func (h *BlogHandler) discardUploadedImage(relPath string) {
	if relPath == "" {
		return
	}
	if err := h.images.Delete(relPath); err != nil {
		slog.Warn("failed to remove unattached post image", "error", err, "path", relPath)
	}
}

// joinTagNames renders a tag list back into the comma-separated form value.
func joinTagNames(tags []store.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
