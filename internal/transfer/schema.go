// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer provides JSON import/export of site content.
package transfer

import "time"

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportData represents the complete export structure. Entities reference
// each other by username and slug, never by database ID, so a dump can be
// imported into a database with different row IDs.
type ExportData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Users      []ExportUser     `json:"users,omitempty"`
	Categories []ExportCategory `json:"categories,omitempty"`
	Tags       []ExportTag      `json:"tags,omitempty"`
	Pages      []ExportPage     `json:"pages,omitempty"`
	Blogs      []ExportBlog     `json:"blogs,omitempty"`
	Messages   []ExportMessage  `json:"messages,omitempty"`
}

// ExportUser represents a user for export. Password hashes are never
// exported; imported users receive a random password and must reset it.
type ExportUser struct {
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	IsSuperuser bool           `json:"is_superuser"`
	Profile     *ExportProfile `json:"profile,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ExportProfile carries the public profile fields of a user.
type ExportProfile struct {
	Name        string `json:"name,omitempty"`
	Surname     string `json:"surname,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// ExportCategory represents a blog category.
type ExportCategory struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ExportTag represents a free-form tag.
type ExportTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ExportPage represents a static page.
type ExportPage struct {
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportBlog represents a blog post with its comments nested inline.
type ExportBlog struct {
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Content        string          `json:"content"`
	AuthorUsername string          `json:"author_username"`
	CategorySlug   string          `json:"category_slug"`
	Tags           []string        `json:"tags,omitempty"`
	Published      bool            `json:"published"`
	Image          string          `json:"image,omitempty"`
	Comments       []ExportComment `json:"comments,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ExportComment represents a comment on a blog post. Rating is nil when the
// commenter left no rating.
type ExportComment struct {
	AuthorUsername string    `json:"author_username"`
	Content        string    `json:"content"`
	Rating         *int64    `json:"rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExportMessage represents a private message between two users.
type ExportMessage struct {
	SenderUsername   string    `json:"sender_username"`
	ReceiverUsername string    `json:"receiver_username"`
	Subject          string    `json:"subject"`
	Content          string    `json:"content"`
	Read             bool      `json:"read"`
	SentAt           time.Time `json:"sent_at"`
}

// ExportOptions selects which entity groups to export.
type ExportOptions struct {
	IncludeUsers    bool
	IncludeTaxonomy bool
	IncludePages    bool
	IncludeBlogs    bool
	IncludeComments bool
	IncludeMessages bool
}

// FullExportOptions returns options with every entity group enabled.
func FullExportOptions() ExportOptions {
	return ExportOptions{
		IncludeUsers:    true,
		IncludeTaxonomy: true,
		IncludePages:    true,
		IncludeBlogs:    true,
		IncludeComments: true,
		IncludeMessages: true,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	// SkipExisting skips entities whose username or slug already exists
	// instead of failing the import.
	SkipExisting bool
	// DryRun validates and counts entities without writing anything.
	DryRun bool
}

// ImportError describes a single entity that could not be imported.
type ImportError struct {
	Entity  string `json:"entity"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// ImportResult summarizes an import run.
type ImportResult struct {
	DryRun  bool           `json:"dry_run"`
	Created map[string]int `json:"created"`
	Skipped map[string]int `json:"skipped"`
	Errors  []ImportError  `json:"errors,omitempty"`
}

// NewImportResult creates an empty result.
func NewImportResult(dryRun bool) *ImportResult {
	return &ImportResult{
		DryRun:  dryRun,
		Created: make(map[string]int),
		Skipped: make(map[string]int),
	}
}

// AddError records a failed entity.
func (r *ImportResult) AddError(entity, key, message string) {
	r.Errors = append(r.Errors, ImportError{Entity: entity, Key: key, Message: message})
}
