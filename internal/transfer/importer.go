// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ecomhub/ecomhub/internal/auth"
	"github.com/ecomhub/ecomhub/internal/store"
	"github.com/ecomhub/ecomhub/internal/util"
)

// Importer loads site content from the export format.
type Importer struct {
	store  *store.Queries
	db     *sql.DB
	logger *slog.Logger
}

// NewImporter creates a new Importer instance.
func NewImporter(queries *store.Queries, db *sql.DB, logger *slog.Logger) *Importer {
	return &Importer{store: queries, db: db, logger: logger}
}

// Import loads the export data. The import runs in a transaction and rolls
// back on error, so a failed import leaves the database untouched.
func (i *Importer) Import(ctx context.Context, data *ExportData, opts ImportOptions) (*ImportResult, error) {
	result := NewImportResult(opts.DryRun)

	for _, ve := range i.Validate(data) {
		result.AddError(ve.Entity, ve.Key, ve.Message)
	}
	if len(result.Errors) > 0 {
		return result, errors.New("validation failed")
	}

	if opts.DryRun {
		result.Created["users"] = len(data.Users)
		result.Created["categories"] = len(data.Categories)
		result.Created["tags"] = len(data.Tags)
		result.Created["pages"] = len(data.Pages)
		result.Created["blogs"] = len(data.Blogs)
		result.Created["messages"] = len(data.Messages)
		return result, nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queries := i.store.WithTx(tx)

	// Users first, then taxonomy, then the content that references them.
	userIDs, err := i.importUsers(ctx, queries, data.Users, opts, result)
	if err != nil {
		return result, err
	}
	categoryIDs, err := i.importCategories(ctx, queries, data.Categories, opts, result)
	if err != nil {
		return result, err
	}
	if err := i.importTags(ctx, queries, data.Tags, opts, result); err != nil {
		return result, err
	}
	if err := i.importPages(ctx, queries, data.Pages, opts, result); err != nil {
		return result, err
	}
	if err := i.importBlogs(ctx, queries, data.Blogs, userIDs, categoryIDs, opts, result); err != nil {
		return result, err
	}
	if err := i.importMessages(ctx, queries, data.Messages, userIDs, result); err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("committing import: %w", err)
	}

	i.logger.Info("import complete", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// ImportFromReader decodes JSON export data and imports it.
func (i *Importer) ImportFromReader(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	var data ExportData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding export data: %w", err)
	}
	return i.Import(ctx, &data, opts)
}

// Validate checks the export data for structural problems before import.
func (i *Importer) Validate(data *ExportData) []ImportError {
	var errs []ImportError

	if data.Version != ExportVersion {
		errs = append(errs, ImportError{
			Entity:  "export",
			Key:     data.Version,
			Message: fmt.Sprintf("unsupported export version, want %s", ExportVersion),
		})
	}

	usernames := make(map[string]bool, len(data.Users))
	for _, u := range data.Users {
		if u.Username == "" || u.Email == "" {
			errs = append(errs, ImportError{Entity: "user", Key: u.Username, Message: "username and email are required"})
			continue
		}
		usernames[u.Username] = true
	}

	slugs := make(map[string]bool, len(data.Blogs))
	for _, b := range data.Blogs {
		switch {
		case b.Slug == "" || b.Title == "":
			errs = append(errs, ImportError{Entity: "blog", Key: b.Slug, Message: "title and slug are required"})
		case slugs[b.Slug]:
			errs = append(errs, ImportError{Entity: "blog", Key: b.Slug, Message: "duplicate slug in export"})
		case b.AuthorUsername != "" && len(data.Users) > 0 && !usernames[b.AuthorUsername]:
			errs = append(errs, ImportError{Entity: "blog", Key: b.Slug, Message: "author not in export"})
		}
		slugs[b.Slug] = true
	}

	for _, p := range data.Pages {
		if p.Slug == "" || p.Title == "" {
			errs = append(errs, ImportError{Entity: "page", Key: p.Slug, Message: "title and slug are required"})
		}
	}

	return errs
}

func (i *Importer) importUsers(ctx context.Context, queries *store.Queries, users []ExportUser,
	opts ImportOptions, result *ImportResult) (map[string]int64, error) {

	ids := make(map[string]int64, len(users))
	for _, eu := range users {
		existing, err := queries.GetUserByUsername(ctx, eu.Username)
		if err == nil {
			if !opts.SkipExisting {
				return nil, fmt.Errorf("user %q already exists", eu.Username)
			}
			ids[eu.Username] = existing.ID
			result.Skipped["users"]++
			continue
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("looking up user %q: %w", eu.Username, err)
		}

		passwordHash, err := randomPasswordHash()
		if err != nil {
			return nil, err
		}

		now := time.Now()
		createdAt := eu.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		user, err := queries.CreateUser(ctx, store.CreateUserParams{
			Username:     eu.Username,
			Email:        eu.Email,
			PasswordHash: passwordHash,
			IsSuperuser:  eu.IsSuperuser,
			CreatedAt:    createdAt,
			UpdatedAt:    now,
		})
		if err != nil {
			return nil, fmt.Errorf("creating user %q: %w", eu.Username, err)
		}

		profile := store.CreateProfileParams{UserID: user.ID, CreatedAt: now, UpdatedAt: now}
		if eu.Profile != nil {
			profile.Name = eu.Profile.Name
			profile.Surname = eu.Profile.Surname
		}
		if _, err := queries.CreateProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("creating profile for %q: %w", eu.Username, err)
		}
		if eu.Profile != nil && (eu.Profile.Description != "" || eu.Profile.URL != "") {
			if err := queries.UpdateProfile(ctx, store.UpdateProfileParams{
				Name:        profile.Name,
				Surname:     profile.Surname,
				Description: eu.Profile.Description,
				URL:         eu.Profile.URL,
				UpdatedAt:   now,
				UserID:      user.ID,
			}); err != nil {
				return nil, fmt.Errorf("updating profile for %q: %w", eu.Username, err)
			}
		}

		ids[eu.Username] = user.ID
		result.Created["users"]++
	}
	return ids, nil
}

func (i *Importer) importCategories(ctx context.Context, queries *store.Queries, categories []ExportCategory,
	opts ImportOptions, result *ImportResult) (map[string]int64, error) {

	ids := make(map[string]int64, len(categories))
	for _, ec := range categories {
		existing, err := queries.GetCategoryBySlug(ctx, ec.Slug)
		if err == nil {
			if !opts.SkipExisting {
				return nil, fmt.Errorf("category %q already exists", ec.Slug)
			}
			ids[ec.Slug] = existing.ID
			result.Skipped["categories"]++
			continue
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("looking up category %q: %w", ec.Slug, err)
		}

		category, err := queries.CreateCategory(ctx, store.CreateCategoryParams{Name: ec.Name, Slug: ec.Slug})
		if err != nil {
			return nil, fmt.Errorf("creating category %q: %w", ec.Slug, err)
		}
		ids[ec.Slug] = category.ID
		result.Created["categories"]++
	}
	return ids, nil
}

func (i *Importer) importTags(ctx context.Context, queries *store.Queries, tags []ExportTag,
	opts ImportOptions, result *ImportResult) error {

	for _, et := range tags {
		if _, err := queries.GetTagBySlug(ctx, et.Slug); err == nil {
			result.Skipped["tags"]++
			continue
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("looking up tag %q: %w", et.Slug, err)
		}
		if _, err := queries.CreateTag(ctx, store.CreateTagParams{Name: et.Name, Slug: et.Slug}); err != nil {
			return fmt.Errorf("creating tag %q: %w", et.Slug, err)
		}
		result.Created["tags"]++
	}
	return nil
}

func (i *Importer) importPages(ctx context.Context, queries *store.Queries, pages []ExportPage,
	opts ImportOptions, result *ImportResult) error {

	for _, ep := range pages {
		if _, err := queries.GetPageBySlug(ctx, ep.Slug); err == nil {
			if !opts.SkipExisting {
				return fmt.Errorf("page %q already exists", ep.Slug)
			}
			result.Skipped["pages"]++
			continue
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("looking up page %q: %w", ep.Slug, err)
		}

		now := time.Now()
		createdAt := ep.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := queries.CreatePage(ctx, store.CreatePageParams{
			Title:     ep.Title,
			Content:   ep.Content,
			Slug:      ep.Slug,
			CreatedAt: createdAt,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("creating page %q: %w", ep.Slug, err)
		}
		result.Created["pages"]++
	}
	return nil
}

func (i *Importer) importBlogs(ctx context.Context, queries *store.Queries, blogs []ExportBlog,
	userIDs, categoryIDs map[string]int64, opts ImportOptions, result *ImportResult) error {

	for _, eb := range blogs {
		if _, err := queries.GetBlogBySlug(ctx, eb.Slug); err == nil {
			if !opts.SkipExisting {
				return fmt.Errorf("blog %q already exists", eb.Slug)
			}
			result.Skipped["blogs"]++
			continue
		} else if err != sql.ErrNoRows {
			return fmt.Errorf("looking up blog %q: %w", eb.Slug, err)
		}

		authorID, err := i.resolveUser(ctx, queries, userIDs, eb.AuthorUsername)
		if err != nil {
			return fmt.Errorf("blog %q: %w", eb.Slug, err)
		}
		categoryID, err := i.resolveCategory(ctx, queries, categoryIDs, eb.CategorySlug)
		if err != nil {
			return fmt.Errorf("blog %q: %w", eb.Slug, err)
		}

		now := time.Now()
		createdAt := eb.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		blog, err := queries.CreateBlog(ctx, store.CreateBlogParams{
			Title:      eb.Title,
			Content:    eb.Content,
			AuthorID:   authorID,
			CategoryID: categoryID,
			Published:  eb.Published,
			Slug:       eb.Slug,
			Image:      eb.Image,
			CreatedAt:  createdAt,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("creating blog %q: %w", eb.Slug, err)
		}

		if len(eb.Tags) > 0 {
			tagIDs := make([]int64, 0, len(eb.Tags))
			for _, name := range eb.Tags {
				tag, err := queries.GetOrCreateTag(ctx, store.GetOrCreateTagParams{
					Name: name,
					Slug: util.Slugify(name),
				})
				if err != nil {
					return fmt.Errorf("blog %q tag %q: %w", eb.Slug, name, err)
				}
				tagIDs = append(tagIDs, tag.ID)
			}
			if err := queries.SetBlogTags(ctx, store.SetBlogTagsParams{BlogID: blog.ID, TagIDs: tagIDs}); err != nil {
				return fmt.Errorf("setting tags for blog %q: %w", eb.Slug, err)
			}
		}

		for _, ec := range eb.Comments {
			commentAuthor, err := i.resolveUser(ctx, queries, userIDs, ec.AuthorUsername)
			if err != nil {
				i.logger.Warn("skipping comment with unknown author",
					"blog", eb.Slug, "author", ec.AuthorUsername)
				result.Skipped["comments"]++
				continue
			}
			rating := util.NullInt64FromPtr(ec.Rating)
			createdAt := ec.CreatedAt
			if createdAt.IsZero() {
				createdAt = now
			}
			if _, err := queries.CreateComment(ctx, store.CreateCommentParams{
				BlogID:    blog.ID,
				AuthorID:  commentAuthor,
				Content:   ec.Content,
				Rating:    rating,
				CreatedAt: createdAt,
			}); err != nil {
				return fmt.Errorf("creating comment on %q: %w", eb.Slug, err)
			}
			result.Created["comments"]++
		}

		result.Created["blogs"]++
	}
	return nil
}

// importMessages loads private messages. Messages have no natural key, so
// importing the same dump twice duplicates them.
func (i *Importer) importMessages(ctx context.Context, queries *store.Queries, messages []ExportMessage,
	userIDs map[string]int64, result *ImportResult) error {

	for _, em := range messages {
		senderID, err := i.resolveUser(ctx, queries, userIDs, em.SenderUsername)
		if err != nil {
			result.Skipped["messages"]++
			continue
		}
		receiverID, err := i.resolveUser(ctx, queries, userIDs, em.ReceiverUsername)
		if err != nil {
			result.Skipped["messages"]++
			continue
		}

		sentAt := em.SentAt
		if sentAt.IsZero() {
			sentAt = time.Now()
		}
		msg, err := queries.CreateMessage(ctx, store.CreateMessageParams{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Subject:    em.Subject,
			Content:    em.Content,
			SentAt:     sentAt,
		})
		if err != nil {
			return fmt.Errorf("creating message %q: %w", em.Subject, err)
		}
		if em.Read {
			if err := queries.MarkMessageRead(ctx, msg.ID); err != nil {
				return fmt.Errorf("marking message %q read: %w", em.Subject, err)
			}
		}
		result.Created["messages"]++
	}
	return nil
}

// resolveUser maps a username to an ID, consulting the users created during
// this import first and falling back to the database.
func (i *Importer) resolveUser(ctx context.Context, queries *store.Queries,
	ids map[string]int64, username string) (int64, error) {

	if id, ok := ids[username]; ok {
		return id, nil
	}
	user, err := queries.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("unknown user %q", username)
	}
	return user.ID, nil
}

func (i *Importer) resolveCategory(ctx context.Context, queries *store.Queries,
	ids map[string]int64, slug string) (int64, error) {

	if id, ok := ids[slug]; ok {
		return id, nil
	}
	category, err := queries.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("unknown category %q", slug)
	}
	return category.ID, nil
}

// randomPasswordHash hashes a throwaway random password. Imported accounts
// cannot be logged into until the password is reset.
func randomPasswordHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating random password: %w", err)
	}
	return auth.HashPassword(hex.EncodeToString(buf))
}
