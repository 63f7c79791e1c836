// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ecomhub/ecomhub/internal/store"
)

// Exporter dumps site content into the export format.
type Exporter struct {
	store  *store.Queries
	logger *slog.Logger
}

// NewExporter creates a new Exporter instance.
func NewExporter(queries *store.Queries, logger *slog.Logger) *Exporter {
	return &Exporter{store: queries, logger: logger}
}

// Export generates an ExportData structure based on the provided options.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*ExportData, error) {
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
	}

	if opts.IncludeUsers {
		if err := e.exportUsers(ctx, data); err != nil {
			return nil, fmt.Errorf("exporting users: %w", err)
		}
	}
	if opts.IncludeTaxonomy {
		if err := e.exportTaxonomy(ctx, data); err != nil {
			return nil, fmt.Errorf("exporting taxonomy: %w", err)
		}
	}
	if opts.IncludePages {
		if err := e.exportPages(ctx, data); err != nil {
			return nil, fmt.Errorf("exporting pages: %w", err)
		}
	}
	if opts.IncludeBlogs {
		if err := e.exportBlogs(ctx, data, opts.IncludeComments); err != nil {
			return nil, fmt.Errorf("exporting blogs: %w", err)
		}
	}
	if opts.IncludeMessages {
		if err := e.exportMessages(ctx, data); err != nil {
			return nil, fmt.Errorf("exporting messages: %w", err)
		}
	}

	e.logger.Info("export complete",
		"users", len(data.Users),
		"categories", len(data.Categories),
		"tags", len(data.Tags),
		"pages", len(data.Pages),
		"blogs", len(data.Blogs),
		"messages", len(data.Messages),
	)
	return data, nil
}

// ExportToWriter exports content as indented JSON.
func (e *Exporter) ExportToWriter(ctx context.Context, opts ExportOptions, w io.Writer) error {
	data, err := e.Export(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (e *Exporter) exportUsers(ctx context.Context, data *ExportData) error {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		eu := ExportUser{
			Username:    u.Username,
			Email:       u.Email,
			IsSuperuser: u.IsSuperuser,
			CreatedAt:   u.CreatedAt,
		}
		profile, err := e.store.GetProfileByUserID(ctx, u.ID)
		if err == nil {
			eu.Profile = &ExportProfile{
				Name:        profile.Name,
				Surname:     profile.Surname,
				Description: profile.Description,
				URL:         profile.URL,
			}
		}
		data.Users = append(data.Users, eu)
	}
	return nil
}

func (e *Exporter) exportTaxonomy(ctx context.Context, data *ExportData) error {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		data.Categories = append(data.Categories, ExportCategory{Name: c.Name, Slug: c.Slug})
	}

	tags, err := e.store.ListTags(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		data.Tags = append(data.Tags, ExportTag{Name: t.Name, Slug: t.Slug})
	}
	return nil
}

func (e *Exporter) exportPages(ctx context.Context, data *ExportData) error {
	pages, err := e.store.ListPages(ctx)
	if err != nil {
		return err
	}
	for _, p := range pages {
		data.Pages = append(data.Pages, ExportPage{
			Title:     p.Title,
			Slug:      p.Slug,
			Content:   p.Content,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return nil
}

func (e *Exporter) exportBlogs(ctx context.Context, data *ExportData, includeComments bool) error {
	blogs, err := e.store.ListBlogs(ctx)
	if err != nil {
		return err
	}
	usernames, err := e.usernamesByID(ctx)
	if err != nil {
		return err
	}

	for _, b := range blogs {
		eb := ExportBlog{
			Title:          b.Title,
			Slug:           b.Slug,
			Content:        b.Content,
			AuthorUsername: usernames[b.AuthorID],
			Published:      b.Published,
			Image:          b.Image,
			CreatedAt:      b.CreatedAt,
			UpdatedAt:      b.UpdatedAt,
		}

		if category, err := e.store.GetCategoryByID(ctx, b.CategoryID); err == nil {
			eb.CategorySlug = category.Slug
		}

		tags, err := e.store.GetTagsForBlog(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, t := range tags {
			eb.Tags = append(eb.Tags, t.Name)
		}

		if includeComments {
			comments, err := e.store.ListCommentsForBlog(ctx, b.ID)
			if err != nil {
				return err
			}
			for _, c := range comments {
				ec := ExportComment{
					AuthorUsername: c.AuthorName,
					Content:        c.Content,
					CreatedAt:      c.CreatedAt,
				}
				if c.Rating.Valid {
					rating := c.Rating.Int64
					ec.Rating = &rating
				}
				eb.Comments = append(eb.Comments, ec)
			}
		}

		data.Blogs = append(data.Blogs, eb)
	}
	return nil
}

func (e *Exporter) exportMessages(ctx context.Context, data *ExportData) error {
	usernames, err := e.usernamesByID(ctx)
	if err != nil {
		return err
	}

	rows, err := e.store.ListMessages(ctx)
	if err != nil {
		return err
	}
	for _, m := range rows {
		data.Messages = append(data.Messages, ExportMessage{
			SenderUsername:   usernames[m.SenderID],
			ReceiverUsername: usernames[m.ReceiverID],
			Subject:          m.Subject,
			Content:          m.Content,
			Read:             m.Read,
			SentAt:           m.SentAt,
		})
	}
	return nil
}

func (e *Exporter) usernamesByID(ctx context.Context) (map[int64]string, error) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]string, len(users))
	for _, u := range users {
		m[u.ID] = u.Username
	}
	return m, nil
}
