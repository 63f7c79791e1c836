// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/ecomhub/ecomhub/internal/imaging"
	"github.com/ecomhub/ecomhub/internal/middleware"
	"github.com/ecomhub/ecomhub/internal/render"
	"github.com/ecomhub/ecomhub/internal/service"
	"github.com/ecomhub/ecomhub/internal/store"
	"github.com/ecomhub/ecomhub/internal/testutil"
	"github.com/ecomhub/ecomhub/internal/util"
	"github.com/ecomhub/ecomhub/web"
)

const testPassword = "correct-horse-battery"

// testApp spins up the full route stack against a migrated test database
// so tests exercise the same middleware chain the server runs.
type testApp struct {
	t       *testing.T
	db      *sql.DB
	queries *store.Queries
	users   *service.UserService
	srv     *httptest.Server
	// mediaDir is where the imaging processor writes uploads.
	mediaDir string

	// client keeps cookies, so a login persists across requests.
	client *http.Client
	// bare never follows redirects, for asserting status and Location.
	bare *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sm := scs.New()
	sm.Lifetime = 24 * time.Hour

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("templates fs: %v", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	eventService := service.NewEventService(db)
	userService := service.NewUserService(db, eventService)
	mediaDir := t.TempDir()

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	RegisterRoutes(r, RouterDeps{
		DB:              db,
		Renderer:        renderer,
		SessionManager:  sm,
		UserService:     userService,
		EventService:    eventService,
		LoginProtection: middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig()),
		Images:          imaging.NewProcessor(mediaDir),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}

	return &testApp{
		t:        t,
		db:       db,
		queries:  store.New(db),
		users:    userService,
		srv:      srv,
		mediaDir: mediaDir,
		client:   &http.Client{Jar: jar},
		bare: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *testApp) createUser(username string, superuser bool) store.User {
	a.t.Helper()
	user, err := a.users.CreateUser(context.Background(), service.CreateUserParams{
		Username:    username,
		Email:       username + "@example.com",
		Password:    testPassword,
		IsSuperuser: superuser,
	})
	if err != nil {
		a.t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

func (a *testApp) login(username string) {
	a.t.Helper()
	resp := a.postForm(RouteLogin, url.Values{
		"username": {username},
		"password": {testPassword},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		a.t.Fatalf("login as %s: status %d", username, resp.StatusCode)
	}
}

func (a *testApp) logout() {
	a.t.Helper()
	resp := a.postForm(RouteLogout, url.Values{})
	defer resp.Body.Close()
}

func (a *testApp) get(path string) *http.Response {
	a.t.Helper()
	resp, err := a.client.Get(a.srv.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// getBare issues a GET without following redirects.
func (a *testApp) getBare(path string) *http.Response {
	a.t.Helper()
	resp, err := a.bare.Get(a.srv.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (a *testApp) postForm(path string, form url.Values) *http.Response {
	a.t.Helper()
	resp, err := a.client.PostForm(a.srv.URL+path, form)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// postFormBare issues a POST without following redirects.
func (a *testApp) postFormBare(path string, form url.Values) *http.Response {
	a.t.Helper()
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		a.t.Fatalf("building POST %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.bare.Do(req)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(body)
}

func (a *testApp) createCategory(name string) store.Category {
	a.t.Helper()
	category, err := a.queries.CreateCategory(context.Background(), store.CreateCategoryParams{
		Name: name,
		Slug: util.Slugify(name),
	})
	if err != nil {
		a.t.Fatalf("creating category %s: %v", name, err)
	}
	return category
}

func (a *testApp) createBlog(authorID, categoryID int64, title string, published bool) store.Blog {
	a.t.Helper()
	now := time.Now()
	blog, err := a.queries.CreateBlog(context.Background(), store.CreateBlogParams{
		Title:      title,
		Content:    "Body for " + title + ", long enough to pass validation.",
		AuthorID:   authorID,
		CategoryID: categoryID,
		Published:  published,
		Slug:       util.Slugify(title),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		a.t.Fatalf("creating blog %s: %v", title, err)
	}
	return blog
}

func (a *testApp) sendMessage(senderID, receiverID int64, subject string) store.Message {
	a.t.Helper()
	msg, err := a.queries.CreateMessage(context.Background(), store.CreateMessageParams{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Subject:    subject,
		Content:    "Message body for " + subject,
		SentAt:     time.Now(),
	})
	if err != nil {
		a.t.Fatalf("creating message: %v", err)
	}
	return msg
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Errorf("status = %d; want %d", resp.StatusCode, want)
	}
}
