// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

// testTemplatesFS builds a minimal template tree matching the layout the
// renderer expects on disk.
func testTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`{{define "base"}}<html><title>{{.Title}}</title>` +
				`{{template "flash" .}}<body>{{template "content" .}}</body></html>{{end}}`),
		},
		"partials/flash.html": &fstest.MapFile{
			Data: []byte(`{{define "flash"}}{{if .Flash}}<div class="{{.FlashType}}">{{.Flash}}</div>{{end}}{{end}}`),
		},
		"home/index.html": &fstest.MapFile{
			Data: []byte(`{{define "content"}}<h1>welcome {{.Username}}</h1>{{end}}`),
		},
		"blog/list.html": &fstest.MapFile{
			Data: []byte(`{{define "content"}}<ul>{{range .Data}}<li>{{.}}</li>{{end}}</ul>{{end}}`),
		},
	}
}

func TestNew_ParsesTemplates(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplatesFS()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, name := range []string{"home/index", "blog/list"} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
}

func TestRender(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplatesFS()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	err = r.Render(w, req, "home/index", TemplateData{Title: "Home", Username: "alice"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<title>Home</title>") {
		t.Errorf("body missing title: %q", body)
	}
	if !strings.Contains(body, "welcome alice") {
		t.Errorf("body missing content: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := New(Config{TemplatesFS: testTemplatesFS()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	if err := r.Render(w, req, "nope/missing", TemplateData{}); err == nil {
		t.Error("Render should fail for unknown template")
	}
}

func TestTemplateFuncs_Truncate(t *testing.T) {
	funcs := (&Renderer{}).templateFuncs()
	truncate := funcs["truncate"].(func(string, int) string)

	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a longer string here", 8, "a longer..."},
		{"", 5, ""},
		// Multi-byte text must be cut on rune boundaries, not bytes
		{"héllo wörld", 7, "héllo w..."},
		{"日本語のタイトル", 3, "日本語..."},
		{"日本語", 3, "日本語"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.length); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}

func TestTemplateFuncs_Stars(t *testing.T) {
	funcs := (&Renderer{}).templateFuncs()
	stars := funcs["stars"].(func(int64) string)

	tests := []struct {
		rating int64
		want   string
	}{
		{0, "☆☆☆☆☆"},
		{3, "★★★☆☆"},
		{5, "★★★★★"},
		{6, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		if got := stars(tt.rating); got != tt.want {
			t.Errorf("stars(%d) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestTemplateFuncs_Seq(t *testing.T) {
	funcs := (&Renderer{}).templateFuncs()
	seq := funcs["seq"].(func(int, int) []int)

	got := seq(1, 4)
	want := []int{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("seq(1, 4) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("seq(1, 4)[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if got := seq(3, 1); got != nil {
		t.Errorf("seq(3, 1) = %v, want nil", got)
	}
}
