package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAppendTrailingSlash(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := AppendTrailingSlash(handler)

	tests := []struct {
		name         string
		method       string
		path         string
		query        string
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "GET without slash redirects",
			method:       http.MethodGet,
			path:         "/pages/blog",
			wantStatus:   http.StatusMovedPermanently,
			wantLocation: "/pages/blog/",
		},
		{
			name:       "GET with slash passes through",
			method:     http.MethodGet,
			path:       "/pages/blog/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "root passes through",
			method:     http.MethodGet,
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:         "query string preserved",
			method:       http.MethodGet,
			path:         "/pages/blog/search",
			query:        "q=golang",
			wantStatus:   http.StatusMovedPermanently,
			wantLocation: "/pages/blog/search/?q=golang",
		},
		{
			name:       "file path passes through",
			method:     http.MethodGet,
			path:       "/static/css/site.css",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST is never redirected",
			method:     http.MethodPost,
			path:       "/pages/blog/add",
			wantStatus: http.StatusOK,
		},
		{
			name:         "HEAD without slash redirects",
			method:       http.MethodHead,
			path:         "/messages",
			wantStatus:   http.StatusMovedPermanently,
			wantLocation: "/messages/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := tt.path
			if tt.query != "" {
				target += "?" + tt.query
			}
			req := httptest.NewRequest(tt.method, target, nil)
			rr := httptest.NewRecorder()

			wrapped.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" {
				if loc := rr.Header().Get("Location"); loc != tt.wantLocation {
					t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
				}
			}
		})
	}
}
