// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// AppendTrailingSlash redirects GET and HEAD requests without a trailing
// slash to their slash-terminated equivalents (HTTP 301). Canonical URLs
// in this application end with a slash. Other methods pass through
// untouched so form posts are never redirected with their body dropped.
func AppendTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		// Paths whose last segment has an extension are files, not pages
		last := path[strings.LastIndexByte(path, '/')+1:]
		if (r.Method == http.MethodGet || r.Method == http.MethodHead) &&
			path != "/" && !strings.HasSuffix(path, "/") &&
			!strings.Contains(last, ".") {
			newURL := path + "/"
			if r.URL.RawQuery != "" {
				newURL += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, newURL, http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}
