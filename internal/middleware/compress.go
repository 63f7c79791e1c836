package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// compressibleContentTypes lists content types worth compressing. Stored
// images and other binary responses are already compressed and are skipped.
var compressibleContentTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"application/xml",
	"text/xml",
	"image/svg+xml",
}

// Compress gzip-compresses responses for clients that accept it, but only
// when the content type is compressible and the body reaches minSize bytes.
// This keeps the page and CSS routes compressed while leaving the uploaded
// image routes alone.
func Compress(level, minSize int) func(http.Handler) http.Handler {
	pool := &sync.Pool{
		New: func() any {
			gz, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				gz = gzip.NewWriter(io.Discard)
			}
			return gz
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressWriter{
				ResponseWriter: w,
				pool:           pool,
				minSize:        minSize,
			}

			next.ServeHTTP(cw, r)
			cw.flush()
		})
	}
}

// compressWriter buffers the response and decides at flush time whether the
// content type and size justify compression.
type compressWriter struct {
	http.ResponseWriter
	pool       *sync.Pool
	minSize    int
	buffer     []byte
	statusCode int
}

func (cw *compressWriter) WriteHeader(statusCode int) {
	cw.statusCode = statusCode
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	cw.buffer = append(cw.buffer, b...)
	return len(b), nil
}

func (cw *compressWriter) flush() {
	if len(cw.buffer) == 0 {
		if cw.statusCode != 0 {
			cw.ResponseWriter.WriteHeader(cw.statusCode)
		}
		return
	}

	contentType := cw.Header().Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(cw.buffer)
		cw.Header().Set("Content-Type", contentType)
	}
	shouldCompress := len(cw.buffer) >= cw.minSize && isCompressible(contentType)

	if shouldCompress {
		cw.Header().Set("Content-Encoding", "gzip")
		cw.Header().Set("Vary", "Accept-Encoding")
		cw.Header().Del("Content-Length")
	}

	if cw.statusCode != 0 {
		cw.ResponseWriter.WriteHeader(cw.statusCode)
	}

	if shouldCompress {
		gz := cw.pool.Get().(*gzip.Writer)
		gz.Reset(cw.ResponseWriter)
		_, _ = gz.Write(cw.buffer)
		_ = gz.Close()
		cw.pool.Put(gz)
	} else {
		_, _ = cw.ResponseWriter.Write(cw.buffer)
	}
}

// isCompressible checks if the content type should be compressed.
func isCompressible(contentType string) bool {
	if contentType == "" {
		return false
	}

	// Drop parameters such as charset
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	for _, ct := range compressibleContentTypes {
		if strings.EqualFold(contentType, ct) {
			return true
		}
	}

	return strings.HasPrefix(strings.ToLower(contentType), "text/")
}
