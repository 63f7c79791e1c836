// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging processes uploaded blog and profile images using pure Go
// libraries. Uploads are decoded, bounded to a maximum dimension and
// re-encoded, which also strips any embedded metadata.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/ecomhub/ecomhub/internal/util"
)

// MaxDimension bounds the longest side of a stored image.
const MaxDimension = 1600

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 10 << 20 // 10 MB

// JPEGQuality is the encoding quality for JPEG output.
const JPEGQuality = 90

// ProcessResult contains the result of processing an uploaded image.
type ProcessResult struct {
	Width    int
	Height   int
	MimeType string
	Size     int64
	// RelPath is the stored path relative to the upload directory,
	// suitable for persisting in the database.
	RelPath string
}

// Processor handles image processing operations.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a new image processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{
		uploadDir: uploadDir,
	}
}

// ProcessUpload reads an uploaded image, bounds it to MaxDimension,
// re-encodes it and saves it under subDir with a random filename.
func (p *Processor) ProcessUpload(reader io.Reader, subDir string) (*ProcessResult, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", MaxUploadSize)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Shrink oversized images, never enlarge.
	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
		bounds = img.Bounds()
	}

	processed, outFormat, err := encodeImage(img, format, JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	filename := uuid.New().String() + "." + extensionFor(outFormat)
	relPath, err := p.saveImageFile(subDir, filename, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	return &ProcessResult{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: formatToMimeType(outFormat),
		Size:     int64(len(processed)),
		RelPath:  relPath,
	}, nil
}

// Delete removes a previously stored image. Missing files are not an error,
// so replacing an image stays idempotent.
func (p *Processor) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}

	absTarget, err := util.SafeJoinPath(p.uploadDir, relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(absTarget); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// GetImageDimensions returns the dimensions of a stored image.
func (p *Processor) GetImageDimensions(relPath string) (width, height int, err error) {
	target, err := util.SafeJoinPath(p.uploadDir, relPath)
	if err != nil {
		return 0, 0, err
	}
	file, err := os.Open(target)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Decode config only for efficiency (doesn't decode full image)
	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image config: %w", err)
	}

	return config.Width, config.Height, nil
}

// DetectMimeType detects the MIME type of image data.
func (p *Processor) DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	// http.DetectContentType returns types like "image/jpeg; charset=utf-8"
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// encodeImage encodes an image with the specified format and quality.
// WebP input is re-encoded as JPEG since pure Go cannot encode WebP.
// It returns the encoded bytes and the format actually used.
func encodeImage(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer

	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "png", nil
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "gif", nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "jpeg", nil
	}
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// extensionFor returns the file extension for an encoded format.
func extensionFor(format string) string {
	switch format {
	case "png":
		return "png"
	case "gif":
		return "gif"
	default:
		return "jpg"
	}
}

// formatToMimeType converts format string to MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// saveImageFile creates the directory if needed and saves image data to a
// file, returning the path relative to the upload directory. The target is
// validated to stay within uploadDir.
func (p *Processor) saveImageFile(subDir, filename string, data []byte) (string, error) {
	cleanSubDir := filepath.Clean(subDir)
	if filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subdirectory path")
	}

	absTarget, err := util.SafeJoinPath(p.uploadDir, cleanSubDir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(absTarget, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(absTarget, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filepath.Join(cleanSubDir, filename), nil
}
