package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// unsafePathChars strips characters that are invalid in filenames on at
// least one supported platform
var unsafePathChars = regexp.MustCompile(`[/\\:*?"<>|]`)

// ThumbnailFetcher downloads remote thumbnails next to the media files.
// Thumbnail absence is never fatal: every failure is logged and yields
// an empty path.
type ThumbnailFetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewThumbnailFetcher creates a thumbnail fetcher
func NewThumbnailFetcher(logger *zap.Logger) *ThumbnailFetcher {
	return &ThumbnailFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Fetch downloads the thumbnail at rawURL into destDir/thumbnails and
// returns the local path. Returns "" when rawURL is empty, on any
// failure, and leaves an already-fetched file untouched.
func (f *ThumbnailFetcher) Fetch(ctx context.Context, rawURL, id, title, destDir string) string {
	if rawURL == "" {
		return ""
	}

	thumbDir := filepath.Join(destDir, "thumbnails")
	if err := os.MkdirAll(thumbDir, 0755); err != nil {
		f.logger.Warn("Failed to create thumbnails directory", zap.Error(err))
		return ""
	}

	ext := ".jpg"
	if u, err := url.Parse(rawURL); err == nil {
		if e := filepath.Ext(u.Path); e != "" {
			ext = e
		}
	}

	safeID := unsafePathChars.ReplaceAllString(id, "")
	safeTitle := unsafePathChars.ReplaceAllString(title, "")
	target := filepath.Join(thumbDir, safeTitle+"_"+safeID+ext)

	// Idempotent: skip the network call when the file already exists
	if _, err := os.Stat(target); err == nil {
		return target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		f.logger.Warn("Failed to build thumbnail request", zap.String("url", rawURL), zap.Error(err))
		return ""
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("Thumbnail fetch failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("Thumbnail fetch returned non-OK status",
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode))
		return ""
	}

	out, err := os.Create(target)
	if err != nil {
		f.logger.Warn("Failed to create thumbnail file", zap.String("path", target), zap.Error(err))
		return ""
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		f.logger.Warn("Failed to write thumbnail", zap.String("path", target), zap.Error(err))
		os.Remove(target)
		return ""
	}

	return target
}
