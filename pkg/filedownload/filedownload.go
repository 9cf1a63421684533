// Package filedownload fetches files referenced by URL in webhook payloads.
package filedownload

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const (
	maxSize      = 50 * 1024 * 1024
	fetchTimeout = 30 * time.Second
	userAgent    = "Cosmetic-Agent/1.0"
)

// Downloader fetches remote files with a size cap and timeout.
type Downloader struct {
	client *http.Client
}

// New builds a Downloader with the default timeout.
func New() *Downloader {
	return &Downloader{client: &http.Client{Timeout: fetchTimeout}}
}

// Download fetches the file at rawURL and returns its content.
func (d *Downloader) Download(rawURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if len(data) > maxSize {
		return nil, fmt.Errorf("downloading %s: file exceeds %d bytes", rawURL, maxSize)
	}
	return data, nil
}

// FileExtension returns the lower-cased extension of the URL path, without
// the dot, or "" when there is none.
func FileExtension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MimeType maps a file extension to its MIME type, defaulting to
// application/octet-stream.
func MimeType(extension string) string {
	switch strings.ToLower(extension) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}
