// Package assets stores uploaded course images and files and returns their
// public URLs.
package assets

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"learnhub/backend/apperr"
)

const MaxAssetBytes = 10 << 20

// Asset is either raw bytes or a URL to copy from.
type Asset struct {
	Data        []byte
	SourceURL   string
	Name        string
	ContentType string
}

type Uploader interface {
	Upload(ctx context.Context, a Asset, folder string) (string, error)
}

var fetchClient = &http.Client{Timeout: 30 * time.Second}

// resolve returns the bytes to store, downloading SourceURL when no Data is
// given.
func resolve(ctx context.Context, a Asset) ([]byte, string, error) {
	if len(a.Data) > 0 {
		if len(a.Data) > MaxAssetBytes {
			return nil, "", apperr.NewValidation(map[string]string{"file": "exceeds 10 MiB"})
		}
		return a.Data, contentType(a), nil
	}
	if strings.TrimSpace(a.SourceURL) == "" {
		return nil, "", apperr.NewValidation(map[string]string{"file": "file or url is required"})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.SourceURL, nil)
	if err != nil {
		return nil, "", apperr.NewValidation(map[string]string{"url": "invalid url"})
	}
	resp, err := fetchClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", a.SourceURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: status %d: %w", a.SourceURL, resp.StatusCode, apperr.ErrNotFound)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", a.SourceURL, err)
	}
	if len(data) > MaxAssetBytes {
		return nil, "", apperr.NewValidation(map[string]string{"url": "exceeds 10 MiB"})
	}
	if a.ContentType == "" {
		a.ContentType = resp.Header.Get("Content-Type")
	}
	if a.Name == "" {
		a.Name = path.Base(req.URL.Path)
	}
	return data, contentType(a), nil
}

func contentType(a Asset) string {
	if a.ContentType != "" {
		return a.ContentType
	}
	if ct := mime.TypeByExtension(path.Ext(a.Name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// objectName is folder/<uuid><ext>. The extension comes from the name, or
// from the content type when the name has none.
func objectName(folder, name, ct string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		folder = "uploads"
	}
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return folder + "/" + uuid.NewString() + ext
}

func publicURL(base, object string) string {
	return strings.TrimRight(base, "/") + "/" + object
}
