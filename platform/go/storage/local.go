package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader writes objects under a base directory for development. The
// returned URL joins the configured public base URL with the key; serving the
// directory is left to whatever fronts it locally.
type LocalUploader struct {
	baseDir string
	baseURL string
}

// NewLocalUploader builds a LocalUploader rooted at baseDir.
func NewLocalUploader(baseDir, baseURL string) (*LocalUploader, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return nil, fmt.Errorf("base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	return &LocalUploader{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	target := filepath.Join(u.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create object file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write object %q: %w", key, err)
	}

	escaped := make([]string, 0)
	for _, segment := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(segment))
	}

	return u.baseURL + "/" + strings.Join(escaped, "/"), nil
}

var _ Uploader = (*LocalUploader)(nil)
