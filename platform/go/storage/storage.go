// Package storage is the narrow port to the object store: hand it bytes and
// a key, get back a public URL. Key layout groups assets by company, entity
// kind, and row id so uploads for one tenant never collide with another's.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Uploader stores a blob under key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// ObjectKey builds the canonical key for an entity image:
// company-{companyID}/{kind}/{entityID}/{uuid}{ext}. The uuid segment keeps
// re-uploads from clobbering each other behind CDN caches.
func ObjectKey(companyID int64, kind string, entityID int64, filename string) (string, error) {
	kind = strings.Trim(strings.TrimSpace(kind), "/")
	if kind == "" {
		return "", fmt.Errorf("object kind is required")
	}
	if companyID <= 0 {
		return "", fmt.Errorf("company id is required")
	}
	if entityID <= 0 {
		return "", fmt.Errorf("entity id is required")
	}

	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("company-%d/%s/%d/%s%s", companyID, kind, entityID, uuid.NewString(), ext), nil
}
