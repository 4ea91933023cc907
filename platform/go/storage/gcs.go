package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSUploader writes objects to a Google Cloud Storage bucket and returns the
// canonical public object URL. The bucket is expected to allow public reads
// (uniform bucket-level access with allUsers objectViewer).
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader wraps an initialized GCS client for the given bucket.
func NewGCSUploader(client *storage.Client, bucket string) *GCSUploader {
	if client == nil {
		panic("gcs uploader requires client")
	}
	if bucket == "" {
		panic("gcs uploader requires bucket")
	}
	return &GCSUploader{client: client, bucket: bucket}
}

func (u *GCSUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %q: %w", key, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, key), nil
}

var _ Uploader = (*GCSUploader)(nil)
