// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage persists uploaded media (featured images) either on the
// local filesystem under the media root or in an S3-compatible bucket.
// Records only keep the storage key; URL resolves it for serving.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Storage is implemented by the local and S3 backends.
type Storage interface {
	// Save writes body under key.
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	// Delete removes the object at key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the address the object is served from. Local storage
	// returns a site-relative path; S3 returns an absolute URL.
	URL(key string) string
}

// Discard removes the object at key once nothing references it any more.
// An empty key or a nil store is a no-op; failures are logged since the
// record change has already been committed.
func Discard(ctx context.Context, s Storage, key string) {
	if key == "" || s == nil {
		return
	}
	if err := s.Delete(ctx, key); err != nil {
		slog.Warn("delete featured image failed", "key", key, "error", err)
	}
}

// ErrUnsupportedType is returned for uploads that are not a permitted image.
var ErrUnsupportedType = errors.New("unsupported file type")

// allowedImages maps permitted MIME types to the extension used in keys.
var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs the content type of r and rewinds it. Only JPEG, PNG,
// GIF and WebP images are accepted.
func DetectImage(r io.ReadSeeker) (contentType, ext string, err error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", "", fmt.Errorf("detect type: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("rewind upload: %w", err)
	}
	ext, ok := allowedImages[mt.String()]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	return mt.String(), ext, nil
}

// NewKey builds a collision-free key for a featured image uploaded at now,
// e.g. "posts/2026/03/0b0f...c1.png".
func NewKey(now time.Time, ext string) string {
	return path.Join("posts", now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
}
