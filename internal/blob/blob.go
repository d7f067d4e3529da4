// Package blob stores uploaded file content keyed by sanitized name.
// Two implementations: MinIO for production and an afero-backed local
// directory for development and tests.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no content exists for the key.
var ErrNotFound = errors.New("object not found")

// Store persists raw file content. Remove tolerates missing objects.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error

	// Rename moves content from oldKey to newKey, replacing any existing
	// object at newKey. Used to promote staged uploads after the metadata
	// write commits.
	Rename(ctx context.Context, oldKey, newKey string) error
}
