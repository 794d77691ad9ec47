// Package blob stores photo binaries. Metadata lives in SQLite; the bytes
// go through a Store so deployments can pick local disk (development,
// tests) or a MinIO/S3 bucket without touching the photo service.
//
// Keys are namespaced per user as "<userID>/<fileID><ext>", so a user's
// objects can be listed or wiped with a single prefix.
package blob

import (
	"context"
	"io"
)

// Store persists photo binaries under string keys.
type Store interface {
	// Put writes size bytes from r under key. The key must not be
	// interpreted: callers own the namespacing.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an
	// error; compensation after a failed upload may race a retry.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL path for the object.
	URL(key string) string
}
