// Package blobstore provides the binary storage abstraction for uploaded
// course documents. A BlobStore implementation persists raw file bytes
// under a key and can produce a presigned download URL; the ingestion
// pipeline reads documents back out by key for text extraction.
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// Sentinel errors returned by BlobStore implementations.
var (
	// ErrNotFound indicates no object exists at the given key.
	ErrNotFound = errors.New("blobstore: object not found")

	// ErrInvalidKey indicates the key failed validation (see ValidateKey).
	ErrInvalidKey = errors.New("blobstore: invalid key")
)

// MinExpiration and MaxExpiration bound the lifetime of a presigned URL.
const (
	MinExpiration = 1 * time.Second
	MaxExpiration = 7 * 24 * time.Hour
)

// BlobStore persists and retrieves the raw bytes of uploaded documents.
// Implementations must be safe to call from multiple goroutines.
type BlobStore interface {
	// Upload stores the content read from r under key, with the given
	// content type. Returns ErrInvalidKey if key fails validation.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error

	// Download returns a reader for the object stored at key. The caller
	// must close the returned ReadCloser. Returns ErrNotFound if no
	// object exists at key.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Idempotent — deleting a key that
	// does not exist is not an error.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited URL granting read access to the
	// object at key. expiration is clamped to [MinExpiration, MaxExpiration].
	PresignGet(ctx context.Context, key string, expiration time.Duration) (string, error)

	// Ping verifies connectivity to the backing store, used by readiness probes.
	Ping(ctx context.Context) error
}
