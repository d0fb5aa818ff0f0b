package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore implements BlobStore using an in-memory map. Used by tests
// that exercise the ingestion pipeline and document registry without a
// real S3/MinIO backend.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore constructs an empty in-memory BlobStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload stores the content read from r under key.
func (m *MemoryStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("blobstore: read content: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

// Download returns a reader for the object stored at key.
func (m *MemoryStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the object at key. Idempotent.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// PresignGet returns a fake but stable URL for the object at key, for use
// in tests that only assert a non-empty URL was produced.
func (m *MemoryStore) PresignGet(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	expiration = clampExpiration(expiration)
	return fmt.Sprintf("memory://%s?expires_in=%d", key, int(expiration.Seconds())), nil
}

// Ping always succeeds for the in-memory store.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
