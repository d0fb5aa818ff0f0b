package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coursevault/ingestor-go/internal/blobstore"
	"github.com/coursevault/ingestor-go/internal/rag"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBlobStore serves fixed content per key, or ErrNotFound if the key
// is marked unreachable.
type fakeBlobStore struct {
	mu          sync.Mutex
	content     map[string][]byte
	unreachable map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{content: make(map[string][]byte), unreachable: make(map[string]bool)}
}

func (f *fakeBlobStore) put(key string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content[key] = body
}

func (f *fakeBlobStore) markUnreachable(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreachable[key] = true
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.put(key, data)
	return nil
}

func (f *fakeBlobStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable[key] {
		return nil, blobstore.ErrNotFound
	}
	data, ok := f.content[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.content, key)
	return nil
}

func (f *fakeBlobStore) PresignGet(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return "fake://" + key, nil
}

func (f *fakeBlobStore) Ping(ctx context.Context) error { return nil }

// fakeEmbedder returns one zero-valued vector of a fixed dimension per
// input text, unless configured to always fail.
type fakeEmbedder struct {
	dim     int
	failErr error
}

func newFakeEmbedder(dim int) *fakeEmbedder { return &fakeEmbedder{dim: dim} }

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.failErr != nil {
		return nil, e.failErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dim)
	}
	return out, nil
}

func (e *fakeEmbedder) Dimension() int { return e.dim }

// fakeVectorStore tracks points per document_id, keyed in insertion order.
type fakeVectorStore struct {
	mu                   sync.Mutex
	byDocument           map[string][]rag.Point
	failUpsert           bool
	failEnsureCollection bool
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{byDocument: make(map[string][]rag.Point)}
}

func (v *fakeVectorStore) EnsureCollection(ctx context.Context, dim uint64) error {
	if v.failEnsureCollection {
		return errors.New("vector store unreachable")
	}
	return nil
}

func (v *fakeVectorStore) Upsert(ctx context.Context, points []rag.Point, vectors [][]float32) error {
	if v.failUpsert {
		return errors.New("vector store unavailable")
	}
	if len(points) != len(vectors) {
		return errors.New("length mismatch")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range points {
		v.byDocument[p.DocumentID] = append(v.byDocument[p.DocumentID], p)
	}
	return nil
}

func (v *fakeVectorStore) Search(ctx context.Context, q []float32, courseCode string, limit int) ([]rag.Point, error) {
	return nil, nil
}

func (v *fakeVectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.byDocument, documentID)
	return nil
}

func (v *fakeVectorStore) Close() error { return nil }

func (v *fakeVectorStore) countFor(documentID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.byDocument[documentID])
}

func (v *fakeVectorStore) total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, pts := range v.byDocument {
		n += len(pts)
	}
	return n
}
