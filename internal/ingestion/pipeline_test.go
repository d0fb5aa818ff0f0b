package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/coursevault/ingestor-go/internal/documents"
)

func threeChunkExtractor(data []byte, chunkSize, overlap int) ([]string, error) {
	return []string{"chunk one", "chunk two", "chunk three"}, nil
}

func zeroChunkExtractor(data []byte, chunkSize, overlap int) ([]string, error) {
	return nil, nil
}

func newTestPipeline(t *testing.T, blobs *fakeBlobStore, embedder *fakeEmbedder, vectors *fakeVectorStore, jobs *Registry, extract func([]byte, int, int) ([]string, error)) *Pipeline {
	t.Helper()
	p := NewPipeline(blobs, embedder, vectors, jobs, 1000, 150, discardLogger())
	p.extractAndChunk = extract
	return p
}

func mustCreateQueuedJob(t *testing.T, jobs *Registry, id string) Job {
	t.Helper()
	j, err := jobs.Create(context.Background(), Job{ID: id, CourseCode: "CS101", Mode: ModeAll, MaxRetries: 3})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return j
}

func Test_Pipeline_Run_Success(t *testing.T) {
	t.Parallel()
	jobs := NewRegistry(newTestDB(t))
	job := mustCreateQueuedJob(t, jobs, "job-1")
	if _, _, err := jobs.Claim(context.Background(), job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	blobs := newFakeBlobStore()
	blobs.put("documents/CS101/doc-1/a.pdf", []byte("pdf-bytes"))
	vectors := newFakeVectorStore()
	p := newTestPipeline(t, blobs, newFakeEmbedder(8), vectors, jobs, threeChunkExtractor)

	doc := documents.Document{ID: "doc-1", CourseCode: "CS101", Filename: "a.pdf", BlobKey: "documents/CS101/doc-1/a.pdf"}
	n, err := p.Run(context.Background(), job.ID, doc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 vectors, got %d", n)
	}
	if vectors.countFor("doc-1") != 3 {
		t.Fatalf("expected 3 points indexed, got %d", vectors.countFor("doc-1"))
	}
}

func Test_Pipeline_Run_ZeroChunksIsSuccess(t *testing.T) {
	t.Parallel()
	jobs := NewRegistry(newTestDB(t))
	job := mustCreateQueuedJob(t, jobs, "job-1")
	if _, _, err := jobs.Claim(context.Background(), job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	blobs := newFakeBlobStore()
	blobs.put("documents/CS101/doc-1/a.pdf", []byte("pdf-bytes"))
	vectors := newFakeVectorStore()
	p := newTestPipeline(t, blobs, newFakeEmbedder(8), vectors, jobs, zeroChunkExtractor)

	doc := documents.Document{ID: "doc-1", CourseCode: "CS101", Filename: "a.pdf", BlobKey: "documents/CS101/doc-1/a.pdf"}
	n, err := p.Run(context.Background(), job.ID, doc)
	if err != nil {
		t.Fatalf("expected no error for zero-chunk pdf, got %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 vectors, got %d", n)
	}
}

func Test_Pipeline_Run_UnreachableBlobIsStorageError(t *testing.T) {
	t.Parallel()
	jobs := NewRegistry(newTestDB(t))
	job := mustCreateQueuedJob(t, jobs, "job-1")
	if _, _, err := jobs.Claim(context.Background(), job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	blobs := newFakeBlobStore()
	blobs.markUnreachable("documents/CS101/doc-1/a.pdf")
	vectors := newFakeVectorStore()
	p := newTestPipeline(t, blobs, newFakeEmbedder(8), vectors, jobs, threeChunkExtractor)

	doc := documents.Document{ID: "doc-1", CourseCode: "CS101", Filename: "a.pdf", BlobKey: "documents/CS101/doc-1/a.pdf"}
	_, err := p.Run(context.Background(), job.ID, doc)
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func Test_Pipeline_Run_CancelCheckpointAbandons(t *testing.T) {
	t.Parallel()
	jobs := NewRegistry(newTestDB(t))
	job := mustCreateQueuedJob(t, jobs, "job-1")
	if _, _, err := jobs.Claim(context.Background(), job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := jobs.Cancel(context.Background(), job.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	blobs := newFakeBlobStore()
	blobs.put("documents/CS101/doc-1/a.pdf", []byte("pdf-bytes"))
	vectors := newFakeVectorStore()
	p := newTestPipeline(t, blobs, newFakeEmbedder(8), vectors, jobs, threeChunkExtractor)

	doc := documents.Document{ID: "doc-1", CourseCode: "CS101", Filename: "a.pdf", BlobKey: "documents/CS101/doc-1/a.pdf"}
	_, err := p.Run(context.Background(), job.ID, doc)
	if !errors.Is(err, canceledErr) {
		t.Fatalf("expected canceledErr, got %v", err)
	}
	if vectors.countFor("doc-1") != 0 {
		t.Fatalf("expected no vectors written after cancel checkpoint, got %d", vectors.countFor("doc-1"))
	}
}

func Test_Pipeline_Run_UpsertFailureCleansUpBestEffort(t *testing.T) {
	t.Parallel()
	jobs := NewRegistry(newTestDB(t))
	job := mustCreateQueuedJob(t, jobs, "job-1")
	if _, _, err := jobs.Claim(context.Background(), job.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}

	blobs := newFakeBlobStore()
	blobs.put("documents/CS101/doc-1/a.pdf", []byte("pdf-bytes"))
	vectors := newFakeVectorStore()
	vectors.failUpsert = true
	p := newTestPipeline(t, blobs, newFakeEmbedder(8), vectors, jobs, threeChunkExtractor)

	doc := documents.Document{ID: "doc-1", CourseCode: "CS101", Filename: "a.pdf", BlobKey: "documents/CS101/doc-1/a.pdf"}
	_, err := p.Run(context.Background(), job.ID, doc)
	var vecErr *VectorStoreError
	if !errors.As(err, &vecErr) {
		t.Fatalf("expected VectorStoreError, got %v", err)
	}
	if vectors.countFor("doc-1") != 0 {
		t.Fatalf("expected no residual points after cleanup, got %d", vectors.countFor("doc-1"))
	}
}
