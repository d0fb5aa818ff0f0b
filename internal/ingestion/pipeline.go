package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/ingestor-go/internal/blobstore"
	"github.com/coursevault/ingestor-go/internal/documents"
	"github.com/coursevault/ingestor-go/internal/pdfextract"
	"github.com/coursevault/ingestor-go/internal/rag"
)

// canceledErr is returned by a cancel checkpoint when the job has moved
// to CANCELED since the pipeline began processing its current document.
var canceledErr = newJobError("ingestion: canceled")

// Pipeline processes one document end-to-end: download, extract, chunk,
// embed, and index (§4.8). Stages are strictly sequential; cancellation
// is observed only at the checkpoints between them, never mid-stage.
type Pipeline struct {
	blobs     blobstore.BlobStore
	embedder  rag.Embedder
	vectors   rag.VectorStore
	jobs      *Registry
	chunkSize int
	overlap   int
	log       *slog.Logger

	// extractAndChunk defaults to pdfextract.ExtractAndChunk; tests
	// substitute a fake to exercise the pipeline without real PDF bytes.
	extractAndChunk func(data []byte, chunkSize, overlap int) ([]string, error)

	// metrics is an optional observability sink; nil-checked at every call site.
	metrics Metrics
}

// SetMetrics attaches an optional Metrics sink.
func (p *Pipeline) SetMetrics(m Metrics) { p.metrics = m }

// stage times fn and reports its duration under name if metrics is set.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if p.metrics != nil {
		p.metrics.PipelineStage(name, time.Since(start))
	}
	return err
}

// NewPipeline constructs a Pipeline. chunkSize/overlap must already
// satisfy pdfextract's validation contract (checked by the serve command
// at startup via ValidateChunkParams).
func NewPipeline(blobs blobstore.BlobStore, embedder rag.Embedder, vectors rag.VectorStore, jobs *Registry, chunkSize, overlap int, log *slog.Logger) *Pipeline {
	return &Pipeline{
		blobs: blobs, embedder: embedder, vectors: vectors, jobs: jobs,
		chunkSize: chunkSize, overlap: overlap, log: log,
		extractAndChunk: func(data []byte, chunkSize, overlap int) ([]string, error) {
			return pdfextract.ExtractAndChunk(bytes.NewReader(data), int64(len(data)), chunkSize, overlap)
		},
	}
}

// Run processes document d as part of job jobID, returning the number of
// vector points upserted. A zero-chunk PDF (no extractable text) is a
// success case returning (0, nil), not an error.
func (p *Pipeline) Run(ctx context.Context, jobID string, d documents.Document) (int, error) {
	var data []byte
	downloadErr := p.stage("download", func() error {
		body, err := p.blobs.Download(ctx, d.BlobKey)
		if err != nil {
			return &StorageError{Op: "download", Err: err}
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		if err != nil {
			return &StorageError{Op: "download", Err: err}
		}
		return nil
	})
	if downloadErr != nil {
		return 0, downloadErr
	}

	if err := p.checkpoint(ctx, jobID); err != nil {
		return 0, err
	}

	var chunks []string
	extractErr := p.stage("extract", func() error {
		var err error
		chunks, err = p.extractAndChunk(data, p.chunkSize, p.overlap)
		if err != nil {
			return &PDFExtractionError{Err: err}
		}
		return nil
	})
	if extractErr != nil {
		return 0, extractErr
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := p.checkpoint(ctx, jobID); err != nil {
		return 0, err
	}

	var vectors [][]float32
	embedErr := p.stage("embed", func() error {
		var err error
		vectors, err = p.embedder.EmbedBatch(ctx, chunks)
		if err != nil {
			return &EmbeddingError{Err: err}
		}
		if len(vectors) != len(chunks) {
			return &EmbeddingError{Err: fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))}
		}
		return nil
	})
	if embedErr != nil {
		return 0, embedErr
	}

	if err := p.checkpoint(ctx, jobID); err != nil {
		return 0, err
	}

	points := make([]rag.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = rag.Point{
			ID:         uuid.NewString(),
			CourseCode: d.CourseCode,
			DocumentID: d.ID,
			ChunkIndex: i,
			ChunkText:  chunk,
			Metadata: map[string]string{
				"filename":    d.Filename,
				"uploaded_by": d.UploadedBy,
			},
		}
	}

	indexErr := p.stage("index", func() error {
		// From here on, a failure must attempt best-effort vector cleanup so
		// a half-written document never leaves a partial index state behind.
		if err := p.vectors.DeleteByDocument(ctx, d.ID); err != nil {
			p.cleanupBestEffort(ctx, d.ID)
			return &VectorStoreError{Op: "delete_by_document", Err: err}
		}
		if err := p.vectors.Upsert(ctx, points, vectors); err != nil {
			p.cleanupBestEffort(ctx, d.ID)
			return &VectorStoreError{Op: "upsert", Err: err}
		}
		return nil
	})
	if indexErr != nil {
		return 0, indexErr
	}

	return len(points), nil
}

// checkpoint rereads the job's status and returns canceledErr if it has
// moved to CANCELED. There is no mid-stage abort — only these points
// between stages observe cancellation.
func (p *Pipeline) checkpoint(ctx context.Context, jobID string) error {
	j, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Canceled() {
		return canceledErr
	}
	return nil
}

// cleanupBestEffort attempts to remove any partially-written vectors for
// documentID after a failure past the delete-existing step. Its own
// failure is logged but never overrides the original error.
func (p *Pipeline) cleanupBestEffort(ctx context.Context, documentID string) {
	if err := p.vectors.DeleteByDocument(ctx, documentID); err != nil {
		p.log.Warn("ingestion: best-effort vector cleanup failed",
			slog.String("document_id", documentID),
			slog.Any("error", err),
		)
	}
}
