package ingestion

import (
	"errors"
	"fmt"
)

// Sentinel and typed errors surfaced across the ingestion job engine.
// Per-document errors (Storage/PDFExtraction/Embedding/VectorStore) are
// caught by the orchestrator and recorded as a document failure; they
// never reach the Submission API. Per-job errors (IngestionJobError,
// IngestionJobNotFoundError, CourseNotFoundError) propagate to callers.
var (
	// ErrJobNotFound indicates no job exists with the given ID.
	ErrJobNotFound = errors.New("ingestion: job not found")

	// ErrCourseNotFound indicates job creation was attempted against a
	// course with no documents registered.
	ErrCourseNotFound = errors.New("ingestion: course not found")
)

// JobError represents an illegal state transition, a missing required
// input (e.g. mode=SELECTED with no document_ids), or a cooperative
// cancellation observed mid-pipeline. It always maps to HTTP 400 at the
// API boundary, except where a job-not-found case is raised instead.
type JobError struct {
	Message string
}

func (e *JobError) Error() string { return e.Message }

func newJobError(format string, args ...any) *JobError {
	return &JobError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a blob store failure encountered during the
// document pipeline (download/delete/upsert-time cleanup).
type StorageError struct {
	Op  string // "download", "delete", "upload", "presign"
	Err error
}

func (e *StorageError) Error() string { return "ingestion: storage " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// PDFExtractionError wraps a PDF parse or chunk-parameter failure.
type PDFExtractionError struct {
	Err error
}

func (e *PDFExtractionError) Error() string { return "ingestion: pdf extraction: " + e.Err.Error() }
func (e *PDFExtractionError) Unwrap() error { return e.Err }

// EmbeddingError wraps an embedder adapter failure.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return "ingestion: embedding: " + e.Err.Error() }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// VectorStoreError wraps a vector store adapter failure.
type VectorStoreError struct {
	Op  string // "delete_by_document", "upsert", "ensure_collection"
	Err error
}

func (e *VectorStoreError) Error() string {
	return "ingestion: vector store " + e.Op + ": " + e.Err.Error()
}
func (e *VectorStoreError) Unwrap() error { return e.Err }
