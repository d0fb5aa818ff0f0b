package documents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/ingestor-go/internal/blobstore"
	"github.com/coursevault/ingestor-go/internal/rag"
)

// defaultPresignTTL is used when GetDownloadURL is called without an
// explicit expiration override.
const defaultPresignTTL = 15 * time.Minute

// Service composes the Registry with the blob store and vector store to
// implement the upload/delete compensation protocol (§9): a blob write
// and a registry write never commit atomically together, so each side
// attempts a best-effort compensating action on the other's failure.
type Service struct {
	registry *Registry
	blobs    blobstore.BlobStore
	vectors  rag.VectorStore
	log      *slog.Logger
}

// NewService constructs a Service. vectors may be nil if delete-time
// vector cleanup is handled elsewhere (e.g. tests that only exercise the
// upload path).
func NewService(registry *Registry, blobs blobstore.BlobStore, vectors rag.VectorStore, log *slog.Logger) *Service {
	return &Service{registry: registry, blobs: blobs, vectors: vectors, log: log}
}

// CreateInput is the request to register a newly uploaded document.
type CreateInput struct {
	CourseCode  string
	Filename    string
	Content     io.Reader
	ContentType string
	FileSize    int64
	UploadedBy  string
}

// Create uploads the document's bytes to the blob store, then inserts its
// registry row. If the registry insert fails, the blob is deleted as a
// best-effort compensating action — its failure is logged, not raised,
// since the original insert error is what the caller needs to see.
func (s *Service) Create(ctx context.Context, in CreateInput) (Document, error) {
	courseCode, err := NormalizeCourseCode(in.CourseCode)
	if err != nil {
		return Document{}, err
	}
	safeName, err := SanitizeFilename(in.Filename)
	if err != nil {
		return Document{}, err
	}

	id := uuid.NewString()
	blobKey := fmt.Sprintf("documents/%s/%s/%s", courseCode, id, safeName)

	if err := s.blobs.Upload(ctx, blobKey, in.Content, in.ContentType); err != nil {
		return Document{}, fmt.Errorf("documents: upload failed: %w", err)
	}

	doc := Document{
		ID:          id,
		CourseCode:  courseCode,
		Filename:    in.Filename,
		BlobKey:     blobKey,
		ContentType: in.ContentType,
		FileSize:    in.FileSize,
		Status:      StatusUploaded,
		UploadedBy:  in.UploadedBy,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.registry.Insert(ctx, doc); err != nil {
		if delErr := s.blobs.Delete(ctx, blobKey); delErr != nil {
			s.log.Error("documents: compensating blob delete failed",
				slog.String("document_id", id),
				slog.String("blob_key", blobKey),
				slog.Any("error", delErr),
			)
		} else {
			s.log.Info("documents: compensating blob delete succeeded",
				slog.String("document_id", id),
				slog.String("blob_key", blobKey),
			)
		}
		return Document{}, fmt.Errorf("documents: failed to save document metadata: %w", err)
	}

	return doc, nil
}

// Delete removes a document's blob, vectors, and registry row, in that
// order. The blob delete is a hard failure; the vector delete is
// best-effort (logged, not raised) since orphaned vectors are harmless
// and will be cleaned up by a future re-ingestion or retry of this call.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.registry.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, doc.BlobKey); err != nil {
		return fmt.Errorf("documents: failed to delete blob: %w", err)
	}

	if s.vectors != nil {
		if err := s.vectors.DeleteByDocument(ctx, id); err != nil {
			s.log.Warn("documents: vector cleanup failed on document delete",
				slog.String("document_id", id),
				slog.Any("error", err),
			)
		}
	}

	return s.registry.Delete(ctx, id)
}

// GetDownloadURL returns a presigned URL for the document's blob.
func (s *Service) GetDownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.registry.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.blobs.PresignGet(ctx, doc.BlobKey, defaultPresignTTL)
}
