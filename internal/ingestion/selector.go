package ingestion

import (
	"context"

	"github.com/coursevault/ingestor-go/internal/documents"
)

// Selector translates a job's (course_code, mode, document_ids) into the
// ordered, concrete set of documents to process (§4.7). Order is
// deterministic per call (ascending created_at for NEW/REINGEST, newest
// first for ALL, the caller's own order for SELECTED) but otherwise
// unspecified.
type Selector struct {
	docs *documents.Registry
}

// NewSelector constructs a Selector backed by the given document registry.
func NewSelector(docs *documents.Registry) *Selector {
	return &Selector{docs: docs}
}

// Resolve returns the documents job j should process, re-evaluated fresh
// on every call — at job creation (to fix docs_total) and again at claim
// time (to determine the actual processing set, which may differ under
// mode=NEW or mode=REINGEST if the document set changed in between;
// see §4.7 and §9 Open Questions).
func (s *Selector) Resolve(ctx context.Context, j Job) ([]documents.Document, error) {
	switch j.Mode {
	case ModeNew:
		return s.docs.ListByCourseAndStatus(ctx, j.CourseCode, documents.StatusUploaded)
	case ModeReingest:
		return s.docs.ListByCourseAndStatus(ctx, j.CourseCode, documents.StatusIngested)
	case ModeAll:
		return s.docs.ListByCourse(ctx, j.CourseCode)
	case ModeSelected:
		if len(j.DocumentIDs) == 0 {
			return nil, newJobError("ingestion: mode=SELECTED requires a non-empty document_ids list")
		}
		return s.docs.ListByIDs(ctx, j.CourseCode, j.DocumentIDs)
	default:
		return nil, newJobError("ingestion: unknown mode %q", j.Mode)
	}
}
