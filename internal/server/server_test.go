package server

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	idb "github.com/coursevault/ingestor-go/internal/db"
	"github.com/coursevault/ingestor-go/internal/documents"
	"github.com/coursevault/ingestor-go/internal/ingestion"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := idb.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestServer builds a minimal Server with an in-memory ingestion
// service, suitable for handler-level tests that don't exercise New's
// HTTP wiring (rate limiting, role gates, routing).
func newTestServer(t *testing.T) *Server {
	t.Helper()
	db := newTestDB(t)
	docs := documents.NewRegistry(db)
	jobs := ingestion.NewRegistry(db)
	selector := ingestion.NewSelector(docs)
	pipeline := ingestion.NewPipeline(nil, nil, nil, jobs, 1000, 150, discardLogger())
	orch := ingestion.NewOrchestrator(jobs, docs, selector, pipeline, nil, nil, discardLogger())
	svc := ingestion.NewService(jobs, docs, orch, discardLogger())

	return &Server{jobs: svc, cfg: &Config{}, log: discardLogger()}
}
