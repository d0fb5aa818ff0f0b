// Package db opens the local SQLite database shared by the document and
// ingestion-job registries. A single connection pool backs both tables;
// WAL mode plus a single-writer cap make the ingestion job engine's
// atomic claim statement race-free without any additional locking.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// DefaultPath returns the default path for the ingestor database,
// resolving to ~/.ingestor/ingestor.db and creating the directory if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("db: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".ingestor")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("db: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "ingestor.db"), nil
}

// Open opens (or creates) a SQLite database at path in WAL mode with a
// single writer connection, and runs every registered schema migration.
// Use ":memory:" for an in-memory database in tests.
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", path, err)
	}
	// A single writer connection avoids SQLITE_BUSY under concurrent writes
	// and makes claim-style UPDATE ... WHERE statements race-free.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db: migrate: %w", err)
	}

	return db, nil
}

// schemaDDL creates every table owned by the document and ingestion
// registries. Both registries share one connection pool and one file so
// their writes serialize through the same single-writer cap.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
    id           TEXT    PRIMARY KEY,
    course_code  TEXT    NOT NULL,
    filename     TEXT    NOT NULL,
    blob_key     TEXT    NOT NULL,
    content_type TEXT    NOT NULL,
    file_size    INTEGER NOT NULL,
    status       TEXT    NOT NULL CHECK(status IN ('UPLOADED','INGESTED','FAILED')),
    uploaded_by  TEXT    NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_course ON documents (course_code);

CREATE TABLE IF NOT EXISTS ingestion_jobs (
    id             TEXT    PRIMARY KEY,
    course_code    TEXT    NOT NULL,
    mode           TEXT    NOT NULL CHECK(mode IN ('NEW','SELECTED','ALL','REINGEST')),
    document_ids   TEXT    NOT NULL DEFAULT '',
    status         TEXT    NOT NULL CHECK(status IN ('QUEUED','RUNNING','COMPLETED','FAILED','CANCELED')),
    docs_total     INTEGER NOT NULL DEFAULT 0,
    docs_done      INTEGER NOT NULL DEFAULT 0,
    vectors_created INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT    NOT NULL DEFAULT '',
    retry_count    INTEGER NOT NULL DEFAULT 0,
    max_retries    INTEGER NOT NULL DEFAULT 3,
    created_by     TEXT    NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ingestion_jobs_course ON ingestion_jobs (course_code);
CREATE INDEX IF NOT EXISTS idx_ingestion_jobs_status ON ingestion_jobs (status);
`
