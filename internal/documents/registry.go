// Package documents implements the durable document registry (§4.5) and
// the upload/delete compensation protocol (§9) that sits around it.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of an uploaded document.
type Status string

const (
	StatusUploaded Status = "UPLOADED"
	StatusIngested Status = "INGESTED"
	StatusFailed   Status = "FAILED"
)

// Document is the durable record of an uploaded file.
type Document struct {
	ID          string
	CourseCode  string
	Filename    string
	BlobKey     string
	ContentType string
	FileSize    int64
	Status      Status
	UploadedBy  string
	CreatedAt   time.Time
}

// Registry persists and retrieves Document records. Implementations must
// be safe for concurrent use.
type Registry struct {
	db *sql.DB
}

// NewRegistry wraps db, which must already have the documents table
// migrated (see the db package).
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Insert persists a new document record in UPLOADED status.
func (r *Registry) Insert(ctx context.Context, d Document) error {
	const q = `
INSERT INTO documents (id, course_code, filename, blob_key, content_type, file_size, status, uploaded_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		d.ID, d.CourseCode, d.Filename, d.BlobKey, d.ContentType, d.FileSize,
		string(StatusUploaded), d.UploadedBy, d.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("documents: insert: %w", err)
	}
	return nil
}

// Get returns the document with the given ID, or ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (Document, error) {
	const q = `
SELECT id, course_code, filename, blob_key, content_type, file_size, status, uploaded_by, created_at
FROM documents WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanDocument(row)
}

// ListByCourse returns every document for courseCode, newest first.
func (r *Registry) ListByCourse(ctx context.Context, courseCode string) ([]Document, error) {
	const q = `
SELECT id, course_code, filename, blob_key, content_type, file_size, status, uploaded_by, created_at
FROM documents WHERE course_code = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, courseCode)
	if err != nil {
		return nil, fmt.Errorf("documents: list by course: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documents: list by course rows: %w", err)
	}
	return docs, nil
}

// ListByCourseAndStatus returns documents for courseCode in the given status.
func (r *Registry) ListByCourseAndStatus(ctx context.Context, courseCode string, status Status) ([]Document, error) {
	const q = `
SELECT id, course_code, filename, blob_key, content_type, file_size, status, uploaded_by, created_at
FROM documents WHERE course_code = ? AND status = ? ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, courseCode, string(status))
	if err != nil {
		return nil, fmt.Errorf("documents: list by course and status: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documents: list by course and status rows: %w", err)
	}
	return docs, nil
}

// ListByIDs returns the documents matching ids that also belong to
// courseCode, in the order ids were given skipped for any id not found.
func (r *Registry) ListByIDs(ctx context.Context, courseCode string, ids []string) ([]Document, error) {
	byID := make(map[string]Document, len(ids))
	for _, id := range ids {
		d, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if d.CourseCode != courseCode {
			continue
		}
		byID[id] = d
	}

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

// SetStatus updates a document's status. The ingestion core only ever
// transitions UPLOADED → INGESTED on pipeline success and
// {UPLOADED, INGESTED} → FAILED on pipeline failure (§4.5).
func (r *Registry) SetStatus(ctx context.Context, id string, status Status) error {
	const q = `UPDATE documents SET status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return fmt.Errorf("documents: set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("documents: set status rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document row. Returns ErrNotFound if no row matched.
func (r *Registry) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("documents: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("documents: delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	var status string
	var createdAt int64
	err := row.Scan(&d.ID, &d.CourseCode, &d.Filename, &d.BlobKey, &d.ContentType, &d.FileSize, &status, &d.UploadedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("documents: scan: %w", err)
	}
	d.Status = Status(status)
	d.CreatedAt = time.Unix(createdAt, 0).UTC()
	return d, nil
}
