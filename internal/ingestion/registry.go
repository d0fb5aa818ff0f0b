package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Registry persists Job records and exposes the atomic persistence
// operations the orchestrator and Submission API are built on
// (create-with-status, claim-if-queued, increment-counters-and-touch,
// set-terminal, set-error, retry-transition — §4.6). Each write is a single
// INSERT or UPDATE statement so it is atomic under the shared single-writer
// connection pool (see internal/db).
type Registry struct {
	db *sql.DB
}

// NewRegistry wraps db, which must already have the ingestion_jobs table
// migrated (see the db package).
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Create inserts a new job in QUEUED status with docs_total fixed at the
// size of the candidate set at creation time (§4.7 — never rewritten
// afterward, even if the claim-time selector resolves a different set).
func (r *Registry) Create(ctx context.Context, j Job) (Job, error) {
	j.Status = StatusQueued
	j.CreatedAt = time.Now().UTC()
	j.UpdatedAt = j.CreatedAt

	const q = `
INSERT INTO ingestion_jobs
    (id, course_code, mode, document_ids, status, docs_total, docs_done,
     vectors_created, error_message, retry_count, max_retries, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 0, 0, '', 0, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		j.ID, j.CourseCode, string(j.Mode), joinIDs(j.DocumentIDs), string(j.Status),
		j.DocsTotal, j.MaxRetries, j.CreatedBy, j.CreatedAt.Unix(), j.UpdatedAt.Unix(),
	)
	if err != nil {
		return Job{}, fmt.Errorf("ingestion: create job: %w", err)
	}
	return j, nil
}

// Get returns the job with the given ID, or ErrJobNotFound.
func (r *Registry) Get(ctx context.Context, id string) (Job, error) {
	const q = `
SELECT id, course_code, mode, document_ids, status, docs_total, docs_done,
       vectors_created, error_message, retry_count, max_retries, created_by, created_at, updated_at
FROM ingestion_jobs WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	return scanJob(row)
}

// ListByCourse returns every job for courseCode, newest first.
func (r *Registry) ListByCourse(ctx context.Context, courseCode string) ([]Job, error) {
	const q = `
SELECT id, course_code, mode, document_ids, status, docs_total, docs_done,
       vectors_created, error_message, retry_count, max_retries, created_by, created_at, updated_at
FROM ingestion_jobs WHERE course_code = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, courseCode)
	if err != nil {
		return nil, fmt.Errorf("ingestion: list jobs by course: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingestion: list jobs by course rows: %w", err)
	}
	return jobs, nil
}

// Claim is the sole mechanism preventing duplicate concurrent processing
// (§5): it atomically moves a job from QUEUED to RUNNING. Returns
// (job, true, nil) if this call won the claim, or (Job{}, false, nil) if
// the job was not in QUEUED (already claimed, or terminal) — the loser
// must return without touching any registry or external store.
func (r *Registry) Claim(ctx context.Context, id string) (Job, bool, error) {
	const q = `UPDATE ingestion_jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(StatusRunning), time.Now().UTC().Unix(), id, string(StatusQueued))
	if err != nil {
		return Job{}, false, fmt.Errorf("ingestion: claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Job{}, false, fmt.Errorf("ingestion: claim rows affected: %w", err)
	}
	if n == 0 {
		return Job{}, false, nil
	}
	j, err := r.Get(ctx, id)
	if err != nil {
		return Job{}, false, err
	}
	return j, true, nil
}

// IncrementProgress atomically advances docs_done and vectors_created by
// the given deltas and touches updated_at, called once per successfully
// processed document.
func (r *Registry) IncrementProgress(ctx context.Context, id string, docsDoneDelta, vectorsDelta int) error {
	const q = `
UPDATE ingestion_jobs
SET docs_done = docs_done + ?, vectors_created = vectors_created + ?, updated_at = ?
WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, docsDoneDelta, vectorsDelta, time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("ingestion: increment progress: %w", err)
	}
	return nil
}

// SetTerminal sets the job's status to status (the orchestrator passes
// COMPLETED at the end of a run) without checking the current status,
// clearing no other field (docs_done/vectors_created are already correct
// from IncrementProgress calls made during the run).
func (r *Registry) SetTerminal(ctx context.Context, id string, status Status) error {
	const q = `UPDATE ingestion_jobs SET status = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, string(status), time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("ingestion: set terminal: %w", err)
	}
	return nil
}

// SetError drives a job to FAILED with an explanatory error_message, used
// for unexpected per-job failures outside the per-document try (claim
// anomalies, ensure-collection failures, selector failures — §4.9).
// retry_count/max_retries are left untouched; retrying is the user's call.
func (r *Registry) SetError(ctx context.Context, id string, message string) error {
	const q = `UPDATE ingestion_jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q, string(StatusFailed), message, time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("ingestion: set error: %w", err)
	}
	return nil
}

// Cancel moves a job from QUEUED or RUNNING to CANCELED. Returns
// JobError if the job is already terminal.
func (r *Registry) Cancel(ctx context.Context, id string) (Job, error) {
	j, err := r.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if j.Status != StatusQueued && j.Status != StatusRunning {
		return Job{}, newJobError("ingestion: cannot cancel job in status %s", j.Status)
	}

	const q = `UPDATE ingestion_jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(StatusCanceled), time.Now().UTC().Unix(), id, string(j.Status))
	if err != nil {
		return Job{}, fmt.Errorf("ingestion: cancel: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Job{}, fmt.Errorf("ingestion: cancel rows affected: %w", err)
	}
	if n == 0 {
		// Raced with a concurrent transition (e.g. the orchestrator just
		// completed the job) between the read above and this write.
		return Job{}, newJobError("ingestion: job %s changed status concurrently, retry cancel", id)
	}
	return r.Get(ctx, id)
}

// Retry re-queues a FAILED job: accepted only when retry_count <
// max_retries (§4.6), it increments retry_count, clears error_message,
// and resets status to QUEUED so the same orchestrator path resumes —
// the selector re-resolves the document set from scratch. docs_done and
// vectors_created are reset to 0 along with it: the selector may
// re-resolve documents already counted on the failed attempt (mode=ALL
// and mode=SELECTED ignore document status entirely, and mode=REINGEST
// always selects INGESTED documents), so leaving the old counters in
// place would double-count progress on the retried run.
func (r *Registry) Retry(ctx context.Context, id string) (Job, error) {
	j, err := r.Get(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if j.Status != StatusFailed {
		return Job{}, newJobError("ingestion: cannot retry job in status %s", j.Status)
	}
	if j.RetryCount >= j.MaxRetries {
		return Job{}, newJobError("ingestion: job has already been retried %d times (max: %d)", j.RetryCount, j.MaxRetries)
	}

	const q = `
UPDATE ingestion_jobs
SET status = ?, retry_count = retry_count + 1, error_message = '', docs_done = 0, vectors_created = 0, updated_at = ?
WHERE id = ? AND status = ? AND retry_count < max_retries`
	res, err := r.db.ExecContext(ctx, q, string(StatusQueued), time.Now().UTC().Unix(), id, string(StatusFailed))
	if err != nil {
		return Job{}, fmt.Errorf("ingestion: retry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Job{}, fmt.Errorf("ingestion: retry rows affected: %w", err)
	}
	if n == 0 {
		return Job{}, newJobError("ingestion: job %s is no longer retryable", id)
	}
	return r.Get(ctx, id)
}

func joinIDs(ids []string) string { return strings.Join(ids, ",") }

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var mode, status, documentIDs string
	var createdAt, updatedAt int64
	err := row.Scan(
		&j.ID, &j.CourseCode, &mode, &documentIDs, &status, &j.DocsTotal, &j.DocsDone,
		&j.VectorsCreated, &j.ErrorMessage, &j.RetryCount, &j.MaxRetries, &j.CreatedBy, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("ingestion: scan job: %w", err)
	}
	j.Mode = Mode(mode)
	j.Status = Status(status)
	j.DocumentIDs = splitIDs(documentIDs)
	j.CreatedAt = time.Unix(createdAt, 0).UTC()
	j.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return j, nil
}
