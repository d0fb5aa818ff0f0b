package ingestion

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	idb "github.com/coursevault/ingestor-go/internal/db"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := idb.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func Test_Registry_CreateGet(t *testing.T) {
	t.Parallel()
	r := NewRegistry(newTestDB(t))
	ctx := context.Background()

	job, err := r.Create(ctx, Job{ID: "job-1", CourseCode: "CS101", Mode: ModeNew, DocsTotal: 2, MaxRetries: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.Status != StatusQueued {
		t.Fatalf("expected QUEUED, got %s", job.Status)
	}

	got, err := r.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DocsTotal != 2 || got.Mode != ModeNew {
		t.Fatalf("unexpected job: %+v", got)
	}
}

func Test_Registry_Claim_OnlyOneWinner(t *testing.T) {
	t.Parallel()
	r := NewRegistry(newTestDB(t))
	ctx := context.Background()
	if _, err := r.Create(ctx, Job{ID: "job-1", CourseCode: "CS101", Mode: ModeAll, MaxRetries: 3}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, claimed1, err := r.Claim(ctx, "job-1")
	if err != nil {
		t.Fatalf("claim 1: %v", err)
	}
	_, claimed2, err := r.Claim(ctx, "job-1")
	if err != nil {
		t.Fatalf("claim 2: %v", err)
	}
	if !claimed1 || claimed2 {
		t.Fatalf("expected exactly one claim to win, got claimed1=%v claimed2=%v", claimed1, claimed2)
	}
}

func Test_Registry_Cancel_RejectsTerminal(t *testing.T) {
	t.Parallel()
	r := NewRegistry(newTestDB(t))
	ctx := context.Background()
	if _, err := r.Create(ctx, Job{ID: "job-1", CourseCode: "CS101", Mode: ModeAll, MaxRetries: 3}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetTerminal(ctx, "job-1", StatusCompleted); err != nil {
		t.Fatalf("set terminal: %v", err)
	}

	_, err := r.Cancel(ctx, "job-1")
	var jobErr *JobError
	if !errors.As(err, &jobErr) {
		t.Fatalf("expected JobError, got %v", err)
	}
}

func Test_Registry_Retry_RefusedAtCap(t *testing.T) {
	t.Parallel()
	r := NewRegistry(newTestDB(t))
	ctx := context.Background()
	if _, err := r.Create(ctx, Job{ID: "job-1", CourseCode: "CS101", Mode: ModeAll, MaxRetries: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetError(ctx, "job-1", "boom"); err != nil {
		t.Fatalf("set error: %v", err)
	}

	job, err := r.Retry(ctx, "job-1")
	if err != nil {
		t.Fatalf("first retry: %v", err)
	}
	if job.RetryCount != 1 || job.Status != StatusQueued || job.ErrorMessage != "" {
		t.Fatalf("unexpected job after retry: %+v", job)
	}

	if err := r.SetError(ctx, "job-1", "boom again"); err != nil {
		t.Fatalf("set error 2: %v", err)
	}
	_, err = r.Retry(ctx, "job-1")
	if err == nil {
		t.Fatalf("expected retry to be refused at cap")
	}
}

func Test_Registry_Retry_ResetsProgressCounters(t *testing.T) {
	t.Parallel()
	r := NewRegistry(newTestDB(t))
	ctx := context.Background()
	if _, err := r.Create(ctx, Job{ID: "job-1", CourseCode: "CS101", Mode: ModeAll, MaxRetries: 2, DocsTotal: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.IncrementProgress(ctx, "job-1", 1, 3); err != nil {
		t.Fatalf("increment progress: %v", err)
	}
	if err := r.SetError(ctx, "job-1", "boom"); err != nil {
		t.Fatalf("set error: %v", err)
	}

	job, err := r.Retry(ctx, "job-1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if job.DocsDone != 0 || job.VectorsCreated != 0 {
		t.Fatalf("expected docs_done=0 vectors_created=0 after retry, got docs_done=%d vectors_created=%d", job.DocsDone, job.VectorsCreated)
	}
}

func Test_Registry_Get_NotFound(t *testing.T) {
	t.Parallel()
	r := NewRegistry(newTestDB(t))
	_, err := r.Get(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
