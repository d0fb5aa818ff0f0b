package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func newServiceFixture(t *testing.T, extract func([]byte, int, int) ([]string, error)) (*Service, *orchestratorFixture) {
	t.Helper()
	f := newOrchestratorFixture(t, extract)
	svc := NewService(f.jobs, f.docs, f.orch, discardLogger())
	return svc, f
}

func Test_Service_Create_CourseNotFound(t *testing.T) {
	t.Parallel()
	svc, _ := newServiceFixture(t, threeChunkExtractor)

	_, err := svc.Create(context.Background(), CreateInput{CourseCode: "CS101", Mode: ModeAll, MaxRetries: 3})
	if !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
}

// alwaysExistsCourseChecker lets a test stand in for a real course
// registry, proving Create defers to whatever CourseExistenceChecker is
// wired in rather than hard-coding the document-existence proxy.
type alwaysExistsCourseChecker struct{}

func (alwaysExistsCourseChecker) CourseExists(context.Context, string) (bool, error) {
	return true, nil
}

func Test_Service_Create_InjectedCourseChecker_OverridesDocumentProxy(t *testing.T) {
	t.Parallel()
	svc, _ := newServiceFixture(t, threeChunkExtractor)
	svc.SetCourseChecker(alwaysExistsCourseChecker{})

	// No documents were ever uploaded for CS101, so the default
	// documentBackedCourseChecker would reject this; the injected
	// checker says the course exists regardless.
	_, err := svc.Create(context.Background(), CreateInput{CourseCode: "CS101", Mode: ModeAll, MaxRetries: 3})
	if errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("expected injected checker to be consulted instead of the document proxy, got %v", err)
	}
}

func Test_Service_Create_SelectedRequiresIDs(t *testing.T) {
	t.Parallel()
	svc, f := newServiceFixture(t, threeChunkExtractor)
	f.addDocument(t, "doc-a")

	_, err := svc.Create(context.Background(), CreateInput{CourseCode: "CS101", Mode: ModeSelected, MaxRetries: 3})
	var jobErr *JobError
	if !errors.As(err, &jobErr) {
		t.Fatalf("expected JobError, got %v", err)
	}
}

// S5. Retry with cap: max_retries=1, the vector store's ensure_collection
// always fails — an unexpected per-job error (§4.9), not a per-document
// one, so it drives the whole job to FAILED rather than completing with
// a failed document. First run → FAILED, retry_count=0. Retry → FAILED,
// retry_count=1. Second retry request → JobError ("already retried 1 times").
func Test_Service_Retry_CapRefusesSecondAttempt(t *testing.T) {
	t.Parallel()
	svc, f := newServiceFixture(t, threeChunkExtractor)
	f.vectors.failEnsureCollection = true
	f.addDocument(t, "doc-a")

	job, err := svc.Create(context.Background(), CreateInput{CourseCode: "CS101", Mode: ModeAll, MaxRetries: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	waitForTerminal(t, f.jobs, job.ID)

	got, err := svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusFailed || got.RetryCount != 0 {
		t.Fatalf("expected FAILED retry_count=0 after first run, got status=%s retry_count=%d", got.Status, got.RetryCount)
	}

	retried, err := svc.Retry(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	waitForTerminal(t, f.jobs, retried.ID)

	got, err = svc.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusFailed || got.RetryCount != 1 {
		t.Fatalf("expected FAILED retry_count=1 after retry, got status=%s retry_count=%d", got.Status, got.RetryCount)
	}

	_, err = svc.Retry(context.Background(), job.ID)
	if err == nil {
		t.Fatalf("expected second retry to be refused")
	}
}

// S6. Double-claim: two orchestrator tasks race for the same QUEUED job.
// Exactly one proceeds; the other no-ops without touching any counter.
func Test_Service_DoubleClaim_ExactlyOneProceeds(t *testing.T) {
	t.Parallel()
	f := newOrchestratorFixture(t, threeChunkExtractor)
	f.addDocument(t, "doc-a")
	job, err := f.jobs.Create(context.Background(), Job{ID: "job-1", CourseCode: "CS101", Mode: ModeAll, MaxRetries: 3, DocsTotal: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			f.orch.Run(context.Background(), job.ID)
		}()
	}
	wg.Wait()

	got, err := f.jobs.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if got.DocsDone != 1 || got.VectorsCreated != 3 {
		t.Fatalf("expected no double-increment, got docs_done=%d vectors_created=%d", got.DocsDone, got.VectorsCreated)
	}
}

func waitForTerminal(t *testing.T, jobs *Registry, jobID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := jobs.Get(context.Background(), jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if j.Status.Terminal() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state in time", jobID)
}
