package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coursevault/ingestor-go/internal/documents"
)

// CourseExistenceChecker answers whether a course code refers to a real,
// registered course. Course lifecycle management is an external
// collaborator this service defers to rather than owns; Create calls
// through this interface instead of approximating existence inline, so
// the approximation (or its replacement by a real course registry) is
// visible at the type level.
type CourseExistenceChecker interface {
	CourseExists(ctx context.Context, courseCode string) (bool, error)
}

// documentBackedCourseChecker is the default CourseExistenceChecker used
// when no external course registry is wired in. It treats "at least one
// document has ever been uploaded for this course" as a proxy for
// "the course exists." This is a documented approximation, not the real
// thing: a legitimately existing course with zero uploads is
// indistinguishable from a nonexistent one. See DESIGN.md's Open Question
// resolutions for why this proxy was chosen over blocking on a course
// registry that doesn't exist yet.
type documentBackedCourseChecker struct {
	docs *documents.Registry
}

func (c documentBackedCourseChecker) CourseExists(ctx context.Context, courseCode string) (bool, error) {
	existing, err := c.docs.ListByCourse(ctx, courseCode)
	if err != nil {
		return false, err
	}
	return len(existing) > 0, nil
}

// Service is the Submission API (§4.10): create/list/get/cancel/retry.
// Create and Retry schedule an orchestrator task and return immediately;
// the task runs independently and its completion is never joined by the
// request that scheduled it.
type Service struct {
	jobs         *Registry
	docs         *documents.Registry
	orchestrator *Orchestrator
	log          *slog.Logger
	metrics      Metrics
	courses      CourseExistenceChecker
}

// NewService constructs a Service. It defaults to a
// documentBackedCourseChecker; call SetCourseChecker to replace it with a
// real course registry once one exists.
func NewService(jobs *Registry, docs *documents.Registry, orchestrator *Orchestrator, log *slog.Logger) *Service {
	return &Service{
		jobs:         jobs,
		docs:         docs,
		orchestrator: orchestrator,
		log:          log,
		courses:      documentBackedCourseChecker{docs: docs},
	}
}

// SetCourseChecker replaces the collaborator Create uses to validate
// course_code, e.g. with one backed by a real course registry.
func (s *Service) SetCourseChecker(c CourseExistenceChecker) {
	s.courses = c
}

// SetMetrics attaches an optional Metrics sink, also propagated to the
// orchestrator and its pipeline so every stage of job processing reports
// through the same sink.
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
	s.orchestrator.SetMetrics(m)
	s.orchestrator.pipeline.SetMetrics(m)
}

// CreateInput is the request to start a new ingestion job.
type CreateInput struct {
	CourseCode  string
	Mode        Mode
	DocumentIDs []string // required iff Mode == ModeSelected
	MaxRetries  int
	CreatedBy   string
}

// Create validates the request, fixes docs_total at the size of the
// selector's result at this moment, persists the job in QUEUED, and
// schedules a background orchestrator task for it. Returns ErrCourseNotFound
// if s.courses.CourseExists reports the course does not exist (by default,
// that the course has no documents registered at all — see
// documentBackedCourseChecker).
func (s *Service) Create(ctx context.Context, in CreateInput) (Job, error) {
	courseCode, err := documents.NormalizeCourseCode(in.CourseCode)
	if err != nil {
		return Job{}, err
	}

	if err := ValidateMaxRetries(in.MaxRetries); err != nil {
		return Job{}, err
	}

	var documentIDs []string
	if in.Mode == ModeSelected {
		documentIDs, err = ValidateDocumentIDs(in.DocumentIDs)
		if err != nil {
			return Job{}, err
		}
	}

	exists, err := s.courses.CourseExists(ctx, courseCode)
	if err != nil {
		return Job{}, err
	}
	if !exists {
		return Job{}, ErrCourseNotFound
	}

	job := Job{
		ID:          uuid.NewString(),
		CourseCode:  courseCode,
		Mode:        in.Mode,
		DocumentIDs: documentIDs,
		MaxRetries:  in.MaxRetries,
		CreatedBy:   in.CreatedBy,
	}

	selector := NewSelector(s.docs)
	candidates, err := selector.Resolve(ctx, job)
	if err != nil {
		return Job{}, err
	}
	job.DocsTotal = len(candidates)

	job, err = s.jobs.Create(ctx, job)
	if err != nil {
		return Job{}, err
	}

	if s.metrics != nil {
		s.metrics.JobStarted(job.Mode)
	}
	s.dispatch(job.ID)
	return job, nil
}

// List returns every job for courseCode, newest first.
func (s *Service) List(ctx context.Context, courseCode string) ([]Job, error) {
	courseCode, err := documents.NormalizeCourseCode(courseCode)
	if err != nil {
		return nil, err
	}
	return s.jobs.ListByCourse(ctx, courseCode)
}

// Get returns the job with the given ID, or ErrJobNotFound.
func (s *Service) Get(ctx context.Context, jobID string) (Job, error) {
	id, err := NormalizeID(jobID)
	if err != nil {
		return Job{}, err
	}
	return s.jobs.Get(ctx, id)
}

// Cancel flips a QUEUED or RUNNING job to CANCELED. The running
// orchestrator (if any) observes this cooperatively at its next
// checkpoint; in-flight I/O is not interrupted.
func (s *Service) Cancel(ctx context.Context, jobID string) (Job, error) {
	id, err := NormalizeID(jobID)
	if err != nil {
		return Job{}, err
	}
	return s.jobs.Cancel(ctx, id)
}

// Retry re-queues a FAILED job (subject to retry_count < max_retries)
// and schedules a fresh orchestrator task for it.
func (s *Service) Retry(ctx context.Context, jobID string) (Job, error) {
	id, err := NormalizeID(jobID)
	if err != nil {
		return Job{}, err
	}
	job, err := s.jobs.Retry(ctx, id)
	if err != nil {
		return Job{}, err
	}
	s.dispatch(job.ID)
	return job, nil
}

// dispatch schedules an orchestrator task for jobID on its own goroutine,
// detached from the request context that triggered it — the submission
// reply is not joined to the task's completion.
func (s *Service) dispatch(jobID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 24*time.Hour)
		defer cancel()
		s.orchestrator.Run(ctx, jobID)
	}()
}

// IsNotFound reports whether err is, or wraps, a not-found condition
// from either the job or document registry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound) || errors.Is(err, documents.ErrNotFound)
}
