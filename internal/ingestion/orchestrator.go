package ingestion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coursevault/ingestor-go/internal/documents"
	"github.com/coursevault/ingestor-go/internal/rag"
)

// Orchestrator drives one claimed job to a terminal state (§4.9). One
// task runs per claim; the embedder and vector store are process
// singletons safe for concurrent use across orchestrator tasks.
type Orchestrator struct {
	jobs     *Registry
	docs     *documents.Registry
	selector *Selector
	pipeline *Pipeline
	embedder rag.Embedder
	vectors  rag.VectorStore
	log      *slog.Logger
	metrics  Metrics
}

// NewOrchestrator wires the components an orchestrator task needs.
func NewOrchestrator(jobs *Registry, docs *documents.Registry, selector *Selector, pipeline *Pipeline, embedder rag.Embedder, vectors rag.VectorStore, log *slog.Logger) *Orchestrator {
	return &Orchestrator{jobs: jobs, docs: docs, selector: selector, pipeline: pipeline, embedder: embedder, vectors: vectors, log: log}
}

// SetMetrics attaches an optional Metrics sink. Safe to call once before
// the orchestrator starts handling jobs.
func (o *Orchestrator) SetMetrics(m Metrics) { o.metrics = m }

// Run claims jobID and, if the claim succeeds, processes it to
// completion. If the claim fails (job not QUEUED — already claimed by
// another task, or terminal), Run returns immediately without touching
// any registry or external store (§5 single-claim invariant).
func (o *Orchestrator) Run(ctx context.Context, jobID string) {
	job, claimed, err := o.jobs.Claim(ctx, jobID)
	if err != nil {
		o.log.Error("ingestion: claim failed", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	if !claimed {
		return
	}

	if err := o.vectors.EnsureCollection(ctx, uint64(o.embedder.Dimension())); err != nil {
		o.fail(ctx, job.ID, err)
		return
	}

	docs, err := o.selector.Resolve(ctx, job)
	if err != nil {
		o.fail(ctx, job.ID, err)
		return
	}

	for _, d := range docs {
		current, err := o.jobs.Get(ctx, job.ID)
		if err != nil {
			o.fail(ctx, job.ID, err)
			return
		}
		if current.Canceled() {
			if o.metrics != nil {
				o.metrics.JobTerminal(StatusCanceled)
			}
			return
		}

		n, err := o.pipeline.Run(ctx, job.ID, d)
		if err != nil {
			if errors.Is(err, canceledErr) {
				if o.metrics != nil {
					o.metrics.JobTerminal(StatusCanceled)
				}
				return
			}
			// Per-document failure is data, not an orchestration problem:
			// mark the document FAILED and keep processing the rest.
			if setErr := o.docs.SetStatus(ctx, d.ID, documents.StatusFailed); setErr != nil {
				o.log.Error("ingestion: failed to mark document FAILED",
					slog.String("document_id", d.ID), slog.Any("error", setErr))
			}
			o.log.Warn("ingestion: document pipeline failed",
				slog.String("job_id", job.ID), slog.String("document_id", d.ID), slog.Any("error", err))
			if o.metrics != nil {
				o.metrics.DocumentProcessed("failed")
			}
			continue
		}

		if setErr := o.docs.SetStatus(ctx, d.ID, documents.StatusIngested); setErr != nil {
			o.log.Error("ingestion: failed to mark document INGESTED",
				slog.String("document_id", d.ID), slog.Any("error", setErr))
		}
		if incErr := o.jobs.IncrementProgress(ctx, job.ID, 1, n); incErr != nil {
			o.log.Error("ingestion: failed to increment job progress",
				slog.String("job_id", job.ID), slog.Any("error", incErr))
		}
		if o.metrics != nil {
			o.metrics.DocumentProcessed("ingested")
		}
	}

	if err := o.jobs.SetTerminal(ctx, job.ID, StatusCompleted); err != nil {
		o.log.Error("ingestion: failed to mark job COMPLETED", slog.String("job_id", job.ID), slog.Any("error", err))
	}
	if o.metrics != nil {
		o.metrics.JobTerminal(StatusCompleted)
	}
}

// fail drives a job to FAILED with an explanatory message, for
// unexpected per-job errors outside the per-document loop (ensure
// collection, selector resolution). retry_count is left untouched.
func (o *Orchestrator) fail(ctx context.Context, jobID string, cause error) {
	if err := o.jobs.SetError(ctx, jobID, cause.Error()); err != nil {
		o.log.Error("ingestion: failed to mark job FAILED", slog.String("job_id", jobID), slog.Any("error", err))
	}
	if o.metrics != nil {
		o.metrics.JobTerminal(StatusFailed)
	}
}
