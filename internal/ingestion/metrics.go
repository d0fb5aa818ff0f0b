package ingestion

import "time"

// Metrics receives observability signals from the Submission API,
// Orchestrator, and Pipeline. Implementations must be safe for concurrent
// use. A nil Metrics on any of those types is valid — every call site is
// nil-checked, so instrumentation is strictly optional.
type Metrics interface {
	// JobStarted is called once a job has been persisted in QUEUED status.
	JobStarted(mode Mode)
	// JobTerminal is called once a job reaches a terminal status.
	JobTerminal(status Status)
	// DocumentProcessed is called once per document the pipeline finishes,
	// with outcome "ingested" or "failed".
	DocumentProcessed(outcome string)
	// PipelineStage records the wall-clock duration of one pipeline stage
	// ("download", "extract", "embed", "index").
	PipelineStage(stage string, d time.Duration)
}
