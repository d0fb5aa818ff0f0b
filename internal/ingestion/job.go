// Package ingestion implements the ingestion job engine (§4.6–§4.10): the
// durable job state machine, the document selector, the per-document
// pipeline, and the orchestrator that drives one claimed job to a
// terminal state.
package ingestion

import "time"

// Status is the lifecycle state of an ingestion job. The legal
// transitions form the DAG in §4.6: QUEUED→RUNNING (claim),
// RUNNING→COMPLETED (success), RUNNING→FAILED (unexpected per-job
// error), {QUEUED,RUNNING}→CANCELED (cancel), FAILED→QUEUED (retry).
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCanceled  Status = "CANCELED"
)

// Mode selects which documents of a course a job processes (§4.7).
type Mode string

const (
	ModeNew      Mode = "NEW"
	ModeSelected Mode = "SELECTED"
	ModeAll      Mode = "ALL"
	ModeReingest Mode = "REINGEST"
)

// Job is the durable record of one ingestion request.
type Job struct {
	ID             string
	CourseCode     string
	Mode           Mode
	DocumentIDs    []string // only meaningful when Mode == ModeSelected
	Status         Status
	DocsTotal      int
	DocsDone       int
	VectorsCreated int
	RetryCount     int
	MaxRetries     int
	ErrorMessage   string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Canceled reports whether the job is in the CANCELED terminal state, the
// condition the orchestrator's cancel checkpoints watch for.
func (j Job) Canceled() bool { return j.Status == StatusCanceled }

// Terminal reports whether status is one from which no further
// transition is legal except, for FAILED, a retry.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}
