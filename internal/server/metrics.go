// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coursevault/ingestor-go/internal/ingestion"
)

// Metric label values shared across registrations.
const (
	// labelHandler is the name of the label that partitions HTTP metrics by
	// the request's URL path.
	labelHandler = "handler"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// jobsStartedTotal counts POST /ingestions/start requests that produced
	// a job, partitioned by mode ("NEW", "SELECTED", "ALL", "REINGEST").
	jobsStartedTotal *prometheus.CounterVec

	// jobsTerminalTotal counts jobs reaching a terminal state, partitioned
	// by the terminal status ("COMPLETED", "FAILED", "CANCELED").
	jobsTerminalTotal *prometheus.CounterVec

	// documentsProcessedTotal counts documents the pipeline finished
	// processing, partitioned by outcome ("ingested", "failed").
	documentsProcessedTotal *prometheus.CounterVec

	// pipelineStageSeconds records wall-clock duration of each pipeline
	// stage, partitioned by stage name.
	pipelineStageSeconds *prometheus.HistogramVec

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, URL path, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default —
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		jobsStartedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor",
			Subsystem: "jobs",
			Name:      "started_total",
			Help:      "Total number of ingestion jobs started, partitioned by selector mode.",
		}, []string{"mode"}),

		jobsTerminalTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor",
			Subsystem: "jobs",
			Name:      "terminal_total",
			Help:      "Total number of ingestion jobs reaching a terminal state, partitioned by status.",
		}, []string{"status"}),

		documentsProcessedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor",
			Subsystem: "documents",
			Name:      "processed_total",
			Help:      "Total number of documents finished by the pipeline, partitioned by outcome.",
		}, []string{"outcome"}),

		pipelineStageSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ingestor",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock duration of each document pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ingestor",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ingestor",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}

// ingestionMetrics adapts serverMetrics to [ingestion.Metrics], so the
// ingestion package stays free of a Prometheus dependency while the server
// still observes every stage of job processing.
type ingestionMetrics struct {
	m *serverMetrics
}

func (a ingestionMetrics) JobStarted(mode ingestion.Mode) {
	a.m.jobsStartedTotal.WithLabelValues(string(mode)).Inc()
}

func (a ingestionMetrics) JobTerminal(status ingestion.Status) {
	a.m.jobsTerminalTotal.WithLabelValues(string(status)).Inc()
}

func (a ingestionMetrics) DocumentProcessed(outcome string) {
	a.m.documentsProcessedTotal.WithLabelValues(outcome).Inc()
}

func (a ingestionMetrics) PipelineStage(stage string, d time.Duration) {
	a.m.pipelineStageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}
