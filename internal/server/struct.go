package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/coursevault/ingestor-go/internal/ingestion"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
}

// Server is the HTTP server exposing the ingestion Submission API.
type Server struct {
	// jobs is the Submission API (§4.10) backing all five ingestion routes.
	jobs *ingestion.Service
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
	// metrics holds the Prometheus metrics owned by this server.
	metrics *serverMetrics
}

// startRequest is the JSON body for POST /ingestions/start.
type startRequest struct {
	CourseCode  string   `json:"course_code"`
	Mode        string   `json:"mode"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	MaxRetries  *int     `json:"max_retries,omitempty"`
}

// cancelRequest is the JSON body for POST /ingestions/cancel.
type cancelRequest struct {
	JobID string `json:"job_id"`
}

// retryRequest is the JSON body for POST /ingestions/retry.
type retryRequest struct {
	JobID string `json:"job_id"`
}

// jobResponse is the JSON representation of an [ingestion.Job].
type jobResponse struct {
	ID             string   `json:"id"`
	CourseCode     string   `json:"course_code"`
	Mode           string   `json:"mode"`
	DocumentIDs    []string `json:"document_ids,omitempty"`
	Status         string   `json:"status"`
	DocsTotal      int      `json:"docs_total"`
	DocsDone       int      `json:"docs_done"`
	VectorsCreated int      `json:"vectors_created"`
	RetryCount     int      `json:"retry_count"`
	MaxRetries     int      `json:"max_retries"`
	ErrorMessage   string   `json:"error_message,omitempty"`
	CreatedBy      string   `json:"created_by,omitempty"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func newJobResponse(j ingestion.Job) jobResponse {
	return jobResponse{
		ID:             j.ID,
		CourseCode:     j.CourseCode,
		Mode:           string(j.Mode),
		DocumentIDs:    j.DocumentIDs,
		Status:         string(j.Status),
		DocsTotal:      j.DocsTotal,
		DocsDone:       j.DocsDone,
		VectorsCreated: j.VectorsCreated,
		RetryCount:     j.RetryCount,
		MaxRetries:     j.MaxRetries,
		ErrorMessage:   j.ErrorMessage,
		CreatedBy:      j.CreatedBy,
		CreatedAt:      j.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      j.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func newJobListResponse(jobs []ingestion.Job) []jobResponse {
	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = newJobResponse(j)
	}
	return out
}

// errorResponse is the JSON body returned for any non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}
