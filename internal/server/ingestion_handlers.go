package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursevault/ingestor-go/internal/documents"
	"github.com/coursevault/ingestor-go/internal/ingestion"
	"github.com/coursevault/ingestor-go/internal/logging"
)

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON errorResponse with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusForError maps an ingestion/documents error to the HTTP status
// code spec.md §7 assigns it: NotFound → 404, illegal transition → 400,
// validation failure → 422, unexpected → 500.
func statusForError(err error) int {
	var jobErr *ingestion.JobError
	switch {
	case errors.Is(err, ingestion.ErrJobNotFound), errors.Is(err, ingestion.ErrCourseNotFound), errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, documents.ErrInvalidCourseCode), errors.Is(err, documents.ErrInvalidFilename):
		return http.StatusUnprocessableEntity
	case errors.As(err, &jobErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleStart handles POST /ingestions/start.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode, err := parseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := s.jobs.Create(r.Context(), ingestion.CreateInput{
		CourseCode:  req.CourseCode,
		Mode:        mode,
		DocumentIDs: req.DocumentIDs,
		MaxRetries:  resolveMaxRetries(req.MaxRetries),
		CreatedBy:   roleFromRequest(r),
	})
	if err != nil {
		log.Warn("ingestion: start failed", slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, newJobResponse(job))
}

// handleList handles GET /ingestions/list?course_code=...
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	courseCode := r.URL.Query().Get("course_code")
	jobs, err := s.jobs.List(r.Context(), courseCode)
	if err != nil {
		log.Warn("ingestion: list failed", slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newJobListResponse(jobs))
}

// handleStatus handles GET /ingestions/status?job_id=...
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	jobID := r.URL.Query().Get("job_id")
	job, err := s.jobs.Get(r.Context(), jobID)
	if err != nil {
		log.Warn("ingestion: status lookup failed", slog.String("job_id", jobID), slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newJobResponse(job))
}

// handleCancel handles POST /ingestions/cancel.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job, err := s.jobs.Cancel(r.Context(), req.JobID)
	if err != nil {
		log.Warn("ingestion: cancel failed", slog.String("job_id", req.JobID), slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newJobResponse(job))
}

// handleRetry handles POST /ingestions/retry.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req retryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	job, err := s.jobs.Retry(r.Context(), req.JobID)
	if err != nil {
		log.Warn("ingestion: retry failed", slog.String("job_id", req.JobID), slog.Any("error", err))
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, newJobResponse(job))
}
