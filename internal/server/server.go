// Package server implements the HTTP server that exposes the ingestion job
// engine's Submission API (§4.10). The server is started by the
// `ingestor serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coursevault/ingestor-go/internal/ingestion"
	"github.com/coursevault/ingestor-go/internal/logging"
)

// startCancelRetryRoles and listStatusRoles are the role sets spec.md §6
// assigns to the two authorization tiers of the ingestion HTTP surface.
var (
	startCancelRetryRoles = []string{"professor", "admin"}
	listStatusRoles       = []string{"student", "professor", "admin"}
)

// New constructs a Server around the ingestion Submission API.
// If cfg.Logger is nil, [logging.New] is used.
func New(jobs *ingestion.Service, cfg *Config) (*Server, error) {
	if jobs == nil {
		return nil, fmt.Errorf("server: ingestion service must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}

	reg := prometheus.NewRegistry()
	metrics := newServerMetrics(reg)
	jobs.SetMetrics(ingestionMetrics{m: metrics})

	s := &Server{jobs: jobs, cfg: cfg, log: cfg.Logger, pingers: cfg.Pingers, metrics: metrics}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ingestions/start", roleGate(startCancelRetryRoles, s.handleStart))
	mux.HandleFunc("GET /ingestions/list", roleGate(listStatusRoles, s.handleList))
	mux.HandleFunc("GET /ingestions/status", roleGate(listStatusRoles, s.handleStatus))
	mux.HandleFunc("POST /ingestions/cancel", roleGate(startCancelRetryRoles, s.handleCancel))
	mux.HandleFunc("POST /ingestions/retry", roleGate(startCancelRetryRoles, s.handleRetry))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	handler := metricsMiddleware(metrics, requestLogger(s.log, rl.middleware(mux)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		if s.stopRL != nil {
			s.stopRL()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		logging.FromContext(r.Context()).Error("health encode error", slog.Any("error", err))
	}
}

// metricsMiddleware records per-request HTTP metrics, partitioned by path.
// The ingestion route set is fixed and small, so the raw path is a safe
// cardinality-bounded label.
func metricsMiddleware(m *serverMetrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		m.httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, fmt.Sprintf("%d", rw.status)).Inc()
		m.httpDurationSeconds.WithLabelValues(r.Method, r.URL.Path).Observe(elapsed.Seconds())
	})
}
