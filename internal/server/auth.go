package server

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/coursevault/ingestor-go/internal/logging"
)

// roleHeader carries the caller's role as attached by an upstream gateway.
// This service trusts the header rather than validating a token itself —
// the same trust boundary the teacher's API-key middleware drew around a
// pre-shared secret.
const roleHeader = "X-Ingestor-Role"

// roleGate returns an HTTP middleware that requires the caller's
// X-Ingestor-Role header to be one of allowed. A missing header receives
// 401; any present role outside allowed receives 403.
func roleGate(allowed []string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		role := r.Header.Get(roleHeader)
		if role == "" {
			log.Warn("auth: missing role header", slog.String("path", r.URL.Path))
			writeError(w, http.StatusUnauthorized, "missing "+roleHeader+" header")
			return
		}

		if !slices.Contains(allowed, role) {
			log.Warn("auth: role not permitted",
				slog.String("path", r.URL.Path),
				slog.String("role", role),
			)
			writeError(w, http.StatusForbidden, "role not permitted for this operation")
			return
		}

		next(w, r)
	}
}

// roleFromRequest extracts the trusted caller role, used to populate
// Job.CreatedBy-adjacent audit fields on job creation.
func roleFromRequest(r *http.Request) string {
	return r.Header.Get(roleHeader)
}
