package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/sendgate/sendgate/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports process liveness and database reachability. The
// endpoint is unauthenticated so load balancers and uptime probes can hit it.
type HealthHandler struct {
	db      *sql.DB
	version string
	started time.Time
	logger  logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, version string, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		version: version,
		started: time.Now(),
		logger:  logger,
	}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/health", http.HandlerFunc(h.handleHealth))
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WithField("error", err.Error()).Error("Health check failed: database unreachable")
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
