package http

import (
	"net/http"

	"github.com/sendgate/sendgate/internal/http/middleware"
	"github.com/sendgate/sendgate/internal/service"
	"github.com/sendgate/sendgate/pkg/logger"
)

// QueueHandler handles send queue API endpoints
type QueueHandler struct {
	service *service.DLQService
	auth    *middleware.BasicAuth
	logger  logger.Logger
}

// NewQueueHandler creates a new send queue handler
func NewQueueHandler(service *service.DLQService, auth *middleware.BasicAuth, logger logger.Logger) *QueueHandler {
	return &QueueHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

// RegisterRoutes registers the send queue routes
func (h *QueueHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := h.auth.RequireAuth()

	mux.Handle("/api/queue.stats", requireAuth(http.HandlerFunc(h.handleStats)))
}

// handleStats returns live send queue counters
func (h *QueueHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.service.QueueStats(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to get send queue stats")
		WriteJSONError(w, "Failed to get queue stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}
