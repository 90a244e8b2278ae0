package http

import (
	"net/http"
	"strconv"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/internal/http/middleware"
	"github.com/sendgate/sendgate/internal/service"
	"github.com/sendgate/sendgate/pkg/logger"
)

// DLQHandler handles dead letter queue operator endpoints
type DLQHandler struct {
	service *service.DLQService
	auth    *middleware.BasicAuth
	logger  logger.Logger
}

// NewDLQHandler creates a new dead letter queue handler
func NewDLQHandler(service *service.DLQService, auth *middleware.BasicAuth, logger logger.Logger) *DLQHandler {
	return &DLQHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

// RegisterRoutes registers the dead letter queue routes
func (h *DLQHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := h.auth.RequireAuth()

	mux.Handle("/api/dlq.list", requireAuth(http.HandlerFunc(h.handleList)))
	mux.Handle("/api/dlq.get", requireAuth(http.HandlerFunc(h.handleGet)))
	mux.Handle("/api/dlq.retry", requireAuth(http.HandlerFunc(h.handleRetry)))
	mux.Handle("/api/dlq.remove", requireAuth(http.HandlerFunc(h.handleRemove)))
	mux.Handle("/api/dlq.retryAll", requireAuth(http.HandlerFunc(h.handleRetryAll)))
	mux.Handle("/api/dlq.clean", requireAuth(http.HandlerFunc(h.handleClean)))
	mux.Handle("/api/dlq.stats", requireAuth(http.HandlerFunc(h.handleStats)))
}

// handleList returns a page of dead letters, newest first
func (h *DLQHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list dead letters")
		WriteJSONError(w, "Failed to list dead letters", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
	})
}

// handleGet returns a single dead letter with its full payload
func (h *DLQHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		if domain.IsNotFound(err) {
			WriteJSONError(w, "Dead letter not found", http.StatusNotFound)
		} else {
			h.logger.WithField("error", err.Error()).Error("Failed to get dead letter")
			WriteJSONError(w, "Failed to get dead letter", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry": entry,
	})
}

// handleRetry moves one dead letter back into the send queue
func (h *DLQHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.Retry(r.Context(), req.ID); err != nil {
		if domain.IsNotFound(err) {
			WriteJSONError(w, "Dead letter not found", http.StatusNotFound)
		} else {
			h.logger.WithField("error", err.Error()).Error("Failed to requeue dead letter")
			WriteJSONError(w, "Failed to requeue dead letter", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleRemove deletes one dead letter permanently
func (h *DLQHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		WriteJSONError(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.service.Remove(r.Context(), req.ID); err != nil {
		if domain.IsNotFound(err) {
			WriteJSONError(w, "Dead letter not found", http.StatusNotFound)
		} else {
			h.logger.WithField("error", err.Error()).Error("Failed to remove dead letter")
			WriteJSONError(w, "Failed to remove dead letter", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleRetryAll requeues every dead letter
func (h *DLQHandler) handleRetryAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	moved, err := h.service.RetryAll(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to requeue dead letters")
		WriteJSONError(w, "Failed to requeue dead letters", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"moved":   moved,
	})
}

// handleClean removes dead letters older than the given retention
func (h *DLQHandler) handleClean(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		OlderThanDays int `json:"older_than_days"`
	}
	if err := decodeJSONBody(r, &req); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.OlderThanDays < 1 {
		WriteJSONError(w, "older_than_days must be at least 1", http.StatusBadRequest)
		return
	}

	removed, err := h.service.Clean(r.Context(), req.OlderThanDays)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to clean dead letters")
		WriteJSONError(w, "Failed to clean dead letters", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"removed": removed,
	})
}

// handleStats returns dead letter counters and the derived health verdict
func (h *DLQHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to get dead letter stats")
		WriteJSONError(w, "Failed to get dead letter stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
