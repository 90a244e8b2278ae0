package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/sendgate/sendgate/internal/service"
	"github.com/sendgate/sendgate/pkg/logger"
)

// snsMaxPayloadBytes bounds webhook reads; SNS caps messages at 256 KiB so
// anything past this is not a notification.
const snsMaxPayloadBytes = 1 << 20

// FeedbackHandler handles provider feedback webhooks. The endpoint is public:
// SNS signs its payloads but does not authenticate, so acceptance means
// "queued for verification", not "trusted".
type FeedbackHandler struct {
	ingress *service.FeedbackIngress
	logger  logger.Logger
}

// NewFeedbackHandler creates a new feedback webhook handler
func NewFeedbackHandler(ingress *service.FeedbackIngress, logger logger.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		ingress: ingress,
		logger:  logger,
	}
}

// RegisterRoutes registers the feedback webhook routes
func (h *FeedbackHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/webhooks/ses", http.HandlerFunc(h.handleSES))
}

// handleSES receives SES notifications, directly or wrapped in an SNS
// envelope. SNS retries on 5xx only, so queue failures answer 500 and
// malformed payloads answer 400.
func (h *FeedbackHandler) handleSES(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, snsMaxPayloadBytes))
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to read webhook request body")
		WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if err := h.ingress.HandleSES(r.Context(), body); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFeedback):
			// Acknowledge SNS control messages (subscription handshakes)
			// so SNS stops redelivering them. Confirming the subscription
			// is an operator action.
			h.logger.WithField("reason", err.Error()).Info("Acknowledged non-feedback SNS payload")
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
			})
		case errors.Is(err, service.ErrFeedbackQueue):
			WriteJSONError(w, "Failed to process notification", http.StatusInternalServerError)
		default:
			h.logger.WithField("error", err.Error()).Error("Rejected malformed SES notification")
			WriteJSONError(w, "Invalid notification payload", http.StatusBadRequest)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
