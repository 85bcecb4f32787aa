package http

import (
	"io"
	"net/http"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/logger"
)

// SignatureHeader carries the provider's HMAC-SHA256 hex signature over
// the raw request body.
const SignatureHeader = "X-Webhook-Signature"

type WebhookHandler struct {
	service domain.WebhookService
	logger  logger.Logger
}

func NewWebhookHandler(service domain.WebhookService, logger logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger,
	}
}

func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public endpoint for receiving events from the email provider
	mux.HandleFunc("/webhooks/email", h.handleIncomingWebhook)
}

func (h *WebhookHandler) handleIncomingWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to read webhook request body")
		WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	// The signature covers the raw bytes; verification happens before any
	// parsing.
	signature := r.Header.Get(SignatureHeader)
	if !h.service.VerifySignature(body, signature) {
		h.logger.WithField("remote_addr", r.RemoteAddr).Warn("Rejected webhook with invalid signature")
		WriteJSONError(w, "Invalid signature", http.StatusForbidden)
		return
	}

	results, err := h.service.ProcessBatch(r.Context(), body)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to process webhook batch")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": results,
	})
}
