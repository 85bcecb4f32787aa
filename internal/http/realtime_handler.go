package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/logger"
)

// RealtimeHandler streams email job status updates to the owning user
// over server-sent events.
type RealtimeHandler struct {
	broadcaster domain.Broadcaster
	logger      logger.Logger
}

func NewRealtimeHandler(broadcaster domain.Broadcaster, logger logger.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (h *RealtimeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/realtime.stream", h.handleStream)
}

func (h *RealtimeHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteJSONError(w, "Missing user ID", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Streaming not supported")
		WriteJSONError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	updates, unsubscribe := h.broadcaster.Subscribe(userID)
	defer unsubscribe()

	h.logger.WithField("user_id", userID).Info("Realtime stream opened")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			h.logger.WithField("user_id", userID).Info("Realtime stream closed")
			return
		case update, open := <-updates:
			if !open {
				// Broadcaster shut down.
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				h.logger.WithField("error", err.Error()).Error("Failed to marshal status update")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
