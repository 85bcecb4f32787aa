package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/service"
	"github.com/letterforge/letterforge/pkg/logger"
)

type EmailJobHandler struct {
	service   domain.EmailJobService
	composer  *service.EmailComposer
	eventRepo domain.WebhookEventRepository
	logger    logger.Logger
}

func NewEmailJobHandler(svc domain.EmailJobService, composer *service.EmailComposer, eventRepo domain.WebhookEventRepository, logger logger.Logger) *EmailJobHandler {
	return &EmailJobHandler{
		service:   svc,
		composer:  composer,
		eventRepo: eventRepo,
		logger:    logger,
	}
}

func (h *EmailJobHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/emailJobs.create", h.handleCreate)
	mux.HandleFunc("/api/emailJobs.createForDocuments", h.handleCreateForDocuments)
	mux.HandleFunc("/api/emailJobs.list", h.handleList)
	mux.HandleFunc("/api/emailJobs.retry", h.handleRetry)
	mux.HandleFunc("/api/emailJobs.sendPending", h.handleSendPending)
	mux.HandleFunc("/api/emailJobs.events", h.handleEvents)
}

type createEmailJobsRequest struct {
	Jobs []*domain.EmailJobRequest `json:"jobs"`
}

func (h *EmailJobHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createEmailJobsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	jobs, err := h.service.CreateJobs(r.Context(), req.Jobs)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to create email jobs")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"jobs": jobs,
	})
}

type createForDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids"`
	OwnerUserID string   `json:"owner_user_id"`
}

// handleCreateForDocuments turns already generated documents into pending
// email jobs, composing subject and body from each document's record.
func (h *EmailJobHandler) handleCreateForDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createForDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	reqs, err := h.composer.ComposeForDocuments(r.Context(), req.DocumentIDs, req.OwnerUserID)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.WithField("error", err.Error()).Error("Failed to compose emails for documents")
		}
		writeServiceError(w, err)
		return
	}

	jobs, err := h.service.CreateJobs(r.Context(), reqs)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to create email jobs")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"jobs": jobs,
	})
}

func (h *EmailJobHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	params := domain.EmailJobListParams{
		LetterTypeID:   query.Get("letter_type_id"),
		RecipientEmail: query.Get("recipient_email"),
	}
	if v := query.Get("status"); v != "" {
		status := domain.EmailJobStatus(v)
		if !status.IsValid() {
			WriteJSONError(w, fmt.Sprintf("Unknown status %q", v), http.StatusBadRequest)
			return
		}
		params.Status = status
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			WriteJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		params.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			WriteJSONError(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		params.Offset = offset
	}

	jobs, total, err := h.service.List(r.Context(), params)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list email jobs")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"total": total,
	})
}

func (h *EmailJobHandler) handleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.JobID == "" {
		WriteJSONError(w, "Missing job ID", http.StatusBadRequest)
		return
	}

	job, err := h.service.Retry(r.Context(), req.JobID)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.WithField("error", err.Error()).
				WithField("job_id", req.JobID).
				Error("Failed to retry email job")
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job": job,
	})
}

func (h *EmailJobHandler) handleSendPending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.service.SendPending(r.Context()); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to send pending email jobs")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// handleEvents returns the recorded provider events for one job, oldest
// first.
func (h *EmailJobHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		WriteJSONError(w, "Missing job ID", http.StatusBadRequest)
		return
	}

	events, err := h.eventRepo.ListByJobID(r.Context(), jobID)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list webhook events")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}
