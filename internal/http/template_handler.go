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

type TemplateHandler struct {
	service *service.TemplateService
	logger  logger.Logger
}

func NewTemplateHandler(service *service.TemplateService, logger logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: service,
		logger:  logger,
	}
}

func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/templates.upload", h.handleUpload)
	mux.HandleFunc("/api/templates.get", h.handleGet)
	mux.HandleFunc("/api/templates.list", h.handleList)
}

type uploadTemplateRequest struct {
	LetterTypeID string                 `json:"letter_type_id"`
	TemplateID   string                 `json:"template_id,omitempty"`
	Name         string                 `json:"name"`
	Content      domain.DocumentContent `json:"content"`
}

func (h *TemplateHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req uploadTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.TemplateID == "" && req.LetterTypeID == "" {
		WriteJSONError(w, "Missing letter type ID", http.StatusBadRequest)
		return
	}

	template, err := h.service.Upload(r.Context(), req.LetterTypeID, req.TemplateID, req.Name, req.Content)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to upload template")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteJSONError(w, "Missing template ID", http.StatusBadRequest)
		return
	}

	// Version 0 means latest.
	version := 0
	if v := r.URL.Query().Get("version"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			WriteJSONError(w, "Invalid version", http.StatusBadRequest)
			return
		}
		version = parsed
	}

	template, err := h.service.Get(r.Context(), id, version)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.WithField("error", err.Error()).Error("Failed to get template")
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	letterTypeID := r.URL.Query().Get("letter_type_id")
	if letterTypeID == "" {
		WriteJSONError(w, "Missing letter type ID", http.StatusBadRequest)
		return
	}

	templates, err := h.service.List(r.Context(), letterTypeID)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list templates")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
	})
}
