package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/logger"
)

type GenerationHandler struct {
	service      domain.GenerationService
	documentRepo domain.GeneratedDocumentRepository
	logger       logger.Logger
}

func NewGenerationHandler(service domain.GenerationService, documentRepo domain.GeneratedDocumentRepository, logger logger.Logger) *GenerationHandler {
	return &GenerationHandler{
		service:      service,
		documentRepo: documentRepo,
		logger:       logger,
	}
}

func (h *GenerationHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/documents.generate", h.handleGenerate)
	mux.HandleFunc("/api/documents.preview", h.handlePreview)
	mux.HandleFunc("/api/documents.list", h.handleList)
}

func (h *GenerationHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	report, err := h.service.GenerateBulk(r.Context(), &req)
	if err != nil {
		h.logger.WithField("error", err.Error()).
			WithField("letter_type_id", req.LetterTypeID).
			Error("Failed to generate documents")
		writeServiceError(w, err)
		return
	}

	// A report with failures is still a 200: the batch ran, the caller
	// inspects per-record outcomes.
	writeJSON(w, http.StatusOK, report)
}

func (h *GenerationHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	preview, err := h.service.Preview(r.Context(), &req)
	if err != nil {
		h.logger.WithField("error", err.Error()).
			WithField("letter_type_id", req.LetterTypeID).
			Error("Failed to preview document")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

func (h *GenerationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	letterTypeID := query.Get("letter_type_id")
	if letterTypeID == "" {
		WriteJSONError(w, "Missing letter type ID", http.StatusBadRequest)
		return
	}

	limit := 20
	offset := 0
	if v := query.Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			WriteJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if v := query.Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			WriteJSONError(w, "Invalid offset", http.StatusBadRequest)
			return
		}
		offset = parsed
	}

	documents, total, err := h.documentRepo.ListByLetterType(r.Context(), letterTypeID, limit, offset)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list documents")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"total":     total,
	})
}
