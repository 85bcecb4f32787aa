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

// RecordHandler covers spreadsheet ingestion and record queries for a
// letter type.
type RecordHandler struct {
	importService *service.ImportService
	recordRepo    domain.DynamicRecordRepository
	logger        logger.Logger
}

func NewRecordHandler(importService *service.ImportService, recordRepo domain.DynamicRecordRepository, logger logger.Logger) *RecordHandler {
	return &RecordHandler{
		importService: importService,
		recordRepo:    recordRepo,
		logger:        logger,
	}
}

func (h *RecordHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/records.import", h.handleImport)
	mux.HandleFunc("/api/records.inferSchema", h.handleInferSchema)
	mux.HandleFunc("/api/records.list", h.handleList)
	mux.HandleFunc("/api/records.get", h.handleGet)
}

type importRequest struct {
	LetterTypeID string            `json:"letter_type_id"`
	Data         string            `json:"data"`
	Overrides    map[string]string `json:"overrides,omitempty"`
}

func (h *RecordHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.LetterTypeID == "" {
		WriteJSONError(w, "Missing letter type ID", http.StatusBadRequest)
		return
	}
	if req.Data == "" {
		WriteJSONError(w, "Missing spreadsheet data", http.StatusBadRequest)
		return
	}

	result, err := h.importService.Import(r.Context(), req.LetterTypeID, []byte(req.Data), req.Overrides)
	if err != nil {
		h.logger.WithField("error", err.Error()).
			WithField("letter_type_id", req.LetterTypeID).
			Error("Failed to import records")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *RecordHandler) handleInferSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Data == "" {
		WriteJSONError(w, "Missing spreadsheet data", http.StatusBadRequest)
		return
	}

	columns, err := h.importService.InferSchema([]byte(req.Data))
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to infer schema")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns": columns,
	})
}

func (h *RecordHandler) handleList(w http.ResponseWriter, r *http.Request) {
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

	params := domain.RecordQueryParams{
		Search: query.Get("search"),
	}
	if v := query.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			WriteJSONError(w, "Invalid page", http.StatusBadRequest)
			return
		}
		params.Page = page
	}
	if v := query.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			WriteJSONError(w, "Invalid page size", http.StatusBadRequest)
			return
		}
		params.PageSize = size
	}
	if v := query.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			WriteJSONError(w, "Invalid is_active", http.StatusBadRequest)
			return
		}
		params.IsActive = &active
	}

	page, err := h.recordRepo.Query(r.Context(), letterTypeID, params)
	if err != nil {
		h.logger.WithField("error", err.Error()).
			WithField("letter_type_id", letterTypeID).
			Error("Failed to query records")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *RecordHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	letterTypeID := r.URL.Query().Get("letter_type_id")
	externalID := r.URL.Query().Get("external_id")
	if letterTypeID == "" || externalID == "" {
		WriteJSONError(w, "Missing letter type ID or external ID", http.StatusBadRequest)
		return
	}

	record, err := h.recordRepo.GetByExternalID(r.Context(), letterTypeID, externalID)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.WithField("error", err.Error()).Error("Failed to get record")
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"record": record,
	})
}
