package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/logger"
)

type LetterTypeHandler struct {
	service domain.LetterTypeService
	logger  logger.Logger
}

func NewLetterTypeHandler(service domain.LetterTypeService, logger logger.Logger) *LetterTypeHandler {
	return &LetterTypeHandler{
		service: service,
		logger:  logger,
	}
}

func (h *LetterTypeHandler) RegisterRoutes(mux *http.ServeMux) {
	// Register RPC-style endpoints with dot notation
	mux.HandleFunc("/api/letterTypes.create", h.handleCreate)
	mux.HandleFunc("/api/letterTypes.get", h.handleGet)
	mux.HandleFunc("/api/letterTypes.list", h.handleList)
	mux.HandleFunc("/api/letterTypes.addField", h.handleAddField)
	mux.HandleFunc("/api/letterTypes.updateField", h.handleUpdateField)
	mux.HandleFunc("/api/letterTypes.listFields", h.handleListFields)
}

func (h *LetterTypeHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var letterType domain.LetterTypeDefinition
	if err := json.NewDecoder(r.Body).Decode(&letterType); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.service.CreateLetterType(r.Context(), &letterType); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to create letter type")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"letter_type": letterType,
	})
}

func (h *LetterTypeHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteJSONError(w, "Missing letter type ID", http.StatusBadRequest)
		return
	}

	letterType, err := h.service.GetLetterType(r.Context(), id)
	if err != nil {
		if !domain.IsNotFound(err) {
			h.logger.WithField("error", err.Error()).Error("Failed to get letter type")
		}
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"letter_type": letterType,
	})
}

func (h *LetterTypeHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	letterTypes, err := h.service.ListLetterTypes(r.Context())
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list letter types")
		WriteJSONError(w, "Failed to list letter types", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"letter_types": letterTypes,
	})
}

func (h *LetterTypeHandler) handleAddField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var field domain.DynamicField
	if err := json.NewDecoder(r.Body).Decode(&field); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.service.AddField(r.Context(), &field); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to add field")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"field": field,
	})
}

func (h *LetterTypeHandler) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var field domain.DynamicField
	if err := json.NewDecoder(r.Body).Decode(&field); err != nil {
		WriteJSONError(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateField(r.Context(), &field); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to update field")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"field": field,
	})
}

func (h *LetterTypeHandler) handleListFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	letterTypeID := r.URL.Query().Get("letter_type_id")
	if letterTypeID == "" {
		WriteJSONError(w, "Missing letter type ID", http.StatusBadRequest)
		return
	}

	fields, err := h.service.ListFields(r.Context(), letterTypeID)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to list fields")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields": fields,
	})
}
