package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/domain/mocks"
	"github.com/letterforge/letterforge/pkg/logger"
)

func setupLetterTypeHandlerTest(t *testing.T) (*LetterTypeHandler, *mocks.MockLetterTypeService) {
	service := &mocks.MockLetterTypeService{}
	handler := NewLetterTypeHandler(service, logger.NewTestLogger(t))
	return handler, service
}

func TestLetterTypeHandlerCreate(t *testing.T) {
	handler, service := setupLetterTypeHandlerTest(t)

	service.On("CreateLetterType", mock.Anything, mock.MatchedBy(func(lt *domain.LetterTypeDefinition) bool {
		return lt.TypeKey == "offer_letter"
	})).Return(nil)

	body, _ := json.Marshal(map[string]interface{}{
		"id":           "lt-1",
		"type_key":     "offer_letter",
		"display_name": "Offer Letter",
		"data_source":  "spreadsheet",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/letterTypes.create", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.handleCreate(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	service.AssertExpectations(t)
}

func TestLetterTypeHandlerCreateValidationError(t *testing.T) {
	handler, service := setupLetterTypeHandlerTest(t)

	service.On("CreateLetterType", mock.Anything, mock.Anything).
		Return(domain.NewValidationError("letter type key is required"))

	req := httptest.NewRequest(http.MethodPost, "/api/letterTypes.create", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	handler.handleCreate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLetterTypeHandlerGet(t *testing.T) {
	handler, service := setupLetterTypeHandlerTest(t)

	t.Run("missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/letterTypes.get", nil)
		w := httptest.NewRecorder()
		handler.handleGet(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		service.On("GetLetterType", mock.Anything, "lt-missing").
			Return(nil, &domain.ErrNotFound{Entity: "letter type", ID: "lt-missing"})

		req := httptest.NewRequest(http.MethodGet, "/api/letterTypes.get?id=lt-missing", nil)
		w := httptest.NewRecorder()
		handler.handleGet(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("found", func(t *testing.T) {
		service.On("GetLetterType", mock.Anything, "lt-1").Return(&domain.LetterTypeDefinition{
			ID:      "lt-1",
			TypeKey: "offer_letter",
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/letterTypes.get?id=lt-1", nil)
		w := httptest.NewRecorder()
		handler.handleGet(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			LetterType domain.LetterTypeDefinition `json:"letter_type"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "offer_letter", response.LetterType.TypeKey)
	})
}

func TestLetterTypeHandlerUpdateFieldKeyConflict(t *testing.T) {
	handler, service := setupLetterTypeHandlerTest(t)

	service.On("UpdateField", mock.Anything, mock.Anything).
		Return(domain.NewValidationError("field key cannot change once records reference it"))

	body, _ := json.Marshal(map[string]interface{}{
		"id":             "f-1",
		"letter_type_id": "lt-1",
		"field_key":      "BaseSalary",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/letterTypes.updateField", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.handleUpdateField(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Contains(t, response["error"], "field key cannot change")
}
