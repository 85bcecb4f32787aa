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
	"github.com/letterforge/letterforge/internal/service"
	"github.com/letterforge/letterforge/pkg/logger"
)

func setupTemplateHandlerTest(t *testing.T) (*TemplateHandler, *mocks.MockTemplateRepository) {
	repo := &mocks.MockTemplateRepository{}
	svc := service.NewTemplateService(repo, service.NewTemplateEngine("Acme Corp"), logger.NewTestLogger(t))
	handler := NewTemplateHandler(svc, logger.NewTestLogger(t))
	return handler, repo
}

func TestTemplateHandlerUpload(t *testing.T) {
	handler, repo := setupTemplateHandlerTest(t)

	repo.On("CreateTemplate", mock.Anything, mock.MatchedBy(func(tpl *domain.DocumentTemplate) bool {
		return tpl.Version == 1 && tpl.LetterTypeID == "lt-1" && len(tpl.Placeholders) == 1
	})).Return(nil)

	body, _ := json.Marshal(uploadTemplateRequest{
		LetterTypeID: "lt-1",
		Name:         "Offer Letter",
		Content: domain.DocumentContent{
			Runs: []domain.TextRun{{Text: "Dear {{EmployeeName}},"}},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/templates.upload", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.handleUpload(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Template *domain.DocumentTemplate `json:"template"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Template.ID)
	assert.Equal(t, []string{"EmployeeName"}, resp.Template.Placeholders)
	repo.AssertExpectations(t)
}

func TestTemplateHandlerUploadRequiresLetterType(t *testing.T) {
	handler, repo := setupTemplateHandlerTest(t)

	body, _ := json.Marshal(uploadTemplateRequest{Name: "Orphan"})
	req := httptest.NewRequest(http.MethodPost, "/api/templates.upload", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.handleUpload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "CreateTemplate", mock.Anything, mock.Anything)
}

func TestTemplateHandlerGet(t *testing.T) {
	handler, repo := setupTemplateHandlerTest(t)

	t.Run("missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/templates.get", nil)
		w := httptest.NewRecorder()
		handler.handleGet(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid version", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/templates.get?id=tpl-1&version=latest", nil)
		w := httptest.NewRecorder()
		handler.handleGet(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		repo.On("GetTemplateByID", mock.Anything, "missing", 0).
			Return(nil, &domain.ErrNotFound{Entity: "template", ID: "missing"})

		req := httptest.NewRequest(http.MethodGet, "/api/templates.get?id=missing", nil)
		w := httptest.NewRecorder()
		handler.handleGet(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("specific version", func(t *testing.T) {
		repo.On("GetTemplateByID", mock.Anything, "tpl-1", 2).
			Return(&domain.DocumentTemplate{ID: "tpl-1", Version: 2, Name: "Offer Letter"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/templates.get?id=tpl-1&version=2", nil)
		w := httptest.NewRecorder()
		handler.handleGet(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Template *domain.DocumentTemplate `json:"template"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Template.Version)
	})
}

func TestTemplateHandlerList(t *testing.T) {
	handler, repo := setupTemplateHandlerTest(t)

	repo.On("ListTemplates", mock.Anything, "lt-1").
		Return([]*domain.DocumentTemplate{
			{ID: "tpl-1", Version: 3},
			{ID: "tpl-2", Version: 1},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/templates.list?letter_type_id=lt-1", nil)
	w := httptest.NewRecorder()
	handler.handleList(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Templates []*domain.DocumentTemplate `json:"templates"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Templates, 2)
	repo.AssertExpectations(t)
}
