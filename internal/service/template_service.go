package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/logger"
)

// TemplateService manages document template uploads. Uploading over an
// existing template id creates the next version; placeholder extraction
// happens at upload time so consumers never rescan the body.
type TemplateService struct {
	repo   domain.TemplateRepository
	engine *TemplateEngine
	logger logger.Logger
}

// NewTemplateService creates a template service
func NewTemplateService(repo domain.TemplateRepository, engine *TemplateEngine, logger logger.Logger) *TemplateService {
	return &TemplateService{repo: repo, engine: engine, logger: logger}
}

// Upload stores a template body. An empty templateID starts a new template
// at version 1; an existing id gets the next version.
func (s *TemplateService) Upload(ctx context.Context, letterTypeID, templateID, name string, content domain.DocumentContent) (*domain.DocumentTemplate, error) {
	version := 1
	if templateID == "" {
		templateID = uuid.NewString()
	} else {
		latest, err := s.repo.GetTemplateByID(ctx, templateID, 0)
		if err != nil && !domain.IsNotFound(err) {
			return nil, err
		}
		if latest != nil {
			version = latest.Version + 1
			if name == "" {
				name = latest.Name
			}
			if letterTypeID == "" {
				letterTypeID = latest.LetterTypeID
			}
		}
	}

	now := time.Now().UTC()
	template := &domain.DocumentTemplate{
		ID:           templateID,
		LetterTypeID: letterTypeID,
		Name:         name,
		Version:      version,
		Content:      content,
		Placeholders: s.engine.ExtractPlaceholders(&content),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"template_id": template.ID,
		"version":     template.Version,
	}).Info("template uploaded")
	return template, nil
}

// Get returns a template version, latest when version is 0.
func (s *TemplateService) Get(ctx context.Context, id string, version int) (*domain.DocumentTemplate, error) {
	return s.repo.GetTemplateByID(ctx, id, version)
}

// List returns the latest version of each template for a letter type.
func (s *TemplateService) List(ctx context.Context, letterTypeID string) ([]*domain.DocumentTemplate, error) {
	return s.repo.ListTemplates(ctx, letterTypeID)
}
