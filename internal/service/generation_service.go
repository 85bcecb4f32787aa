package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/metrics"
	"github.com/letterforge/letterforge/pkg/logger"
)

// DefaultGenerationWorkers bounds the bulk generation pool.
const DefaultGenerationWorkers = 4

// GenerationService implements domain.GenerationService. One invocation
// runs validate, resolve, render, persist, report; nothing is carried
// between invocations.
type GenerationService struct {
	letterTypeRepo domain.LetterTypeRepository
	recordRepo     domain.DynamicRecordRepository
	templateRepo   domain.TemplateRepository
	documentRepo   domain.GeneratedDocumentRepository
	store          domain.DocumentStore
	engine         *TemplateEngine
	metrics        *metrics.Metrics
	logger         logger.Logger
	workers        int
}

// NewGenerationService creates a generation service
func NewGenerationService(
	letterTypeRepo domain.LetterTypeRepository,
	recordRepo domain.DynamicRecordRepository,
	templateRepo domain.TemplateRepository,
	documentRepo domain.GeneratedDocumentRepository,
	store domain.DocumentStore,
	engine *TemplateEngine,
	metrics *metrics.Metrics,
	logger logger.Logger,
	workers int,
) *GenerationService {
	if workers <= 0 {
		workers = DefaultGenerationWorkers
	}
	return &GenerationService{
		letterTypeRepo: letterTypeRepo,
		recordRepo:     recordRepo,
		templateRepo:   templateRepo,
		documentRepo:   documentRepo,
		store:          store,
		engine:         engine,
		metrics:        metrics,
		logger:         logger,
		workers:        workers,
	}
}

// GenerateBulk renders one document per requested record. Records run in a
// bounded pool; one record's failure, panic included, never cancels its
// siblings, and results come back in request order.
func (s *GenerationService) GenerateBulk(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationReport, error) {
	letterType, template, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	actor := domain.ActorFromContext(ctx)
	results := make([]*domain.GenerationItemResult, len(req.RecordIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, recordID := range req.RecordIDs {
		i, recordID := i, recordID
		g.Go(func() error {
			results[i] = s.generateOne(gctx, letterType, template, recordID, actor, req.AdditionalFieldData)
			// Failures are per-item; never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	report := &domain.GenerationReport{
		TotalDocuments:     len(req.RecordIDs),
		GeneratedDocuments: results,
	}
	for _, r := range results {
		if r.Success {
			report.SuccessfulDocuments++
		} else {
			report.FailedDocuments++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", r.RecordExternalID, r.Error))
		}
	}
	report.Success = report.FailedDocuments == 0
	return report, nil
}

// Preview renders a single record through the identical path without
// persisting anything; the output is byte-identical to what a real
// generation with the same inputs would produce.
func (s *GenerationService) Preview(ctx context.Context, req *domain.GenerationRequest) (*domain.PreviewResult, error) {
	if len(req.RecordIDs) != 1 {
		return nil, domain.NewValidationError("preview requires exactly one record id")
	}
	letterType, template, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	record, err := s.recordRepo.GetByExternalID(ctx, letterType.ID, req.RecordIDs[0])
	if err != nil {
		return nil, err
	}
	if record.Name == "" {
		return nil, domain.NewValidationError("record has no name")
	}

	rendered, warnings := s.engine.Render(&template.Content, record, nil, req.AdditionalFieldData)
	return &domain.PreviewResult{
		Content:     rendered,
		ContentType: "application/json",
		Warnings:    warnings,
	}, nil
}

// resolve performs the structural checks that abort a batch outright.
func (s *GenerationService) resolve(ctx context.Context, req *domain.GenerationRequest) (*domain.LetterTypeDefinition, *domain.DocumentTemplate, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, domain.NewStructuralError("invalid generation request", err)
	}

	letterType, err := s.letterTypeRepo.GetLetterTypeByID(ctx, req.LetterTypeID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil, domain.NewStructuralError("unknown letter type", err)
		}
		return nil, nil, err
	}

	template, err := s.resolveTemplate(ctx, letterType, req.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	return letterType, template, nil
}

func (s *GenerationService) resolveTemplate(ctx context.Context, letterType *domain.LetterTypeDefinition, templateID string) (*domain.DocumentTemplate, error) {
	if templateID != "" {
		template, err := s.templateRepo.GetTemplateByID(ctx, templateID, 0)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil, domain.NewStructuralError("unknown template", err)
			}
			return nil, err
		}
		return template, nil
	}

	templates, err := s.templateRepo.ListTemplates(ctx, letterType.ID)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, domain.NewStructuralError("letter type has no template", nil)
	}
	return templates[0], nil
}

// generateOne renders and persists a single record's document. It never
// returns an error: every failure, including a panic in the render path,
// is converted into the item's result.
func (s *GenerationService) generateOne(
	ctx context.Context,
	letterType *domain.LetterTypeDefinition,
	template *domain.DocumentTemplate,
	recordID string,
	actor string,
	extraValues map[string]string,
) (result *domain.GenerationItemResult) {
	result = &domain.GenerationItemResult{RecordExternalID: recordID}

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(map[string]interface{}{
				"letter_type_id": letterType.ID,
				"record_id":      recordID,
			}).Error(fmt.Sprintf("generation panicked: %v", r))
			result.Success = false
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
		if !result.Success {
			s.metrics.DocumentsFailed.Inc()
			s.persistOutcome(letterType, template, result, actor)
		}
	}()

	if err := ctx.Err(); err != nil {
		result.Error = fmt.Sprintf("generation aborted: %v", err)
		return result
	}

	record, err := s.recordRepo.GetByExternalID(ctx, letterType.ID, recordID)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if record.Name == "" {
		result.Error = "record has no name"
		return result
	}

	rendered, warnings := s.engine.Render(&template.Content, record, nil, extraValues)
	for _, w := range warnings {
		s.logger.WithField("record_id", recordID).Warn(w)
	}

	docName := fmt.Sprintf("%s-%s-v%d", letterType.TypeKey, record.ExternalID, template.Version)
	fileRef, err := s.store.Save(ctx, docName, rendered)
	if err != nil {
		result.Error = fmt.Sprintf("failed to store document: %v", err)
		return result
	}

	doc := &domain.GeneratedDocument{
		ID:               uuid.NewString(),
		LetterTypeID:     letterType.ID,
		RecordExternalID: record.ExternalID,
		TemplateID:       template.ID,
		TemplateVersion:  template.Version,
		FileRef:          fileRef,
		GeneratedBy:      actor,
		GeneratedAt:      time.Now().UTC(),
		Success:          true,
	}
	if err := s.documentRepo.Create(ctx, doc); err != nil {
		result.Error = fmt.Sprintf("failed to persist document: %v", err)
		return result
	}

	s.metrics.DocumentsGenerated.Inc()
	result.Success = true
	result.DocumentID = doc.ID
	result.FileRef = fileRef
	result.GeneratedBy = actor
	result.GeneratedAt = doc.GeneratedAt
	return result
}

// persistOutcome records a failed attempt for audit. Best effort: a
// failing audit write must not replace the original error.
func (s *GenerationService) persistOutcome(
	letterType *domain.LetterTypeDefinition,
	template *domain.DocumentTemplate,
	result *domain.GenerationItemResult,
	actor string,
) {
	doc := &domain.GeneratedDocument{
		ID:               uuid.NewString(),
		LetterTypeID:     letterType.ID,
		RecordExternalID: result.RecordExternalID,
		TemplateID:       template.ID,
		TemplateVersion:  template.Version,
		GeneratedBy:      actor,
		GeneratedAt:      time.Now().UTC(),
		Success:          false,
		ErrorMessage:     result.Error,
	}
	// Detached context: the record outlives a caller timeout that may be
	// the very reason the item failed.
	if err := s.documentRepo.Create(context.Background(), doc); err != nil {
		s.logger.WithField("record_id", result.RecordExternalID).
			Error(fmt.Sprintf("failed to persist generation outcome: %v", err))
	}
}
