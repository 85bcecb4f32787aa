package service

import (
	"context"
	"fmt"
	"time"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/cache"
	"github.com/letterforge/letterforge/pkg/logger"
)

const (
	letterTypeCacheTTL = 5 * time.Minute
	letterTypeCacheTag = "letter_types"
)

// LetterTypeService implements domain.LetterTypeService with a tagged
// read-through cache in front of the repository. Any write invalidates the
// whole letter type tag; definitions change rarely and per-key accounting
// is not worth it.
type LetterTypeService struct {
	repo       domain.LetterTypeRepository
	recordRepo domain.DynamicRecordRepository
	cache      cache.Cache
	logger     logger.Logger
}

// NewLetterTypeService creates a letter type service
func NewLetterTypeService(
	repo domain.LetterTypeRepository,
	recordRepo domain.DynamicRecordRepository,
	c cache.Cache,
	logger logger.Logger,
) *LetterTypeService {
	return &LetterTypeService{
		repo:       repo,
		recordRepo: recordRepo,
		cache:      c,
		logger:     logger,
	}
}

// CreateLetterType validates and persists a definition and creates its
// dynamic record table.
func (s *LetterTypeService) CreateLetterType(ctx context.Context, letterType *domain.LetterTypeDefinition) error {
	if err := letterType.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	letterType.CreatedAt = now
	letterType.UpdatedAt = now

	if err := s.repo.CreateLetterType(ctx, letterType); err != nil {
		return err
	}
	if err := s.recordRepo.EnsureTable(ctx, letterType.ID); err != nil {
		return fmt.Errorf("failed to create dynamic table: %w", err)
	}

	s.cache.InvalidateTag(letterTypeCacheTag)
	s.logger.WithFields(map[string]interface{}{
		"letter_type_id": letterType.ID,
		"type_key":       letterType.TypeKey,
	}).Info("letter type created")
	return nil
}

// GetLetterType returns a definition with its fields, cached.
func (s *LetterTypeService) GetLetterType(ctx context.Context, id string) (*domain.LetterTypeDefinition, error) {
	key := cache.EntityKey{Kind: "letter_type", ID: id}
	value, err := s.cache.GetOrSet(key, letterTypeCacheTTL, func() (interface{}, error) {
		return s.repo.GetLetterTypeByID(ctx, id)
	}, letterTypeCacheTag)
	if err != nil {
		return nil, err
	}
	return value.(*domain.LetterTypeDefinition), nil
}

// ListLetterTypes returns all definitions, uncached: the listing carries
// no fields and the repository query is cheap.
func (s *LetterTypeService) ListLetterTypes(ctx context.Context) ([]*domain.LetterTypeDefinition, error) {
	return s.repo.ListLetterTypes(ctx)
}

// AddField validates and appends a field to a letter type's schema.
func (s *LetterTypeService) AddField(ctx context.Context, field *domain.DynamicField) error {
	if err := field.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetLetterTypeByID(ctx, field.LetterTypeID); err != nil {
		return err
	}

	now := time.Now().UTC()
	field.CreatedAt = now
	field.UpdatedAt = now
	if err := s.repo.CreateField(ctx, field); err != nil {
		return err
	}
	s.cache.InvalidateTag(letterTypeCacheTag)
	return nil
}

// UpdateField updates a field's metadata. The field key is immutable once
// record data references it through the custom field bag.
func (s *LetterTypeService) UpdateField(ctx context.Context, field *domain.DynamicField) error {
	if err := field.Validate(); err != nil {
		return err
	}

	existing, err := s.findField(ctx, field.LetterTypeID, field.ID)
	if err != nil {
		return err
	}
	if existing.FieldKey != field.FieldKey {
		count, err := s.recordRepo.Count(ctx, field.LetterTypeID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.NewValidationError("field key cannot change once records reference it")
		}
	}

	field.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateField(ctx, field); err != nil {
		return err
	}
	s.cache.InvalidateTag(letterTypeCacheTag)
	return nil
}

// ListFields returns a letter type's fields in schema order.
func (s *LetterTypeService) ListFields(ctx context.Context, letterTypeID string) ([]*domain.DynamicField, error) {
	return s.repo.ListFields(ctx, letterTypeID)
}

func (s *LetterTypeService) findField(ctx context.Context, letterTypeID, fieldID string) (*domain.DynamicField, error) {
	fields, err := s.repo.ListFields(ctx, letterTypeID)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.ID == fieldID {
			return f, nil
		}
	}
	return nil, &domain.ErrNotFound{Entity: "dynamic field", ID: fieldID}
}
