package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/domain/mocks"
	"github.com/letterforge/letterforge/pkg/cache"
	"github.com/letterforge/letterforge/pkg/logger"
)

func newLetterTypeFixture(t *testing.T) (*LetterTypeService, *mocks.MockLetterTypeRepository, *mocks.MockDynamicRecordRepository) {
	repo := &mocks.MockLetterTypeRepository{}
	recordRepo := &mocks.MockDynamicRecordRepository{}
	svc := NewLetterTypeService(repo, recordRepo, cache.NewInMemoryCache(time.Minute), logger.NewTestLogger(t))
	return svc, repo, recordRepo
}

func TestCreateLetterTypeProvisionsTable(t *testing.T) {
	svc, repo, recordRepo := newLetterTypeFixture(t)

	letterType := &domain.LetterTypeDefinition{
		ID:          "lt-1",
		TypeKey:     "offer_letter",
		DisplayName: "Offer Letter",
		DataSource:  domain.DataSourceSpreadsheet,
	}
	repo.On("CreateLetterType", mock.Anything, letterType).Return(nil)
	recordRepo.On("EnsureTable", mock.Anything, "lt-1").Return(nil)

	require.NoError(t, svc.CreateLetterType(context.Background(), letterType))
	assert.False(t, letterType.CreatedAt.IsZero())
	repo.AssertExpectations(t)
	recordRepo.AssertExpectations(t)
}

func TestCreateLetterTypeRejectsInvalidDefinition(t *testing.T) {
	svc, repo, _ := newLetterTypeFixture(t)

	err := svc.CreateLetterType(context.Background(), &domain.LetterTypeDefinition{ID: "lt-1"})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "CreateLetterType", mock.Anything, mock.Anything)
}

func TestGetLetterTypeCachesReads(t *testing.T) {
	svc, repo, _ := newLetterTypeFixture(t)

	letterType := &domain.LetterTypeDefinition{
		ID:          "lt-1",
		TypeKey:     "offer_letter",
		DisplayName: "Offer Letter",
		DataSource:  domain.DataSourceSpreadsheet,
	}
	repo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(letterType, nil).Once()

	for i := 0; i < 3; i++ {
		got, err := svc.GetLetterType(context.Background(), "lt-1")
		require.NoError(t, err)
		assert.Equal(t, "offer_letter", got.TypeKey)
	}
	repo.AssertNumberOfCalls(t, "GetLetterTypeByID", 1)
}

func TestAddFieldInvalidatesCache(t *testing.T) {
	svc, repo, _ := newLetterTypeFixture(t)

	letterType := &domain.LetterTypeDefinition{
		ID:          "lt-1",
		TypeKey:     "offer_letter",
		DisplayName: "Offer Letter",
		DataSource:  domain.DataSourceSpreadsheet,
	}
	repo.On("GetLetterTypeByID", mock.Anything, "lt-1").Return(letterType, nil)
	repo.On("CreateField", mock.Anything, mock.Anything).Return(nil)

	// Warm the cache, then write through it.
	_, err := svc.GetLetterType(context.Background(), "lt-1")
	require.NoError(t, err)

	field := &domain.DynamicField{
		ID:           "f-1",
		LetterTypeID: "lt-1",
		FieldKey:     "Salary",
		DisplayName:  "Salary",
		FieldType:    domain.FieldTypeCurrency,
	}
	require.NoError(t, svc.AddField(context.Background(), field))

	_, err = svc.GetLetterType(context.Background(), "lt-1")
	require.NoError(t, err)
	// One read before the write, one GetLetterTypeByID inside AddField,
	// one fresh read after invalidation.
	repo.AssertNumberOfCalls(t, "GetLetterTypeByID", 3)
}

func TestUpdateFieldKeyImmutableWithRecords(t *testing.T) {
	svc, repo, recordRepo := newLetterTypeFixture(t)

	existing := &domain.DynamicField{
		ID:           "f-1",
		LetterTypeID: "lt-1",
		FieldKey:     "Salary",
		DisplayName:  "Salary",
		FieldType:    domain.FieldTypeCurrency,
	}
	repo.On("ListFields", mock.Anything, "lt-1").Return([]*domain.DynamicField{existing}, nil)

	t.Run("key change rejected once records exist", func(t *testing.T) {
		recordRepo.On("Count", mock.Anything, "lt-1").Return(42, nil).Once()

		update := *existing
		update.FieldKey = "BaseSalary"
		err := svc.UpdateField(context.Background(), &update)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		repo.AssertNotCalled(t, "UpdateField", mock.Anything, mock.Anything)
	})

	t.Run("key change allowed on empty record set", func(t *testing.T) {
		recordRepo.On("Count", mock.Anything, "lt-1").Return(0, nil).Once()
		repo.On("UpdateField", mock.Anything, mock.Anything).Return(nil).Once()

		update := *existing
		update.FieldKey = "BaseSalary"
		assert.NoError(t, svc.UpdateField(context.Background(), &update))
	})

	t.Run("metadata change never counts records", func(t *testing.T) {
		repo.On("UpdateField", mock.Anything, mock.Anything).Return(nil).Once()

		update := *existing
		update.DisplayName = "Annual Salary"
		assert.NoError(t, svc.UpdateField(context.Background(), &update))
	})
}

func TestUpdateFieldUnknownField(t *testing.T) {
	svc, repo, _ := newLetterTypeFixture(t)
	repo.On("ListFields", mock.Anything, "lt-1").Return([]*domain.DynamicField{}, nil)

	err := svc.UpdateField(context.Background(), &domain.DynamicField{
		ID:           "f-missing",
		LetterTypeID: "lt-1",
		FieldKey:     "Salary",
		DisplayName:  "Salary",
		FieldType:    domain.FieldTypeCurrency,
	})
	assert.True(t, domain.IsNotFound(err))
}
