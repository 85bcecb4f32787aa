// Package mocks provides testify mock implementations of the domain
// repository and collaborator interfaces for service tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/letterforge/letterforge/internal/domain"
)

// MockLetterTypeRepository is a mock implementation of the LetterTypeRepository interface
type MockLetterTypeRepository struct {
	mock.Mock
}

func (m *MockLetterTypeRepository) CreateLetterType(ctx context.Context, letterType *domain.LetterTypeDefinition) error {
	args := m.Called(ctx, letterType)
	return args.Error(0)
}

func (m *MockLetterTypeRepository) GetLetterTypeByID(ctx context.Context, id string) (*domain.LetterTypeDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LetterTypeDefinition), args.Error(1)
}

func (m *MockLetterTypeRepository) GetLetterTypeByKey(ctx context.Context, typeKey string) (*domain.LetterTypeDefinition, error) {
	args := m.Called(ctx, typeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LetterTypeDefinition), args.Error(1)
}

func (m *MockLetterTypeRepository) ListLetterTypes(ctx context.Context) ([]*domain.LetterTypeDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LetterTypeDefinition), args.Error(1)
}

func (m *MockLetterTypeRepository) CreateField(ctx context.Context, field *domain.DynamicField) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockLetterTypeRepository) UpdateField(ctx context.Context, field *domain.DynamicField) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockLetterTypeRepository) ListFields(ctx context.Context, letterTypeID string) ([]*domain.DynamicField, error) {
	args := m.Called(ctx, letterTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DynamicField), args.Error(1)
}

// MockDynamicRecordRepository is a mock implementation of the DynamicRecordRepository interface
type MockDynamicRecordRepository struct {
	mock.Mock
}

func (m *MockDynamicRecordRepository) EnsureTable(ctx context.Context, letterTypeID string) error {
	args := m.Called(ctx, letterTypeID)
	return args.Error(0)
}

func (m *MockDynamicRecordRepository) Import(ctx context.Context, letterTypeID string, records []*domain.DynamicRecord) error {
	args := m.Called(ctx, letterTypeID, records)
	return args.Error(0)
}

func (m *MockDynamicRecordRepository) Query(ctx context.Context, letterTypeID string, params domain.RecordQueryParams) (*domain.RecordPage, error) {
	args := m.Called(ctx, letterTypeID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecordPage), args.Error(1)
}

func (m *MockDynamicRecordRepository) GetByExternalID(ctx context.Context, letterTypeID, externalID string) (*domain.DynamicRecord, error) {
	args := m.Called(ctx, letterTypeID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DynamicRecord), args.Error(1)
}

func (m *MockDynamicRecordRepository) Count(ctx context.Context, letterTypeID string) (int, error) {
	args := m.Called(ctx, letterTypeID)
	return args.Int(0), args.Error(1)
}

// MockTemplateRepository is a mock implementation of the TemplateRepository interface
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) CreateTemplate(ctx context.Context, template *domain.DocumentTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) GetTemplateByID(ctx context.Context, id string, version int) (*domain.DocumentTemplate, error) {
	args := m.Called(ctx, id, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentTemplate), args.Error(1)
}

func (m *MockTemplateRepository) ListTemplates(ctx context.Context, letterTypeID string) ([]*domain.DocumentTemplate, error) {
	args := m.Called(ctx, letterTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DocumentTemplate), args.Error(1)
}

// MockGeneratedDocumentRepository is a mock implementation of the GeneratedDocumentRepository interface
type MockGeneratedDocumentRepository struct {
	mock.Mock
}

func (m *MockGeneratedDocumentRepository) Create(ctx context.Context, doc *domain.GeneratedDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockGeneratedDocumentRepository) GetByID(ctx context.Context, id string) (*domain.GeneratedDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedDocument), args.Error(1)
}

func (m *MockGeneratedDocumentRepository) ListByLetterType(ctx context.Context, letterTypeID string, limit, offset int) ([]*domain.GeneratedDocument, int, error) {
	args := m.Called(ctx, letterTypeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.GeneratedDocument), args.Int(1), args.Error(2)
}

// MockEmailJobRepository is a mock implementation of the EmailJobRepository interface
type MockEmailJobRepository struct {
	mock.Mock
}

func (m *MockEmailJobRepository) Create(ctx context.Context, job *domain.EmailJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockEmailJobRepository) Update(ctx context.Context, job *domain.EmailJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockEmailJobRepository) GetByID(ctx context.Context, id string) (*domain.EmailJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailJob), args.Error(1)
}

func (m *MockEmailJobRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.EmailJob, error) {
	args := m.Called(ctx, providerMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailJob), args.Error(1)
}

func (m *MockEmailJobRepository) List(ctx context.Context, params domain.EmailJobListParams) ([]*domain.EmailJob, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.EmailJob), args.Int(1), args.Error(2)
}

func (m *MockEmailJobRepository) ListPending(ctx context.Context, limit int) ([]*domain.EmailJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EmailJob), args.Error(1)
}

// MockWebhookEventRepository is a mock implementation of the WebhookEventRepository interface
type MockWebhookEventRepository struct {
	mock.Mock
}

func (m *MockWebhookEventRepository) Insert(ctx context.Context, event *domain.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockWebhookEventRepository) ListByJobID(ctx context.Context, emailJobID string) ([]*domain.WebhookEvent, error) {
	args := m.Called(ctx, emailJobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WebhookEvent), args.Error(1)
}

// MockDocumentStore is a mock implementation of the DocumentStore interface
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Save(ctx context.Context, name string, content *domain.DocumentContent) (string, error) {
	args := m.Called(ctx, name, content)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Load(ctx context.Context, fileRef string) (*domain.DocumentContent, error) {
	args := m.Called(ctx, fileRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentContent), args.Error(1)
}
