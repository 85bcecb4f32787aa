package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/letterforge/letterforge/internal/domain"
)

// MockLetterTypeService is a testify mock for domain.LetterTypeService.
type MockLetterTypeService struct {
	mock.Mock
}

func (m *MockLetterTypeService) CreateLetterType(ctx context.Context, letterType *domain.LetterTypeDefinition) error {
	args := m.Called(ctx, letterType)
	return args.Error(0)
}

func (m *MockLetterTypeService) GetLetterType(ctx context.Context, id string) (*domain.LetterTypeDefinition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LetterTypeDefinition), args.Error(1)
}

func (m *MockLetterTypeService) ListLetterTypes(ctx context.Context) ([]*domain.LetterTypeDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LetterTypeDefinition), args.Error(1)
}

func (m *MockLetterTypeService) AddField(ctx context.Context, field *domain.DynamicField) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockLetterTypeService) UpdateField(ctx context.Context, field *domain.DynamicField) error {
	args := m.Called(ctx, field)
	return args.Error(0)
}

func (m *MockLetterTypeService) ListFields(ctx context.Context, letterTypeID string) ([]*domain.DynamicField, error) {
	args := m.Called(ctx, letterTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DynamicField), args.Error(1)
}

// MockGenerationService is a testify mock for domain.GenerationService.
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) GenerateBulk(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GenerationReport), args.Error(1)
}

func (m *MockGenerationService) Preview(ctx context.Context, req *domain.GenerationRequest) (*domain.PreviewResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PreviewResult), args.Error(1)
}

// MockEmailJobService is a testify mock for domain.EmailJobService.
type MockEmailJobService struct {
	mock.Mock
}

func (m *MockEmailJobService) CreateJobs(ctx context.Context, reqs []*domain.EmailJobRequest) ([]*domain.EmailJob, error) {
	args := m.Called(ctx, reqs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EmailJob), args.Error(1)
}

func (m *MockEmailJobService) SendPending(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEmailJobService) Retry(ctx context.Context, jobID string) (*domain.EmailJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmailJob), args.Error(1)
}

func (m *MockEmailJobService) List(ctx context.Context, params domain.EmailJobListParams) ([]*domain.EmailJob, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.EmailJob), args.Int(1), args.Error(2)
}

// MockWebhookService is a testify mock for domain.WebhookService.
type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) VerifySignature(payload []byte, signature string) bool {
	args := m.Called(payload, signature)
	return args.Bool(0)
}

func (m *MockWebhookService) ProcessBatch(ctx context.Context, payload []byte) ([]domain.WebhookEventResult, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WebhookEventResult), args.Error(1)
}
