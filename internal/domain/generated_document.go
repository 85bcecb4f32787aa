package domain

import (
	"context"
	"time"
)

// GeneratedDocument is the immutable result of one generation attempt for
// one (letter type, record, template version) triple. Regeneration creates
// a new row, never mutates an old one.
type GeneratedDocument struct {
	ID               string    `json:"id"`
	LetterTypeID     string    `json:"letter_type_id"`
	RecordExternalID string    `json:"record_external_id"`
	TemplateID       string    `json:"template_id"`
	TemplateVersion  int       `json:"template_version"`
	FileRef          string    `json:"file_ref,omitempty"`
	GeneratedBy      string    `json:"generated_by"`
	GeneratedAt      time.Time `json:"generated_at"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// GenerationRequest is the bulk generation call contract.
type GenerationRequest struct {
	LetterTypeID string   `json:"letter_type_id"`
	RecordIDs    []string `json:"record_ids"`
	// TemplateID is optional; empty selects the letter type's latest
	// template.
	TemplateID string `json:"template_id,omitempty"`
	// SignatureID is accepted for request compatibility but not yet
	// resolved; rendered documents carry no signature block.
	SignatureID string `json:"signature_id,omitempty"`
	// AdditionalFieldData overrides every other value source during
	// rendering.
	AdditionalFieldData map[string]string `json:"additional_field_data,omitempty"`
}

// Validate rejects structural problems only; per-record problems surface
// in the batch report instead.
func (r *GenerationRequest) Validate() error {
	if r.LetterTypeID == "" {
		return NewValidationError("letter type id is required")
	}
	if len(r.RecordIDs) == 0 {
		return NewValidationError("record id list is empty")
	}
	return nil
}

// GenerationItemResult is one record's outcome inside a batch, reported in
// request order.
type GenerationItemResult struct {
	RecordExternalID string    `json:"record_external_id"`
	Success          bool      `json:"success"`
	DocumentID       string    `json:"document_id,omitempty"`
	FileRef          string    `json:"file_ref,omitempty"`
	GeneratedBy      string    `json:"generated_by,omitempty"`
	GeneratedAt      time.Time `json:"generated_at,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// GenerationReport aggregates a bulk generation call. A structural failure
// produces no report at all; a partial failure produces a report with both
// successes and errors.
type GenerationReport struct {
	Success             bool                    `json:"success"`
	TotalDocuments      int                     `json:"total_documents"`
	SuccessfulDocuments int                     `json:"successful_documents"`
	FailedDocuments     int                     `json:"failed_documents"`
	GeneratedDocuments  []*GenerationItemResult `json:"generated_documents"`
	Errors              []string                `json:"errors,omitempty"`
	Warnings            []string                `json:"warnings,omitempty"`
}

// PreviewResult is a rendered document returned as bytes, never persisted.
type PreviewResult struct {
	Content     *DocumentContent `json:"content"`
	ContentType string           `json:"content_type"`
	Warnings    []string         `json:"warnings,omitempty"`
}

// GeneratedDocumentRepository persists generation outcomes append-only.
type GeneratedDocumentRepository interface {
	Create(ctx context.Context, doc *GeneratedDocument) error
	GetByID(ctx context.Context, id string) (*GeneratedDocument, error)
	ListByLetterType(ctx context.Context, letterTypeID string, limit, offset int) ([]*GeneratedDocument, int, error)
}

// GenerationService drives single and bulk document generation.
type GenerationService interface {
	GenerateBulk(ctx context.Context, req *GenerationRequest) (*GenerationReport, error)
	Preview(ctx context.Context, req *GenerationRequest) (*PreviewResult, error)
}
