package service

import (
	"context"
	"fmt"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/liquid"
)

// defaultEmailBodyTemplate is the Liquid body used when a letter type has
// no custom notification template configured.
const defaultEmailBodyTemplate = `<p>Dear {{ recipient_name }},</p>
<p>Your {{ letter_name }} from {{ organization_name }} is attached.</p>
{% if document_ref %}<p>Reference: {{ document_ref }}</p>{% endif %}
<p>Regards,<br/>{{ organization_name }}</p>`

// EmailComposer builds the outbound emails wrapping generated documents.
// The document body itself comes from the placeholder engine; the email
// around it is a Liquid template.
type EmailComposer struct {
	documentRepo     domain.GeneratedDocumentRepository
	recordRepo       domain.DynamicRecordRepository
	letterTypeRepo   domain.LetterTypeRepository
	organizationName string
}

// NewEmailComposer creates an email composer
func NewEmailComposer(
	documentRepo domain.GeneratedDocumentRepository,
	recordRepo domain.DynamicRecordRepository,
	letterTypeRepo domain.LetterTypeRepository,
	organizationName string,
) *EmailComposer {
	return &EmailComposer{
		documentRepo:     documentRepo,
		recordRepo:       recordRepo,
		letterTypeRepo:   letterTypeRepo,
		organizationName: organizationName,
	}
}

// ComposeForDocuments builds one send request per generated document,
// resolving each document back to its record for the recipient address.
// Any unresolvable document fails the whole batch before jobs exist.
func (c *EmailComposer) ComposeForDocuments(ctx context.Context, documentIDs []string, ownerUserID string) ([]*domain.EmailJobRequest, error) {
	if len(documentIDs) == 0 {
		return nil, domain.NewValidationError("no document ids")
	}

	reqs := make([]*domain.EmailJobRequest, 0, len(documentIDs))
	for _, id := range documentIDs {
		doc, err := c.documentRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !doc.Success {
			return nil, domain.NewValidationError(fmt.Sprintf("document %s was not generated successfully", id))
		}
		letterType, err := c.letterTypeRepo.GetLetterTypeByID(ctx, doc.LetterTypeID)
		if err != nil {
			return nil, err
		}
		record, err := c.recordRepo.GetByExternalID(ctx, doc.LetterTypeID, doc.RecordExternalID)
		if err != nil {
			return nil, err
		}

		req, err := c.Compose(ownerUserID, record, letterType.DisplayName, doc)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Compose renders one recipient's email request for a generated document.
func (c *EmailComposer) Compose(ownerUserID string, record *domain.DynamicRecord, letterName string, doc *domain.GeneratedDocument) (*domain.EmailJobRequest, error) {
	data := map[string]interface{}{
		"recipient_name":    record.Name,
		"letter_name":       letterName,
		"organization_name": c.organizationName,
	}
	if doc != nil {
		data["document_ref"] = doc.FileRef
	}

	body, err := liquid.RenderEmailTemplate(defaultEmailBodyTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("failed to compose email body: %w", err)
	}

	req := &domain.EmailJobRequest{
		OwnerUserID:    ownerUserID,
		RecipientEmail: record.Email,
		RecipientName:  record.Name,
		Subject:        fmt.Sprintf("%s from %s", letterName, c.organizationName),
		Body:           body,
	}
	if doc != nil {
		req.GeneratedDocumentID = doc.ID
		req.LetterTypeID = doc.LetterTypeID
	}
	return req, nil
}
