package domain

import (
	"context"
	"time"
)

// DynamicRecord is one imported row of data (e.g. one employee) scoped to a
// letter type. Standard columns are first-class; everything else lives in
// the custom field bag. A record is created by import and superseded
// wholesale on re-import, never partially merged.
type DynamicRecord struct {
	ID           string `json:"id"`
	LetterTypeID string `json:"letter_type_id"`
	// ExternalID is the free-text business key, e.g. an employee id.
	ExternalID string `json:"external_id"`

	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	IsActive   bool   `json:"is_active"`

	// CustomFields is the open bag of non-standard columns, keyed by field
	// key.
	CustomFields map[string]string `json:"custom_fields"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StandardFieldKeys are the record columns every letter type carries
// regardless of its dynamic schema.
var StandardFieldKeys = []string{"EmployeeId", "EmployeeName", "Email", "Phone", "Department", "Position"}

// StandardValues exposes the standard columns under their placeholder keys.
func (r *DynamicRecord) StandardValues() map[string]string {
	return map[string]string{
		"EmployeeId":   r.ExternalID,
		"EmployeeName": r.Name,
		"Email":        r.Email,
		"Phone":        r.Phone,
		"Department":   r.Department,
		"Position":     r.Position,
	}
}

// RecordQueryParams filters a record page.
type RecordQueryParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
}

// Validate applies defaults and bounds.
func (p *RecordQueryParams) Validate() error {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	return nil
}

// RecordPage is one page of records plus the unfiltered total.
type RecordPage struct {
	Records    []*DynamicRecord `json:"records"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

// DynamicRecordRepository persists records in the per-letter-type dynamic
// tables. Import is atomic per letter type: a failure mid-import leaves
// either the pre-import state or the fully imported state.
type DynamicRecordRepository interface {
	// EnsureTable creates the letter type's dynamic table if missing.
	EnsureTable(ctx context.Context, letterTypeID string) error

	// Import clears all existing records for the letter type and bulk
	// inserts the replacement set inside one transaction.
	Import(ctx context.Context, letterTypeID string, records []*DynamicRecord) error

	// Query returns a filtered page of records.
	Query(ctx context.Context, letterTypeID string, params RecordQueryParams) (*RecordPage, error)

	// GetByExternalID is the point lookup used by the generation
	// orchestrator.
	GetByExternalID(ctx context.Context, letterTypeID, externalID string) (*DynamicRecord, error)

	// Count returns the number of records in the letter type's table.
	Count(ctx context.Context, letterTypeID string) (int, error)
}
