package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// DataSourceKind declares where a letter type's records come from.
type DataSourceKind string

const (
	DataSourceDatabase    DataSourceKind = "database"
	DataSourceSpreadsheet DataSourceKind = "spreadsheet"
)

// LetterTypeDefinition is a configured category of document (e.g. "Offer
// Letter") with its own field schema and dynamic record table.
type LetterTypeDefinition struct {
	ID          string         `json:"id"`
	TypeKey     string         `json:"type_key"`
	DisplayName string         `json:"display_name"`
	DataSource  DataSourceKind `json:"data_source"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Fields []*DynamicField `json:"fields,omitempty"`
}

var typeKeyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks the definition before persistence.
func (lt *LetterTypeDefinition) Validate() error {
	if lt.ID == "" {
		return NewValidationError("letter type id is required")
	}
	if lt.TypeKey == "" {
		return NewValidationError("letter type key is required")
	}
	if !typeKeyRegex.MatchString(lt.TypeKey) {
		return NewValidationError("letter type key must start with a letter and contain only letters, digits and underscores")
	}
	if lt.DisplayName == "" {
		return NewValidationError("letter type display name is required")
	}
	switch lt.DataSource {
	case DataSourceDatabase, DataSourceSpreadsheet:
	default:
		return NewValidationError("data source must be database or spreadsheet")
	}
	return nil
}

// DynamicTableName returns the deterministic name of the letter type's
// record table. The name is derived from the immutable id, so it is never
// reused across re-creation of a type key.
func (lt *LetterTypeDefinition) DynamicTableName() string {
	return DynamicTableNameFor(lt.ID)
}

// DynamicTableNameFor derives the dynamic record table name for a letter
// type id.
func DynamicTableNameFor(letterTypeID string) string {
	return "dynamic_records_" + strings.ReplaceAll(letterTypeID, "-", "")
}

// DynamicField is a user-defined, typed data slot attached to a letter type.
type DynamicField struct {
	ID           string    `json:"id"`
	LetterTypeID string    `json:"letter_type_id"`
	FieldKey     string    `json:"field_key"`
	DisplayName  string    `json:"display_name"`
	FieldType    FieldType `json:"field_type"`
	Required     bool      `json:"required"`
	DefaultValue string    `json:"default_value,omitempty"`
	OrderIndex   int       `json:"order_index"`
	// ValidationRules is an opaque JSON document, validated structurally
	// only.
	ValidationRules []byte    `json:"validation_rules,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var fieldKeyRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks the field before persistence.
func (f *DynamicField) Validate() error {
	if f.ID == "" {
		return NewValidationError("field id is required")
	}
	if f.LetterTypeID == "" {
		return NewValidationError("field letter type id is required")
	}
	if !fieldKeyRegex.MatchString(f.FieldKey) {
		return NewValidationError("field key must start with a letter and contain only letters, digits and underscores")
	}
	if f.DisplayName == "" {
		return NewValidationError("field display name is required")
	}
	if !f.FieldType.IsValid() {
		return NewValidationError("unknown field type: " + string(f.FieldType))
	}
	if f.OrderIndex < 0 {
		return NewValidationError("field order index cannot be negative")
	}
	if len(f.ValidationRules) > 0 && !isStructurallyValidJSON(f.ValidationRules) {
		return NewValidationError("validation rules must be a JSON document")
	}
	if f.DefaultValue != "" {
		// Default values are coerced lazily, but a default that can never
		// coerce is a configuration mistake worth rejecting up front.
		if _, err := f.FieldType.Parse(f.DefaultValue); err != nil {
			return NewValidationError("default value does not match field type " + string(f.FieldType))
		}
	}
	return nil
}

// LetterTypeRepository persists letter type definitions and their fields.
type LetterTypeRepository interface {
	CreateLetterType(ctx context.Context, letterType *LetterTypeDefinition) error
	GetLetterTypeByID(ctx context.Context, id string) (*LetterTypeDefinition, error)
	GetLetterTypeByKey(ctx context.Context, typeKey string) (*LetterTypeDefinition, error)
	ListLetterTypes(ctx context.Context) ([]*LetterTypeDefinition, error)

	CreateField(ctx context.Context, field *DynamicField) error
	UpdateField(ctx context.Context, field *DynamicField) error
	ListFields(ctx context.Context, letterTypeID string) ([]*DynamicField, error)
}

// LetterTypeService exposes letter type and field management to the
// pipeline and the import flow.
type LetterTypeService interface {
	CreateLetterType(ctx context.Context, letterType *LetterTypeDefinition) error
	GetLetterType(ctx context.Context, id string) (*LetterTypeDefinition, error)
	ListLetterTypes(ctx context.Context) ([]*LetterTypeDefinition, error)
	AddField(ctx context.Context, field *DynamicField) error
	UpdateField(ctx context.Context, field *DynamicField) error
	ListFields(ctx context.Context, letterTypeID string) ([]*DynamicField, error)
}
