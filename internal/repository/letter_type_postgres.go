package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/letterforge/letterforge/internal/domain"
)

// LetterTypeRepository implements domain.LetterTypeRepository backed by
// Postgres.
type LetterTypeRepository struct {
	db *sql.DB
}

// NewLetterTypeRepository creates a new letter type repository
func NewLetterTypeRepository(db *sql.DB) *LetterTypeRepository {
	return &LetterTypeRepository{db: db}
}

func letterTypeSelectFields() string {
	return `id, type_key, display_name, data_source, is_active, created_at, updated_at`
}

func scanLetterType(scanner interface {
	Scan(dest ...interface{}) error
}, lt *domain.LetterTypeDefinition) error {
	return scanner.Scan(
		&lt.ID,
		&lt.TypeKey,
		&lt.DisplayName,
		&lt.DataSource,
		&lt.IsActive,
		&lt.CreatedAt,
		&lt.UpdatedAt,
	)
}

// CreateLetterType adds a new letter type definition
func (r *LetterTypeRepository) CreateLetterType(ctx context.Context, letterType *domain.LetterTypeDefinition) error {
	query := `
		INSERT INTO letter_types (id, type_key, display_name, data_source, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		letterType.ID,
		letterType.TypeKey,
		letterType.DisplayName,
		letterType.DataSource,
		letterType.IsActive,
		letterType.CreatedAt,
		letterType.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create letter type: %w", err)
	}
	return nil
}

// GetLetterTypeByID retrieves a letter type with its fields
func (r *LetterTypeRepository) GetLetterTypeByID(ctx context.Context, id string) (*domain.LetterTypeDefinition, error) {
	query := `SELECT ` + letterTypeSelectFields() + ` FROM letter_types WHERE id = $1`

	lt := &domain.LetterTypeDefinition{}
	err := scanLetterType(r.db.QueryRowContext(ctx, query, id), lt)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "letter type", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get letter type: %w", err)
	}

	fields, err := r.ListFields(ctx, lt.ID)
	if err != nil {
		return nil, err
	}
	lt.Fields = fields
	return lt, nil
}

// GetLetterTypeByKey retrieves a letter type by its unique type key
func (r *LetterTypeRepository) GetLetterTypeByKey(ctx context.Context, typeKey string) (*domain.LetterTypeDefinition, error) {
	query := `SELECT ` + letterTypeSelectFields() + ` FROM letter_types WHERE type_key = $1`

	lt := &domain.LetterTypeDefinition{}
	err := scanLetterType(r.db.QueryRowContext(ctx, query, typeKey), lt)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "letter type", ID: typeKey}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get letter type by key: %w", err)
	}

	fields, err := r.ListFields(ctx, lt.ID)
	if err != nil {
		return nil, err
	}
	lt.Fields = fields
	return lt, nil
}

// ListLetterTypes returns all letter type definitions without their fields
func (r *LetterTypeRepository) ListLetterTypes(ctx context.Context) ([]*domain.LetterTypeDefinition, error) {
	query := `SELECT ` + letterTypeSelectFields() + ` FROM letter_types ORDER BY display_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list letter types: %w", err)
	}
	defer rows.Close()

	var letterTypes []*domain.LetterTypeDefinition
	for rows.Next() {
		lt := &domain.LetterTypeDefinition{}
		if err := scanLetterType(rows, lt); err != nil {
			return nil, fmt.Errorf("failed to scan letter type: %w", err)
		}
		letterTypes = append(letterTypes, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating letter types: %w", err)
	}
	return letterTypes, nil
}

func dynamicFieldSelectFields() string {
	return `id, letter_type_id, field_key, display_name, field_type, required,
			default_value, order_index, validation_rules, created_at, updated_at`
}

func scanDynamicField(scanner interface {
	Scan(dest ...interface{}) error
}, f *domain.DynamicField) error {
	var defaultValue sql.NullString
	var validationRules []byte
	err := scanner.Scan(
		&f.ID,
		&f.LetterTypeID,
		&f.FieldKey,
		&f.DisplayName,
		&f.FieldType,
		&f.Required,
		&defaultValue,
		&f.OrderIndex,
		&validationRules,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if defaultValue.Valid {
		f.DefaultValue = defaultValue.String
	}
	f.ValidationRules = validationRules
	return nil
}

// CreateField adds a new dynamic field to a letter type
func (r *LetterTypeRepository) CreateField(ctx context.Context, field *domain.DynamicField) error {
	query := `
		INSERT INTO dynamic_fields (
			id, letter_type_id, field_key, display_name, field_type, required,
			default_value, order_index, validation_rules, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		field.ID,
		field.LetterTypeID,
		field.FieldKey,
		field.DisplayName,
		field.FieldType,
		field.Required,
		nullString(field.DefaultValue),
		field.OrderIndex,
		nullBytes(field.ValidationRules),
		field.CreatedAt,
		field.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dynamic field: %w", err)
	}
	return nil
}

// UpdateField updates a dynamic field. The field key is immutable once
// record data references it, which the service layer enforces.
func (r *LetterTypeRepository) UpdateField(ctx context.Context, field *domain.DynamicField) error {
	query := `
		UPDATE dynamic_fields
		SET display_name = $1, field_type = $2, required = $3, default_value = $4,
			order_index = $5, validation_rules = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(
		ctx,
		query,
		field.DisplayName,
		field.FieldType,
		field.Required,
		nullString(field.DefaultValue),
		field.OrderIndex,
		nullBytes(field.ValidationRules),
		field.UpdatedAt,
		field.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dynamic field: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return &domain.ErrNotFound{Entity: "dynamic field", ID: field.ID}
	}
	return nil
}

// ListFields returns a letter type's fields in order index order
func (r *LetterTypeRepository) ListFields(ctx context.Context, letterTypeID string) ([]*domain.DynamicField, error) {
	query := `SELECT ` + dynamicFieldSelectFields() + `
		FROM dynamic_fields WHERE letter_type_id = $1 ORDER BY order_index`

	rows, err := r.db.QueryContext(ctx, query, letterTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dynamic fields: %w", err)
	}
	defer rows.Close()

	var fields []*domain.DynamicField
	for rows.Next() {
		f := &domain.DynamicField{}
		if err := scanDynamicField(rows, f); err != nil {
			return nil, fmt.Errorf("failed to scan dynamic field: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dynamic fields: %w", err)
	}
	return fields, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
