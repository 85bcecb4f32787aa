package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/letterforge/letterforge/internal/domain"
)

// TemplateRepository implements domain.TemplateRepository. Template rows
// are keyed by (id, version); uploading over an existing id inserts the
// next version instead of mutating, so generated documents keep pointing
// at the exact content they were rendered from.
type TemplateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func templateSelectFields() string {
	return `id, letter_type_id, name, version, content, placeholders, created_at, updated_at`
}

func scanTemplate(scanner interface {
	Scan(dest ...interface{}) error
}, tmpl *domain.DocumentTemplate) error {
	var contentJSON, placeholdersJSON []byte
	err := scanner.Scan(
		&tmpl.ID,
		&tmpl.LetterTypeID,
		&tmpl.Name,
		&tmpl.Version,
		&contentJSON,
		&placeholdersJSON,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(contentJSON, &tmpl.Content); err != nil {
		return fmt.Errorf("failed to unmarshal template content: %w", err)
	}
	if len(placeholdersJSON) > 0 {
		if err := json.Unmarshal(placeholdersJSON, &tmpl.Placeholders); err != nil {
			return fmt.Errorf("failed to unmarshal template placeholders: %w", err)
		}
	}
	return nil
}

// CreateTemplate inserts a template version. The version must be one above
// the current latest for the id (1 for a new id); the primary key on
// (id, version) rejects duplicates.
func (r *TemplateRepository) CreateTemplate(ctx context.Context, template *domain.DocumentTemplate) error {
	if err := template.Validate(); err != nil {
		return err
	}
	contentJSON, err := json.Marshal(template.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal template content: %w", err)
	}
	placeholdersJSON, err := json.Marshal(template.Placeholders)
	if err != nil {
		return fmt.Errorf("failed to marshal template placeholders: %w", err)
	}

	query := `
		INSERT INTO document_templates (id, letter_type_id, name, version, content, placeholders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.ExecContext(
		ctx,
		query,
		template.ID,
		template.LetterTypeID,
		template.Name,
		template.Version,
		contentJSON,
		placeholdersJSON,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

// GetTemplateByID returns the requested version, or the latest when
// version is 0
func (r *TemplateRepository) GetTemplateByID(ctx context.Context, id string, version int) (*domain.DocumentTemplate, error) {
	var row *sql.Row
	if version > 0 {
		query := `SELECT ` + templateSelectFields() + ` FROM document_templates WHERE id = $1 AND version = $2`
		row = r.db.QueryRowContext(ctx, query, id, version)
	} else {
		query := `SELECT ` + templateSelectFields() + ` FROM document_templates WHERE id = $1 ORDER BY version DESC LIMIT 1`
		row = r.db.QueryRowContext(ctx, query, id)
	}

	tmpl := &domain.DocumentTemplate{}
	err := scanTemplate(row, tmpl)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "template", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tmpl, nil
}

// ListTemplates returns the latest version of every template for a letter
// type
func (r *TemplateRepository) ListTemplates(ctx context.Context, letterTypeID string) ([]*domain.DocumentTemplate, error) {
	query := `
		SELECT DISTINCT ON (id) ` + templateSelectFields() + `
		FROM document_templates
		WHERE letter_type_id = $1
		ORDER BY id, version DESC
	`
	rows, err := r.db.QueryContext(ctx, query, letterTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.DocumentTemplate
	for rows.Next() {
		tmpl := &domain.DocumentTemplate{}
		if err := scanTemplate(rows, tmpl); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}
