package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/letterforge/letterforge/internal/domain"
)

// GeneratedDocumentRepository implements domain.GeneratedDocumentRepository.
// Rows are append-only; regeneration creates new rows.
type GeneratedDocumentRepository struct {
	db *sql.DB
}

// NewGeneratedDocumentRepository creates a new generated document repository
func NewGeneratedDocumentRepository(db *sql.DB) *GeneratedDocumentRepository {
	return &GeneratedDocumentRepository{db: db}
}

func generatedDocumentSelectFields() string {
	return `id, letter_type_id, record_external_id, template_id, template_version,
			file_ref, generated_by, generated_at, success, error_message`
}

func scanGeneratedDocument(scanner interface {
	Scan(dest ...interface{}) error
}, doc *domain.GeneratedDocument) error {
	var fileRef, errorMessage sql.NullString
	err := scanner.Scan(
		&doc.ID,
		&doc.LetterTypeID,
		&doc.RecordExternalID,
		&doc.TemplateID,
		&doc.TemplateVersion,
		&fileRef,
		&doc.GeneratedBy,
		&doc.GeneratedAt,
		&doc.Success,
		&errorMessage,
	)
	if err != nil {
		return err
	}
	doc.FileRef = fileRef.String
	doc.ErrorMessage = errorMessage.String
	return nil
}

// Create records one generation outcome
func (r *GeneratedDocumentRepository) Create(ctx context.Context, doc *domain.GeneratedDocument) error {
	query := `
		INSERT INTO generated_documents (
			id, letter_type_id, record_external_id, template_id, template_version,
			file_ref, generated_by, generated_at, success, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.LetterTypeID,
		doc.RecordExternalID,
		doc.TemplateID,
		doc.TemplateVersion,
		nullString(doc.FileRef),
		doc.GeneratedBy,
		doc.GeneratedAt,
		doc.Success,
		nullString(doc.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to create generated document: %w", err)
	}
	return nil
}

// GetByID retrieves one generated document
func (r *GeneratedDocumentRepository) GetByID(ctx context.Context, id string) (*domain.GeneratedDocument, error) {
	query := `SELECT ` + generatedDocumentSelectFields() + ` FROM generated_documents WHERE id = $1`

	doc := &domain.GeneratedDocument{}
	err := scanGeneratedDocument(r.db.QueryRowContext(ctx, query, id), doc)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "generated document", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generated document: %w", err)
	}
	return doc, nil
}

// ListByLetterType pages generation history for a letter type, newest first
func (r *GeneratedDocumentRepository) ListByLetterType(ctx context.Context, letterTypeID string, limit, offset int) ([]*domain.GeneratedDocument, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM generated_documents WHERE letter_type_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, letterTypeID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count generated documents: %w", err)
	}

	query := `SELECT ` + generatedDocumentSelectFields() + `
		FROM generated_documents WHERE letter_type_id = $1
		ORDER BY generated_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, letterTypeID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list generated documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.GeneratedDocument
	for rows.Next() {
		doc := &domain.GeneratedDocument{}
		if err := scanGeneratedDocument(rows, doc); err != nil {
			return nil, 0, fmt.Errorf("failed to scan generated document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating generated documents: %w", err)
	}
	return docs, total, nil
}
