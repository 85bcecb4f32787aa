package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/letterforge/letterforge/internal/domain"
)

// PostgresDocumentStore keeps rendered document bodies in the database.
// The file_ref handed back is an opaque key; callers never parse it.
type PostgresDocumentStore struct {
	db *sql.DB
}

// NewPostgresDocumentStore creates a document store
func NewPostgresDocumentStore(db *sql.DB) *PostgresDocumentStore {
	return &PostgresDocumentStore{db: db}
}

func (s *PostgresDocumentStore) Save(ctx context.Context, name string, content *domain.DocumentContent) (string, error) {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document content: %w", err)
	}

	fileRef := uuid.NewString()
	query := `
		INSERT INTO document_files (file_ref, name, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.ExecContext(ctx, query, fileRef, name, contentJSON, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to store document: %w", err)
	}
	return fileRef, nil
}

func (s *PostgresDocumentStore) Load(ctx context.Context, fileRef string) (*domain.DocumentContent, error) {
	query := `SELECT content FROM document_files WHERE file_ref = $1`

	var contentJSON []byte
	err := s.db.QueryRowContext(ctx, query, fileRef).Scan(&contentJSON)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "document file", ID: fileRef}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	content := &domain.DocumentContent{}
	if err := json.Unmarshal(contentJSON, content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document content: %w", err)
	}
	return content, nil
}
