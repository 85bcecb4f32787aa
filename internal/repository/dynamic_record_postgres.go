package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/pkg/logger"
)

// dynamicTableNameRegex guards the identifier interpolated into DDL and
// queries. Table names are derived from letter type ids, never from user
// input directly.
var dynamicTableNameRegex = regexp.MustCompile(`^dynamic_records_[A-Za-z0-9_]+$`)

// DynamicRecordRepository implements domain.DynamicRecordRepository on one
// Postgres table per letter type.
type DynamicRecordRepository struct {
	db     *sql.DB
	logger logger.Logger
}

// NewDynamicRecordRepository creates a new dynamic record repository
func NewDynamicRecordRepository(db *sql.DB, logger logger.Logger) *DynamicRecordRepository {
	return &DynamicRecordRepository{db: db, logger: logger}
}

// isUndefinedTable reports a query against a dynamic table that was never
// provisioned, which means the letter type itself does not exist.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

func (r *DynamicRecordRepository) tableName(letterTypeID string) (string, error) {
	name := domain.DynamicTableNameFor(letterTypeID)
	if !dynamicTableNameRegex.MatchString(name) {
		return "", fmt.Errorf("invalid dynamic table name for letter type %q", letterTypeID)
	}
	return name, nil
}

// EnsureTable creates the letter type's record table if it does not exist
func (r *DynamicRecordRepository) EnsureTable(ctx context.Context, letterTypeID string) error {
	table, err := r.tableName(letterTypeID)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			external_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			phone VARCHAR(64) NOT NULL DEFAULT '',
			department VARCHAR(255) NOT NULL DEFAULT '',
			position VARCHAR(255) NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			custom_fields JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			UNIQUE (external_id)
		)`, table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure dynamic table %s: %w", table, err)
	}
	return nil
}

// Import replaces the letter type's record set wholesale. The clear and
// the inserts run inside one transaction so readers see either the
// pre-import set or the fully imported set, never a partial one.
func (r *DynamicRecordRepository) Import(ctx context.Context, letterTypeID string, records []*domain.DynamicRecord) error {
	table, err := r.tableName(letterTypeID)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("failed to clear dynamic records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			id, external_id, name, email, phone, department, position,
			is_active, custom_fields, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		customJSON, err := json.Marshal(record.CustomFields)
		if err != nil {
			return fmt.Errorf("failed to marshal custom fields for record %s: %w", record.ExternalID, err)
		}
		_, err = stmt.ExecContext(
			ctx,
			record.ID,
			record.ExternalID,
			record.Name,
			record.Email,
			record.Phone,
			record.Department,
			record.Position,
			record.IsActive,
			customJSON,
			record.CreatedAt,
			record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %s: %w", record.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	tx = nil
	return nil
}

func dynamicRecordSelectFields() []string {
	return []string{
		"id", "external_id", "name", "email", "phone", "department",
		"position", "is_active", "custom_fields", "created_at", "updated_at",
	}
}

func (r *DynamicRecordRepository) scanRecord(scanner interface {
	Scan(dest ...interface{}) error
}, letterTypeID string) (*domain.DynamicRecord, error) {
	record := &domain.DynamicRecord{LetterTypeID: letterTypeID}
	var customJSON []byte
	err := scanner.Scan(
		&record.ID,
		&record.ExternalID,
		&record.Name,
		&record.Email,
		&record.Phone,
		&record.Department,
		&record.Position,
		&record.IsActive,
		&customJSON,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.CustomFields = map[string]string{}
	if len(customJSON) > 0 {
		if err := json.Unmarshal(customJSON, &record.CustomFields); err != nil {
			// One bad row must not fail the whole page. Surface an empty
			// bag and keep going.
			r.logger.WithFields(map[string]interface{}{
				"letter_type_id": letterTypeID,
				"external_id":    record.ExternalID,
			}).Error(fmt.Sprintf("malformed custom field document: %v", err))
			record.CustomFields = map[string]string{}
		}
	}
	return record, nil
}

// Query returns a filtered page of records plus the filtered total
func (r *DynamicRecordRepository) Query(ctx context.Context, letterTypeID string, params domain.RecordQueryParams) (*domain.RecordPage, error) {
	table, err := r.tableName(letterTypeID)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applyFilters := func(b sq.SelectBuilder) sq.SelectBuilder {
		if params.Search != "" {
			pattern := "%" + params.Search + "%"
			b = b.Where(sq.Or{
				sq.ILike{"name": pattern},
				sq.ILike{"external_id": pattern},
				sq.ILike{"email": pattern},
				sq.ILike{"department": pattern},
			})
		}
		if params.IsActive != nil {
			b = b.Where(sq.Eq{"is_active": *params.IsActive})
		}
		return b
	}

	countQuery, countArgs, err := applyFilters(psql.Select("COUNT(*)").From(table)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		if isUndefinedTable(err) {
			return nil, &domain.ErrNotFound{Entity: "letter type", ID: letterTypeID}
		}
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	offset := uint64((params.Page - 1) * params.PageSize)
	query, args, err := applyFilters(psql.Select(dynamicRecordSelectFields()...).From(table)).
		OrderBy("external_id").
		Limit(uint64(params.PageSize)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build records query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return nil, &domain.ErrNotFound{Entity: "letter type", ID: letterTypeID}
		}
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []*domain.DynamicRecord{}
	for rows.Next() {
		record, err := r.scanRecord(rows, letterTypeID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return &domain.RecordPage{
		Records:    records,
		TotalCount: total,
		Page:       params.Page,
		PageSize:   params.PageSize,
	}, nil
}

// GetByExternalID is the point lookup used by the generation orchestrator
func (r *DynamicRecordRepository) GetByExternalID(ctx context.Context, letterTypeID, externalID string) (*domain.DynamicRecord, error) {
	table, err := r.tableName(letterTypeID)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, external_id, name, email, phone, department,
		position, is_active, custom_fields, created_at, updated_at
		FROM %s WHERE external_id = $1`, table)

	record, err := r.scanRecord(r.db.QueryRowContext(ctx, query, externalID), letterTypeID)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "dynamic record", ID: externalID}
	}
	if isUndefinedTable(err) {
		return nil, &domain.ErrNotFound{Entity: "letter type", ID: letterTypeID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// Count returns the number of records in the letter type's table
func (r *DynamicRecordRepository) Count(ctx context.Context, letterTypeID string) (int, error) {
	table, err := r.tableName(letterTypeID)
	if err != nil {
		return 0, err
	}
	var count int
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count); err != nil {
		if isUndefinedTable(err) {
			return 0, &domain.ErrNotFound{Entity: "letter type", ID: letterTypeID}
		}
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
