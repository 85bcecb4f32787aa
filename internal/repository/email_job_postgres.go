package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/letterforge/letterforge/internal/domain"
)

// EmailJobRepository implements domain.EmailJobRepository backed by
// Postgres. Per-transition timestamps live in dedicated columns so the
// transition history is derivable without a separate log table.
type EmailJobRepository struct {
	db *sql.DB
}

// NewEmailJobRepository creates a new email job repository
func NewEmailJobRepository(db *sql.DB) *EmailJobRepository {
	return &EmailJobRepository{db: db}
}

func emailJobSelectFields() string {
	return `id, generated_document_id, letter_type_id, owner_user_id, recipient_email,
			recipient_name, subject, body, status, provider_message_id, retry_count, last_error,
			created_at, sending_at, sent_at, delivered_at, opened_at, clicked_at,
			bounced_at, dropped_at, failed_at, unsubscribed_at, spam_reported_at, updated_at`
}

func scanEmailJob(scanner interface {
	Scan(dest ...interface{}) error
}, job *domain.EmailJob) error {
	var generatedDocumentID, letterTypeID, recipientName, providerMessageID, lastError sql.NullString
	err := scanner.Scan(
		&job.ID,
		&generatedDocumentID,
		&letterTypeID,
		&job.OwnerUserID,
		&job.RecipientEmail,
		&recipientName,
		&job.Subject,
		&job.Body,
		&job.Status,
		&providerMessageID,
		&job.RetryCount,
		&lastError,
		&job.CreatedAt,
		&job.SendingAt,
		&job.SentAt,
		&job.DeliveredAt,
		&job.OpenedAt,
		&job.ClickedAt,
		&job.BouncedAt,
		&job.DroppedAt,
		&job.FailedAt,
		&job.UnsubscribedAt,
		&job.SpamReportedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return err
	}
	job.GeneratedDocumentID = generatedDocumentID.String
	job.LetterTypeID = letterTypeID.String
	job.RecipientName = recipientName.String
	job.ProviderMessageID = providerMessageID.String
	job.LastError = lastError.String
	return nil
}

// Create inserts a new email job
func (r *EmailJobRepository) Create(ctx context.Context, job *domain.EmailJob) error {
	query := `
		INSERT INTO email_jobs (
			id, generated_document_id, letter_type_id, owner_user_id, recipient_email,
			recipient_name, subject, body, status, provider_message_id, retry_count, last_error,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(
		ctx,
		query,
		job.ID,
		nullString(job.GeneratedDocumentID),
		nullString(job.LetterTypeID),
		job.OwnerUserID,
		job.RecipientEmail,
		nullString(job.RecipientName),
		job.Subject,
		job.Body,
		job.Status,
		nullString(job.ProviderMessageID),
		job.RetryCount,
		nullString(job.LastError),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email job: %w", err)
	}
	return nil
}

// Update persists the job's current state including every transition
// timestamp reached so far
func (r *EmailJobRepository) Update(ctx context.Context, job *domain.EmailJob) error {
	query := `
		UPDATE email_jobs
		SET status = $1, provider_message_id = $2, retry_count = $3, last_error = $4,
			sending_at = $5, sent_at = $6, delivered_at = $7, opened_at = $8,
			clicked_at = $9, bounced_at = $10, dropped_at = $11, failed_at = $12,
			unsubscribed_at = $13, spam_reported_at = $14, updated_at = $15
		WHERE id = $16
	`
	result, err := r.db.ExecContext(
		ctx,
		query,
		job.Status,
		nullString(job.ProviderMessageID),
		job.RetryCount,
		nullString(job.LastError),
		job.SendingAt,
		job.SentAt,
		job.DeliveredAt,
		job.OpenedAt,
		job.ClickedAt,
		job.BouncedAt,
		job.DroppedAt,
		job.FailedAt,
		job.UnsubscribedAt,
		job.SpamReportedAt,
		job.UpdatedAt,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update email job: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return &domain.ErrNotFound{Entity: "email job", ID: job.ID}
	}
	return nil
}

// GetByID retrieves one email job
func (r *EmailJobRepository) GetByID(ctx context.Context, id string) (*domain.EmailJob, error) {
	query := `SELECT ` + emailJobSelectFields() + ` FROM email_jobs WHERE id = $1`

	job := &domain.EmailJob{}
	err := scanEmailJob(r.db.QueryRowContext(ctx, query, id), job)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "email job", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email job: %w", err)
	}
	return job, nil
}

// GetByProviderMessageID resolves the webhook correlation key to a job
func (r *EmailJobRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*domain.EmailJob, error) {
	query := `SELECT ` + emailJobSelectFields() + ` FROM email_jobs WHERE provider_message_id = $1`

	job := &domain.EmailJob{}
	err := scanEmailJob(r.db.QueryRowContext(ctx, query, providerMessageID), job)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrNotFound{Entity: "email job", ID: providerMessageID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email job by provider message id: %w", err)
	}
	return job, nil
}

// List returns a filtered page of jobs, newest first, plus the filtered
// total
func (r *EmailJobRepository) List(ctx context.Context, params domain.EmailJobListParams) ([]*domain.EmailJob, int, error) {
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	applyFilters := func(b sq.SelectBuilder) sq.SelectBuilder {
		if params.Status != "" {
			b = b.Where(sq.Eq{"status": params.Status})
		}
		if params.LetterTypeID != "" {
			b = b.Where(sq.Eq{"letter_type_id": params.LetterTypeID})
		}
		if params.RecipientEmail != "" {
			b = b.Where(sq.Eq{"recipient_email": params.RecipientEmail})
		}
		return b
	}

	countQuery, countArgs, err := applyFilters(psql.Select("COUNT(*)").From("email_jobs")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count email jobs: %w", err)
	}

	query, args, err := applyFilters(psql.Select(emailJobSelectFields()).From("email_jobs")).
		OrderBy("created_at DESC").
		Limit(uint64(params.Limit)).
		Offset(uint64(params.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list email jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.EmailJob
	for rows.Next() {
		job := &domain.EmailJob{}
		if err := scanEmailJob(rows, job); err != nil {
			return nil, 0, fmt.Errorf("failed to scan email job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating email jobs: %w", err)
	}
	return jobs, total, nil
}

// ListPending returns jobs awaiting a send attempt, oldest first
func (r *EmailJobRepository) ListPending(ctx context.Context, limit int) ([]*domain.EmailJob, error) {
	query := `SELECT ` + emailJobSelectFields() + `
		FROM email_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, domain.EmailJobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending email jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.EmailJob
	for rows.Next() {
		job := &domain.EmailJob{}
		if err := scanEmailJob(rows, job); err != nil {
			return nil, fmt.Errorf("failed to scan email job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending email jobs: %w", err)
	}
	return jobs, nil
}
