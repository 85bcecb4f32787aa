package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/letterforge/letterforge/internal/domain"
)

// WebhookEventRepository implements domain.WebhookEventRepository. The
// primary key on provider_event_id makes event processing idempotent.
type WebhookEventRepository struct {
	db *sql.DB
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Insert stores the event exactly once. A second insert with the same
// provider event id returns domain.ErrDuplicateEvent.
func (r *WebhookEventRepository) Insert(ctx context.Context, event *domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (
			provider_event_id, provider_message_id, event_type, email,
			occurred_at, mapped_status, email_job_id, raw_payload, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (provider_event_id) DO NOTHING
	`
	result, err := r.db.ExecContext(
		ctx,
		query,
		event.ProviderEventID,
		event.ProviderMessageID,
		event.EventType,
		nullString(event.Email),
		event.OccurredAt,
		nullString(string(event.MappedStatus)),
		nullString(event.EmailJobID),
		nullBytes(event.RawPayload),
		event.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrDuplicateEvent
	}
	return nil
}

// ListByJobID returns the events applied to one job, oldest first
func (r *WebhookEventRepository) ListByJobID(ctx context.Context, emailJobID string) ([]*domain.WebhookEvent, error) {
	query := `
		SELECT provider_event_id, provider_message_id, event_type, email,
			occurred_at, mapped_status, email_job_id, received_at
		FROM webhook_events WHERE email_job_id = $1 ORDER BY received_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, emailJobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook events: %w", err)
	}
	defer rows.Close()

	var events []*domain.WebhookEvent
	for rows.Next() {
		event := &domain.WebhookEvent{}
		var email, mappedStatus, jobID sql.NullString
		err := rows.Scan(
			&event.ProviderEventID,
			&event.ProviderMessageID,
			&event.EventType,
			&email,
			&event.OccurredAt,
			&mappedStatus,
			&jobID,
			&event.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook event: %w", err)
		}
		event.Email = email.String
		event.MappedStatus = domain.EmailJobStatus(mappedStatus.String)
		event.EmailJobID = jobID.String
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating webhook events: %w", err)
	}
	return events, nil
}
