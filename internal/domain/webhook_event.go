package domain

import (
	"context"
	"strings"
	"time"
)

// WebhookEvent is one provider delivery event, stored for idempotency
// before it is applied to an email job.
type WebhookEvent struct {
	// ProviderEventID is the provider's unique id for the event and the
	// idempotency key.
	ProviderEventID   string         `json:"provider_event_id"`
	ProviderMessageID string         `json:"provider_message_id"`
	EventType         string         `json:"event_type"`
	Email             string         `json:"email,omitempty"`
	OccurredAt        time.Time      `json:"occurred_at"`
	MappedStatus      EmailJobStatus `json:"mapped_status,omitempty"`
	EmailJobID        string         `json:"email_job_id,omitempty"`
	RawPayload        []byte         `json:"-"`
	ReceivedAt        time.Time      `json:"received_at"`
}

// providerEventStatus maps the provider's event vocabulary onto the
// internal state machine. Events absent from the map carry no state
// change and are acknowledged without effect.
var providerEventStatus = map[string]EmailJobStatus{
	"processed":   EmailJobStatusSent,
	"delivered":   EmailJobStatusDelivered,
	"open":        EmailJobStatusOpened,
	"click":       EmailJobStatusClicked,
	"bounce":      EmailJobStatusBounced,
	"dropped":     EmailJobStatusDropped,
	"unsubscribe": EmailJobStatusUnsubscribed,
	"spamreport":  EmailJobStatusSpamReported,
}

// MapProviderEvent translates a provider event type to an internal status.
// ok is false for untracked events such as "deferred".
func MapProviderEvent(eventType string) (EmailJobStatus, bool) {
	status, ok := providerEventStatus[strings.ToLower(strings.TrimSpace(eventType))]
	return status, ok
}

// WebhookEventRepository records provider events exactly once.
type WebhookEventRepository interface {
	// Insert stores the event. Returns ErrDuplicateEvent when the
	// provider event id was already recorded.
	Insert(ctx context.Context, event *WebhookEvent) error
	ListByJobID(ctx context.Context, emailJobID string) ([]*WebhookEvent, error)
}

// WebhookEventResult is the per-event outcome of a batch.
type WebhookEventResult struct {
	ProviderEventID string `json:"provider_event_id"`
	Outcome         string `json:"outcome"` // applied, duplicate, unresolved, ignored, rejected
	EmailJobID      string `json:"email_job_id,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// WebhookService verifies and applies provider event batches.
type WebhookService interface {
	VerifySignature(payload []byte, signature string) bool
	ProcessBatch(ctx context.Context, payload []byte) ([]WebhookEventResult, error)
}
