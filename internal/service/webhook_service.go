package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/metrics"
	"github.com/letterforge/letterforge/pkg/crypto"
	"github.com/letterforge/letterforge/pkg/logger"
)

// Webhook batch event outcomes.
const (
	OutcomeApplied    = "applied"
	OutcomeDuplicate  = "duplicate"
	OutcomeUnresolved = "unresolved"
	OutcomeIgnored    = "ignored"
	OutcomeRejected   = "rejected"
)

// WebhookService implements domain.WebhookService. It verifies the
// provider's HMAC signature over the raw payload bytes, records each event
// exactly once, and feeds accepted transitions to the state machine and
// the broadcaster.
type WebhookService struct {
	jobRepo     domain.EmailJobRepository
	eventRepo   domain.WebhookEventRepository
	broadcaster domain.Broadcaster
	metrics     *metrics.Metrics
	logger      logger.Logger
	secret      string
}

// NewWebhookService creates a webhook service
func NewWebhookService(
	jobRepo domain.EmailJobRepository,
	eventRepo domain.WebhookEventRepository,
	broadcaster domain.Broadcaster,
	metrics *metrics.Metrics,
	logger logger.Logger,
	secret string,
) *WebhookService {
	return &WebhookService{
		jobRepo:     jobRepo,
		eventRepo:   eventRepo,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
		secret:      secret,
	}
}

// VerifySignature checks the provider's signature over the raw payload
// bytes in constant time.
func (s *WebhookService) VerifySignature(payload []byte, signature string) bool {
	ok := crypto.VerifyHMAC256(payload, signature, s.secret)
	if !ok {
		s.metrics.WebhookEventsRejected.Inc()
	}
	return ok
}

// ProcessBatch applies every event of a verified provider batch. The
// payload is a JSON array; each event carries a provider event id,
// a provider message id, an event type and a unix timestamp. Events never
// fail the batch: duplicates are silent successes, unknown jobs are
// dropped, and out-of-rank transitions are ignored.
func (s *WebhookService) ProcessBatch(ctx context.Context, payload []byte) ([]domain.WebhookEventResult, error) {
	parsed := gjson.ParseBytes(payload)
	if !parsed.IsArray() {
		return nil, domain.NewValidationError("webhook payload must be a JSON array")
	}

	var results []domain.WebhookEventResult
	for _, raw := range parsed.Array() {
		result := s.processOne(ctx, raw)
		s.metrics.WebhookEventsProcessed.WithLabelValues(result.Outcome).Inc()
		results = append(results, result)
	}
	return results, nil
}

func (s *WebhookService) processOne(ctx context.Context, raw gjson.Result) domain.WebhookEventResult {
	eventID := raw.Get("sg_event_id").String()
	messageID := raw.Get("sg_message_id").String()
	eventType := raw.Get("event").String()

	if eventID == "" || messageID == "" {
		return domain.WebhookEventResult{
			ProviderEventID: eventID,
			Outcome:         OutcomeIgnored,
			Detail:          "event missing provider ids",
		}
	}

	status, tracked := domain.MapProviderEvent(eventType)
	if !tracked {
		return domain.WebhookEventResult{
			ProviderEventID: eventID,
			Outcome:         OutcomeIgnored,
			Detail:          fmt.Sprintf("untracked event type %q", eventType),
		}
	}

	occurredAt := time.Now().UTC()
	if ts := raw.Get("timestamp").Int(); ts > 0 {
		occurredAt = time.Unix(ts, 0).UTC()
	}

	event := &domain.WebhookEvent{
		ProviderEventID:   eventID,
		ProviderMessageID: messageID,
		EventType:         eventType,
		Email:             raw.Get("email").String(),
		OccurredAt:        occurredAt,
		MappedStatus:      status,
		RawPayload:        []byte(raw.Raw),
		ReceivedAt:        time.Now().UTC(),
	}

	job, err := s.jobRepo.GetByProviderMessageID(ctx, messageID)
	if err != nil {
		if domain.IsNotFound(err) {
			// The job may belong to another pipeline instance or not be
			// persisted yet. Record the event and move on.
			s.logger.WithFields(map[string]interface{}{
				"provider_event_id":   eventID,
				"provider_message_id": messageID,
			}).Warn("webhook event references unknown job, dropping")
			if ierr := s.eventRepo.Insert(ctx, event); ierr != nil && ierr != domain.ErrDuplicateEvent {
				s.logger.Error(fmt.Sprintf("failed to record unresolved webhook event: %v", ierr))
			}
			return domain.WebhookEventResult{ProviderEventID: eventID, Outcome: OutcomeUnresolved}
		}
		return domain.WebhookEventResult{
			ProviderEventID: eventID,
			Outcome:         OutcomeRejected,
			Detail:          err.Error(),
		}
	}

	event.EmailJobID = job.ID
	if err := s.eventRepo.Insert(ctx, event); err != nil {
		if err == domain.ErrDuplicateEvent {
			return domain.WebhookEventResult{
				ProviderEventID: eventID,
				Outcome:         OutcomeDuplicate,
				EmailJobID:      job.ID,
			}
		}
		return domain.WebhookEventResult{
			ProviderEventID: eventID,
			Outcome:         OutcomeRejected,
			EmailJobID:      job.ID,
			Detail:          err.Error(),
		}
	}

	if err := job.ApplyTransition(status, occurredAt); err != nil {
		// Out-of-rank regression attempt. The rank rule keeps state
		// correct under out-of-order provider delivery.
		s.logger.WithFields(map[string]interface{}{
			"job_id": job.ID,
			"from":   string(job.Status),
			"to":     string(status),
		}).Info("webhook transition ignored by rank rule")
		return domain.WebhookEventResult{
			ProviderEventID: eventID,
			Outcome:         OutcomeRejected,
			EmailJobID:      job.ID,
			Detail:          "transition rejected",
		}
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return domain.WebhookEventResult{
			ProviderEventID: eventID,
			Outcome:         OutcomeRejected,
			EmailJobID:      job.ID,
			Detail:          fmt.Sprintf("failed to persist transition: %v", err),
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(job.OwnerUserID, domain.StatusUpdate{
			EmailJobID:   job.ID,
			Status:       job.Status,
			EmployeeName: job.RecipientName,
			Timestamp:    occurredAt,
		})
	}
	return domain.WebhookEventResult{
		ProviderEventID: eventID,
		Outcome:         OutcomeApplied,
		EmailJobID:      job.ID,
	}
}
