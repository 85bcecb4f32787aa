package domain

import (
	"context"
	"time"
)

// EmailJobStatus is the delivery state of one outbound email.
type EmailJobStatus string

const (
	EmailJobStatusPending   EmailJobStatus = "pending"
	EmailJobStatusSending   EmailJobStatus = "sending"
	EmailJobStatusSent      EmailJobStatus = "sent"
	EmailJobStatusDelivered EmailJobStatus = "delivered"
	EmailJobStatusOpened    EmailJobStatus = "opened"
	EmailJobStatusClicked   EmailJobStatus = "clicked"

	EmailJobStatusBounced EmailJobStatus = "bounced"
	EmailJobStatusDropped EmailJobStatus = "dropped"
	EmailJobStatusFailed  EmailJobStatus = "failed"

	EmailJobStatusUnsubscribed EmailJobStatus = "unsubscribed"
	EmailJobStatusSpamReported EmailJobStatus = "spam_reported"
)

// statusRank orders the forward chain. Webhooks can only move a job to a
// rank >= its current rank, which makes out-of-order provider delivery
// harmless.
var statusRank = map[EmailJobStatus]int{
	EmailJobStatusPending:   0,
	EmailJobStatusSending:   1,
	EmailJobStatusSent:      2,
	EmailJobStatusDelivered: 3,
	EmailJobStatusOpened:    4,
	EmailJobStatusClicked:   5,
}

// terminalStatuses can never be left once reached (except failed, via the
// operator retry operation).
var terminalStatuses = map[EmailJobStatus]bool{
	EmailJobStatusClicked:      true,
	EmailJobStatusBounced:      true,
	EmailJobStatusDropped:      true,
	EmailJobStatusFailed:       true,
	EmailJobStatusUnsubscribed: true,
	EmailJobStatusSpamReported: true,
}

// IsValid reports whether s is a known status.
func (s EmailJobStatus) IsValid() bool {
	if _, ok := statusRank[s]; ok {
		return true
	}
	return terminalStatuses[s]
}

// IsTerminal reports whether s ends the state machine.
func (s EmailJobStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// Rank returns the forward-chain position, or -1 for side-branch statuses.
func (s EmailJobStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// EmailJob is one outbound email attempt tied to one recipient and tracked
// through the delivery state machine. The transition history is derivable
// from the per-status timestamps.
type EmailJob struct {
	ID                  string         `json:"id"`
	GeneratedDocumentID string         `json:"generated_document_id,omitempty"`
	LetterTypeID        string         `json:"letter_type_id,omitempty"`
	OwnerUserID         string         `json:"owner_user_id"`
	RecipientEmail      string         `json:"recipient_email"`
	RecipientName       string         `json:"recipient_name,omitempty"`
	Subject             string         `json:"subject"`
	// Body is the outbound HTML body, either a generated document's
	// rendering or ad hoc content.
	Body              string         `json:"-"`
	Status            EmailJobStatus `json:"status"`
	ProviderMessageID string         `json:"provider_message_id,omitempty"`
	RetryCount        int            `json:"retry_count"`
	LastError         string         `json:"last_error,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	SendingAt      *time.Time `json:"sending_at,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	OpenedAt       *time.Time `json:"opened_at,omitempty"`
	ClickedAt      *time.Time `json:"clicked_at,omitempty"`
	BouncedAt      *time.Time `json:"bounced_at,omitempty"`
	DroppedAt      *time.Time `json:"dropped_at,omitempty"`
	FailedAt       *time.Time `json:"failed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
	SpamReportedAt *time.Time `json:"spam_reported_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CanTransition applies the rank rule: a target on the forward chain is
// accepted when its rank is >= the current rank; side-branch targets are
// accepted from their allowed sources; nothing leaves a terminal state.
func (j *EmailJob) CanTransition(target EmailJobStatus) bool {
	if j.Status.IsTerminal() {
		return false
	}
	if r := target.Rank(); r >= 0 {
		return r >= j.Status.Rank()
	}
	switch target {
	case EmailJobStatusBounced, EmailJobStatusDropped:
		return j.Status == EmailJobStatusSending || j.Status == EmailJobStatusSent
	case EmailJobStatusFailed:
		return j.Status == EmailJobStatusSending
	case EmailJobStatusUnsubscribed, EmailJobStatusSpamReported:
		return j.Status == EmailJobStatusDelivered || j.Status == EmailJobStatusOpened
	}
	return false
}

// ApplyTransition advances the job and stamps the target's timestamp.
// Returns ErrTransitionRejected on an out-of-rank attempt; an attempt to
// re-enter the current status is also rejected so duplicate webhooks stamp
// nothing twice.
func (j *EmailJob) ApplyTransition(target EmailJobStatus, at time.Time) error {
	if target == j.Status {
		return ErrTransitionRejected
	}
	if !j.CanTransition(target) {
		return ErrTransitionRejected
	}

	j.Status = target
	j.UpdatedAt = at.UTC()
	ts := at.UTC()
	switch target {
	case EmailJobStatusSending:
		j.SendingAt = &ts
	case EmailJobStatusSent:
		j.SentAt = &ts
	case EmailJobStatusDelivered:
		j.DeliveredAt = &ts
	case EmailJobStatusOpened:
		j.OpenedAt = &ts
	case EmailJobStatusClicked:
		j.ClickedAt = &ts
		// A click implies the message was opened.
		if j.OpenedAt == nil {
			j.OpenedAt = &ts
		}
	case EmailJobStatusBounced:
		j.BouncedAt = &ts
	case EmailJobStatusDropped:
		j.DroppedAt = &ts
	case EmailJobStatusFailed:
		j.FailedAt = &ts
	case EmailJobStatusUnsubscribed:
		j.UnsubscribedAt = &ts
	case EmailJobStatusSpamReported:
		j.SpamReportedAt = &ts
	}
	return nil
}

// ResetForRetry is the one permitted backward transition: an operator
// resubmits a failed job below the retry ceiling. It resets the job to
// pending and increments the retry counter.
func (j *EmailJob) ResetForRetry(maxRetries int, at time.Time) error {
	if j.Status != EmailJobStatusFailed {
		return NewValidationError("only failed jobs can be retried")
	}
	if j.RetryCount >= maxRetries {
		return NewValidationError("retry ceiling reached")
	}
	j.Status = EmailJobStatusPending
	j.RetryCount++
	j.LastError = ""
	j.UpdatedAt = at.UTC()
	return nil
}

// EmailJobListParams filters a job listing.
type EmailJobListParams struct {
	Status         EmailJobStatus `json:"status,omitempty"`
	LetterTypeID   string         `json:"letter_type_id,omitempty"`
	RecipientEmail string         `json:"recipient_email,omitempty"`
	Limit          int            `json:"limit,omitempty"`
	Offset         int            `json:"offset,omitempty"`
}

// Validate applies defaults and bounds.
func (p *EmailJobListParams) Validate() error {
	if p.Status != "" && !p.Status.IsValid() {
		return NewValidationError("invalid email job status: " + string(p.Status))
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return nil
}

// EmailJobRepository persists email jobs.
type EmailJobRepository interface {
	Create(ctx context.Context, job *EmailJob) error
	Update(ctx context.Context, job *EmailJob) error
	GetByID(ctx context.Context, id string) (*EmailJob, error)
	// GetByProviderMessageID resolves the webhook correlation key to a job.
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*EmailJob, error)
	List(ctx context.Context, params EmailJobListParams) ([]*EmailJob, int, error)
	ListPending(ctx context.Context, limit int) ([]*EmailJob, error)
}

// EmailJobService creates, sends and retries email jobs.
type EmailJobService interface {
	CreateJobs(ctx context.Context, reqs []*EmailJobRequest) ([]*EmailJob, error)
	SendPending(ctx context.Context) error
	Retry(ctx context.Context, jobID string) (*EmailJob, error)
	List(ctx context.Context, params EmailJobListParams) ([]*EmailJob, int, error)
}

// EmailJobRequest is one recipient's send request.
type EmailJobRequest struct {
	GeneratedDocumentID string `json:"generated_document_id,omitempty"`
	LetterTypeID        string `json:"letter_type_id,omitempty"`
	OwnerUserID         string `json:"owner_user_id"`
	RecipientEmail      string `json:"recipient_email"`
	RecipientName       string `json:"recipient_name,omitempty"`
	Subject             string `json:"subject"`
	Body                string `json:"body"`
}
