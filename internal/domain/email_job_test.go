package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(status EmailJobStatus) *EmailJob {
	now := time.Now().UTC()
	return &EmailJob{
		ID:             "job-1",
		OwnerUserID:    "user-1",
		RecipientEmail: "jordan@example.com",
		Subject:        "Your offer letter",
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestEmailJobForwardChain(t *testing.T) {
	job := newTestJob(EmailJobStatusPending)
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	chain := []EmailJobStatus{
		EmailJobStatusSending,
		EmailJobStatusSent,
		EmailJobStatusDelivered,
		EmailJobStatusOpened,
		EmailJobStatusClicked,
	}
	for _, target := range chain {
		at = at.Add(time.Minute)
		require.NoError(t, job.ApplyTransition(target, at))
		assert.Equal(t, target, job.Status)
	}

	require.NotNil(t, job.SendingAt)
	require.NotNil(t, job.SentAt)
	require.NotNil(t, job.DeliveredAt)
	require.NotNil(t, job.OpenedAt)
	require.NotNil(t, job.ClickedAt)

	// Timestamps along the chain are monotonic.
	assert.True(t, job.SendingAt.Before(*job.SentAt))
	assert.True(t, job.SentAt.Before(*job.DeliveredAt))
	assert.True(t, job.DeliveredAt.Before(*job.OpenedAt))
	assert.True(t, job.OpenedAt.Before(*job.ClickedAt))
}

func TestEmailJobLateDeliveredIgnored(t *testing.T) {
	job := newTestJob(EmailJobStatusOpened)
	err := job.ApplyTransition(EmailJobStatusDelivered, time.Now())
	assert.ErrorIs(t, err, ErrTransitionRejected)
	assert.Equal(t, EmailJobStatusOpened, job.Status)
	assert.Nil(t, job.DeliveredAt)
}

func TestEmailJobRankSkipAllowed(t *testing.T) {
	// An "opened" event arriving before "delivered" advances straight to
	// opened; the later "delivered" is then rejected.
	job := newTestJob(EmailJobStatusSent)
	require.NoError(t, job.ApplyTransition(EmailJobStatusOpened, time.Now()))
	assert.Equal(t, EmailJobStatusOpened, job.Status)

	err := job.ApplyTransition(EmailJobStatusDelivered, time.Now())
	assert.ErrorIs(t, err, ErrTransitionRejected)
	assert.Equal(t, EmailJobStatusOpened, job.Status)
}

func TestEmailJobClickImpliesOpened(t *testing.T) {
	job := newTestJob(EmailJobStatusDelivered)
	require.NoError(t, job.ApplyTransition(EmailJobStatusClicked, time.Now()))
	assert.NotNil(t, job.OpenedAt)
	assert.NotNil(t, job.ClickedAt)
}

func TestEmailJobSideBranches(t *testing.T) {
	tests := []struct {
		name     string
		from     EmailJobStatus
		to       EmailJobStatus
		accepted bool
	}{
		{"sending to bounced", EmailJobStatusSending, EmailJobStatusBounced, true},
		{"sent to bounced", EmailJobStatusSent, EmailJobStatusBounced, true},
		{"delivered to bounced", EmailJobStatusDelivered, EmailJobStatusBounced, false},
		{"sending to dropped", EmailJobStatusSending, EmailJobStatusDropped, true},
		{"sent to dropped", EmailJobStatusSent, EmailJobStatusDropped, true},
		{"sending to failed", EmailJobStatusSending, EmailJobStatusFailed, true},
		{"sent to failed", EmailJobStatusSent, EmailJobStatusFailed, false},
		{"delivered to unsubscribed", EmailJobStatusDelivered, EmailJobStatusUnsubscribed, true},
		{"opened to spam reported", EmailJobStatusOpened, EmailJobStatusSpamReported, true},
		{"sent to unsubscribed", EmailJobStatusSent, EmailJobStatusUnsubscribed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := newTestJob(tt.from)
			err := job.ApplyTransition(tt.to, time.Now())
			if tt.accepted {
				require.NoError(t, err)
				assert.Equal(t, tt.to, job.Status)
			} else {
				assert.ErrorIs(t, err, ErrTransitionRejected)
				assert.Equal(t, tt.from, job.Status)
			}
		})
	}
}

func TestEmailJobTerminalStatesFrozen(t *testing.T) {
	for _, terminal := range []EmailJobStatus{
		EmailJobStatusClicked, EmailJobStatusBounced, EmailJobStatusDropped,
		EmailJobStatusFailed, EmailJobStatusUnsubscribed, EmailJobStatusSpamReported,
	} {
		job := newTestJob(terminal)
		err := job.ApplyTransition(EmailJobStatusDelivered, time.Now())
		assert.ErrorIs(t, err, ErrTransitionRejected, "from %s", terminal)
		assert.Equal(t, terminal, job.Status)
	}
}

func TestEmailJobRetry(t *testing.T) {
	job := newTestJob(EmailJobStatusFailed)
	job.LastError = "smtp timeout"

	require.NoError(t, job.ResetForRetry(3, time.Now()))
	assert.Equal(t, EmailJobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.LastError)
}

func TestEmailJobRetryCeiling(t *testing.T) {
	job := newTestJob(EmailJobStatusFailed)
	job.RetryCount = 3
	err := job.ResetForRetry(3, time.Now())
	require.Error(t, err)
	assert.Equal(t, EmailJobStatusFailed, job.Status)
	assert.Equal(t, 3, job.RetryCount)
}

func TestEmailJobRetryOnlyFromFailed(t *testing.T) {
	for _, status := range []EmailJobStatus{
		EmailJobStatusPending, EmailJobStatusSent, EmailJobStatusBounced,
	} {
		job := newTestJob(status)
		assert.Error(t, job.ResetForRetry(3, time.Now()), "from %s", status)
	}
}

func TestEmailJobDuplicateTransitionStampsOnce(t *testing.T) {
	job := newTestJob(EmailJobStatusSent)
	first := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, job.ApplyTransition(EmailJobStatusDelivered, first))

	err := job.ApplyTransition(EmailJobStatusDelivered, first.Add(time.Hour))
	assert.ErrorIs(t, err, ErrTransitionRejected)
	assert.Equal(t, first, *job.DeliveredAt)
}

func TestEmailJobListParamsDefaults(t *testing.T) {
	params := EmailJobListParams{}
	require.NoError(t, params.Validate())
	assert.Equal(t, 20, params.Limit)
	assert.Equal(t, 0, params.Offset)

	params = EmailJobListParams{Limit: 500, Offset: -2}
	require.NoError(t, params.Validate())
	assert.Equal(t, 100, params.Limit)
	assert.Equal(t, 0, params.Offset)

	params = EmailJobListParams{Status: "exploded"}
	assert.Error(t, params.Validate())
}
