package service

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/letterforge/letterforge/internal/domain"
	"github.com/letterforge/letterforge/internal/metrics"
	"github.com/letterforge/letterforge/pkg/logger"
	"github.com/letterforge/letterforge/pkg/mailer"
)

// Send policy. A send attempt retries transient provider errors with
// exponential backoff inside one SendPending pass; a job that exhausts the
// budget goes to failed and waits for an operator retry, up to MaxRetries
// resets.
const (
	DefaultMaxRetries        = 3
	DefaultSendRatePerSecond = 10
	defaultBackoffInitial    = 500 * time.Millisecond
	defaultBackoffMaxElapsed = 30 * time.Second
	defaultPendingBatchSize  = 100
)

// EmailJobService implements domain.EmailJobService.
type EmailJobService struct {
	jobRepo     domain.EmailJobRepository
	mailer      mailer.Mailer
	broadcaster domain.Broadcaster
	metrics     *metrics.Metrics
	logger      logger.Logger
	limiter     *rate.Limiter
	maxRetries  int
	newBackoff  func() backoff.BackOff
}

// NewEmailJobService creates an email job service
func NewEmailJobService(
	jobRepo domain.EmailJobRepository,
	m mailer.Mailer,
	broadcaster domain.Broadcaster,
	metrics *metrics.Metrics,
	logger logger.Logger,
	maxRetries int,
	ratePerSecond float64,
) *EmailJobService {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if ratePerSecond <= 0 {
		ratePerSecond = DefaultSendRatePerSecond
	}
	return &EmailJobService{
		jobRepo:     jobRepo,
		mailer:      m,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		maxRetries:  maxRetries,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = defaultBackoffInitial
			b.MaxElapsedTime = defaultBackoffMaxElapsed
			return b
		},
	}
}

// CreateJobs persists one pending job per recipient.
func (s *EmailJobService) CreateJobs(ctx context.Context, reqs []*domain.EmailJobRequest) ([]*domain.EmailJob, error) {
	if len(reqs) == 0 {
		return nil, domain.NewValidationError("no recipients")
	}

	now := time.Now().UTC()
	jobs := make([]*domain.EmailJob, 0, len(reqs))
	for _, req := range reqs {
		if req.RecipientEmail == "" {
			return nil, domain.NewValidationError("recipient email is required")
		}
		if !govalidator.IsEmail(req.RecipientEmail) {
			return nil, domain.NewValidationError(fmt.Sprintf("invalid recipient email: %s", req.RecipientEmail))
		}
		if req.Subject == "" {
			return nil, domain.NewValidationError("subject is required")
		}
		job := &domain.EmailJob{
			ID:                  uuid.NewString(),
			GeneratedDocumentID: req.GeneratedDocumentID,
			LetterTypeID:        req.LetterTypeID,
			OwnerUserID:         req.OwnerUserID,
			RecipientEmail:      req.RecipientEmail,
			RecipientName:       req.RecipientName,
			Subject:             req.Subject,
			Body:                req.Body,
			Status:              domain.EmailJobStatusPending,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.jobRepo.Create(ctx, job); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// SendPending drains the pending queue one batch at a time. Sends are
// rate limited; each job's transient errors retry with backoff before the
// job is marked failed.
func (s *EmailJobService) SendPending(ctx context.Context) error {
	jobs, err := s.jobRepo.ListPending(ctx, defaultPendingBatchSize)
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		s.sendOne(ctx, job)
	}
	return nil
}

func (s *EmailJobService) sendOne(ctx context.Context, job *domain.EmailJob) {
	now := time.Now().UTC()
	if err := job.ApplyTransition(domain.EmailJobStatusSending, now); err != nil {
		s.logger.WithField("job_id", job.ID).Warn("job no longer pending, skipping send")
		return
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.WithField("job_id", job.ID).Error(fmt.Sprintf("failed to mark job sending: %v", err))
		return
	}
	s.notify(job)

	msg := mailer.Message{
		To:       job.RecipientEmail,
		ToName:   job.RecipientName,
		Subject:  job.Subject,
		HTMLBody: job.Body,
	}

	var providerMessageID string
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		id, err := s.mailer.Send(msg)
		if err != nil {
			return err
		}
		providerMessageID = id
		return nil
	}

	if err := backoff.Retry(operation, s.newBackoff()); err != nil {
		job.LastError = err.Error()
		if terr := job.ApplyTransition(domain.EmailJobStatusFailed, time.Now().UTC()); terr == nil {
			if uerr := s.jobRepo.Update(ctx, job); uerr != nil {
				s.logger.WithField("job_id", job.ID).Error(fmt.Sprintf("failed to persist failed job: %v", uerr))
			}
		}
		s.metrics.EmailsFailed.Inc()
		s.logger.WithFields(map[string]interface{}{
			"job_id":    job.ID,
			"recipient": job.RecipientEmail,
		}).Error(fmt.Sprintf("send failed: %v", err))
		s.notify(job)
		return
	}

	job.ProviderMessageID = providerMessageID
	if err := job.ApplyTransition(domain.EmailJobStatusSent, time.Now().UTC()); err != nil {
		s.logger.WithField("job_id", job.ID).Warn("sent transition rejected")
		return
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.WithField("job_id", job.ID).Error(fmt.Sprintf("failed to persist sent job: %v", err))
		return
	}
	s.metrics.EmailsSent.Inc()
	s.notify(job)
}

// Retry resets a failed job to pending. Operator-triggered only; webhook
// processing never calls this.
func (s *EmailJobService) Retry(ctx context.Context, jobID string) (*domain.EmailJob, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := job.ResetForRetry(s.maxRetries, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"job_id":      job.ID,
		"retry_count": job.RetryCount,
	}).Info("email job resubmitted")
	s.notify(job)
	return job, nil
}

// List returns a filtered page of jobs.
func (s *EmailJobService) List(ctx context.Context, params domain.EmailJobListParams) ([]*domain.EmailJob, int, error) {
	return s.jobRepo.List(ctx, params)
}

func (s *EmailJobService) notify(job *domain.EmailJob) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(job.OwnerUserID, domain.StatusUpdate{
		EmailJobID:   job.ID,
		Status:       job.Status,
		EmployeeName: job.RecipientName,
		Timestamp:    job.UpdatedAt,
	})
}
