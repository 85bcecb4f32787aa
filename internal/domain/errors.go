package domain

import (
	"errors"
	"fmt"
)

// Common error types
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var notFound *ErrNotFound
	return errors.As(err, &notFound)
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return &ValidationError{
		Message: message,
	}
}

// StructuralError aborts a whole batch: the request itself is unusable
// (unknown letter type, empty record list) and no partial results exist.
type StructuralError struct {
	Message string
	Err     error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structural error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("structural error: %s", e.Message)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// NewStructuralError creates a batch-aborting error.
func NewStructuralError(message string, err error) *StructuralError {
	return &StructuralError{Message: message, Err: err}
}

// IsStructural reports whether err aborts a batch outright.
func IsStructural(err error) bool {
	var structural *StructuralError
	return errors.As(err, &structural)
}

// PerItemError is one record's failure inside a batch. It is captured in
// the batch report and never propagates past the orchestrator.
type PerItemError struct {
	RecordID string
	Message  string
}

func (e *PerItemError) Error() string {
	return fmt.Sprintf("record %s: %s", e.RecordID, e.Message)
}

// ErrInvalidSignature is returned when a webhook payload fails HMAC
// verification. The event batch is rejected without processing.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// ErrDuplicateEvent marks a webhook event id that was already processed.
// Callers treat it as silent success.
var ErrDuplicateEvent = errors.New("webhook event already processed")

// ErrUnresolvedTarget marks a webhook event whose provider message id does
// not match any known email job. It is logged and dropped, never surfaced
// to the provider as a failure.
var ErrUnresolvedTarget = errors.New("webhook event target job not found")

// ErrTransitionRejected marks an out-of-rank status regression attempt.
// It is logged and ignored, not an error to the caller.
var ErrTransitionRejected = errors.New("email job status transition rejected")
