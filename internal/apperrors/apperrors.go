package apperrors

import (
	"errors"
	"fmt"
)

// Error kinds for every operation boundary. Store errors are wrapped into
// one of these before they leave a service; raw pgx errors never reach
// handlers.
var (
	ErrFetchFailed  = errors.New("fetch failed")
	ErrSaveFailed   = errors.New("save failed")
	ErrUpdateFailed = errors.New("update failed")
	ErrDeleteFailed = errors.New("delete failed")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")

	// ErrPartialFailure means a durable write succeeded but a downstream
	// step did not (e.g. activity saved, counters/post not). Callers can
	// retry the downstream step idempotently.
	ErrPartialFailure = errors.New("partial failure")
)

// Wrap attaches a kind to a cause. Both ends stay matchable with errors.Is.
func Wrap(kind error, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}

// Validation builds a ValidationFailed error with a caller-facing reason.
func Validation(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// NotFound builds a NotFound error naming the missing entity.
func NotFound(entity string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, entity)
}
