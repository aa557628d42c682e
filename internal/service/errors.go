package service

import (
	"errors"
	"fmt"

	"vocabsrs/internal/metrics"
	"vocabsrs/internal/repository"
)

var (
	// ErrValidation marks malformed input rejected before any state change
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned for progress records or items that do not exist
	ErrNotFound = repository.ErrNotFound
	// ErrConflict is returned when a review is not newer than the stored one;
	// callers should treat it as already applied
	ErrConflict = repository.ErrConflict
	// ErrStoreUnavailable wraps transient storage failures; the call may be retried
	ErrStoreUnavailable = errors.New("progress store unavailable")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError classifies a repository error for callers
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// failureReason maps an error to its metrics label
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return metrics.ReasonValidation
	case errors.Is(err, ErrNotFound):
		return metrics.ReasonNotFound
	case errors.Is(err, ErrConflict):
		return metrics.ReasonConflict
	}
	return metrics.ReasonUnavailable
}
