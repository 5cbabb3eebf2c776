package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict: resource already exists")
	ErrInternal     = errors.New("internal server error")
	ErrRateLimited  = errors.New("too many requests")
)

// Lookup failures. Each wraps ErrNotFound so callers can test either.
var (
	ErrUserNotFound         = fmt.Errorf("user: %w", ErrNotFound)
	ErrPlanNotFound         = fmt.Errorf("subscription plan: %w", ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("subscription: %w", ErrNotFound)
	ErrPaymentNotFound      = fmt.Errorf("payment transaction: %w", ErrNotFound)
)

// Lifecycle invariant violations. None of these leave partial writes behind.
var (
	ErrPlanInactive          = errors.New("subscription plan is not active")
	ErrUserCategoryMismatch  = errors.New("user category does not match plan category")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrSubscriptionNotActive = errors.New("subscription is not active")
	ErrInvalidExtension      = errors.New("extension must be between 1 and 365 days")
	ErrAlreadyCompleted      = errors.New("payment is already completed")
	ErrNotRetryable          = errors.New("payment cannot be retried in its current status")
	ErrInvalidAmount         = errors.New("amount must not be negative")
)

var invariantViolations = []error{
	ErrInvalidInput,
	ErrPlanInactive,
	ErrUserCategoryMismatch,
	ErrInvalidTransition,
	ErrSubscriptionNotActive,
	ErrInvalidExtension,
	ErrAlreadyCompleted,
	ErrNotRetryable,
	ErrInvalidAmount,
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is allows checking whether an error is a specific sentinel error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound reports whether err is any of the lookup failures.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvariantViolation reports whether err rejects a request because of the
// current state of the records or the shape of its input.
func IsInvariantViolation(err error) bool {
	for _, target := range invariantViolations {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// MessageOrDefault returns err.Error() or a fallback message if err is nil.
func MessageOrDefault(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
