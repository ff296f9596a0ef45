// Package apperrors defines the error taxonomy shared by the venue catalog,
// the reservation ledger and the cancellation policy. Handlers translate
// these values into HTTP responses with StatusCode.
package apperrors

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a venue, reservation or other record is absent.
	ErrNotFound = errors.New("not found")

	// ErrOutOfHours is returned when a requested time lies outside the venue's operating hours.
	ErrOutOfHours = errors.New("requested time is outside operating hours")

	// ErrAlreadyCancelled is returned when cancelling a reservation that is already cancelled.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	// ErrInvalidTransition is returned for any reservation state change the ledger does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCapacityViolation guards 0 <= bookedCount <= capacity. Reaching it means the
	// counter and the ledger disagree; it is an internal-consistency alarm.
	ErrCapacityViolation = errors.New("capacity invariant violated")

	// ErrUnavailable is returned when the store times out or is unreachable.
	ErrUnavailable = errors.New("service temporarily unavailable")

	// ErrConcurrentUpdate signals a lost compare-and-swap on a venue row. The enclosing
	// transaction has been rolled back, so the operation may be re-run.
	ErrConcurrentUpdate = errors.New("concurrent update detected")

	// ErrConflict is returned when an operation keeps losing to concurrent writers or
	// would break a uniqueness or reference rule.
	ErrConflict = errors.New("conflict")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrIdempotencyMismatch is returned when an idempotency key is reused with a different request.
	ErrIdempotencyMismatch = errors.New("idempotency key reused with a different request")

	// ErrInvalidInput is returned for requests that pass binding but fail domain validation.
	ErrInvalidInput = errors.New("invalid input")
)

// CapacityExceededError reports how many guests the venue can still admit.
type CapacityExceededError struct {
	Requested int
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded: requested %d, only %d remaining", e.Requested, e.Remaining)
}

// NewCapacityExceeded builds a CapacityExceededError
func NewCapacityExceeded(requested, remaining int) error {
	if remaining < 0 {
		remaining = 0
	}
	return &CapacityExceededError{Requested: requested, Remaining: remaining}
}

// AsCapacityExceeded unwraps err into a CapacityExceededError if it is one
func AsCapacityExceeded(err error) (*CapacityExceededError, bool) {
	var ce *CapacityExceededError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Invalid wraps a validation message as ErrInvalidInput
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// FromStore classifies an error returned by the persistence layer.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// StatusCode maps an error to the HTTP status a client should see.
func StatusCode(err error) int {
	if _, ok := AsCapacityExceeded(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrOutOfHours),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict), errors.Is(err, ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, ErrIdempotencyMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsServerSide reports whether err should be logged for operator attention.
func IsServerSide(err error) bool {
	return StatusCode(err) >= http.StatusInternalServerError
}
