package apperrors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("venue: %w", ErrNotFound), http.StatusNotFound},
		{"out of hours", ErrOutOfHours, http.StatusBadRequest},
		{"capacity exceeded", NewCapacityExceeded(6, 5), http.StatusBadRequest},
		{"already cancelled", ErrAlreadyCancelled, http.StatusBadRequest},
		{"invalid transition", ErrInvalidTransition, http.StatusBadRequest},
		{"invalid input", Invalid("guests must be positive"), http.StatusBadRequest},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"conflict", ErrConflict, http.StatusConflict},
		{"idempotency", ErrIdempotencyMismatch, http.StatusUnprocessableEntity},
		{"unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"capacity violation", ErrCapacityViolation, http.StatusInternalServerError},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.err))
		})
	}
}

func TestCapacityExceededCarriesRemaining(t *testing.T) {
	err := fmt.Errorf("book: %w", NewCapacityExceeded(6, 5))

	ce, ok := AsCapacityExceeded(err)
	assert.True(t, ok)
	assert.Equal(t, 5, ce.Remaining)
	assert.Equal(t, 6, ce.Requested)

	ce, _ = AsCapacityExceeded(NewCapacityExceeded(3, -2))
	assert.Equal(t, 0, ce.Remaining)
}

func TestFromStore(t *testing.T) {
	assert.ErrorIs(t, FromStore(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, FromStore(gorm.ErrDuplicatedKey), ErrConflict)
	assert.ErrorIs(t, FromStore(fmt.Errorf("query: %w", context.DeadlineExceeded)), ErrUnavailable)
	assert.NoError(t, FromStore(nil))

	other := fmt.Errorf("syntax error")
	assert.Equal(t, other, FromStore(other))
}

func TestIsServerSide(t *testing.T) {
	assert.True(t, IsServerSide(ErrCapacityViolation))
	assert.True(t, IsServerSide(ErrUnavailable))
	assert.False(t, IsServerSide(ErrOutOfHours))
}
