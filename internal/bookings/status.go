package bookings

import (
	"fmt"

	"venuely/internal/shared/apperrors"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo checks a move against the ledger state machine. Only CONFIRMED -> CANCELLED exists.
func (s Status) CanTransitionTo(to Status) error {
	if s == StatusCancelled && to == StatusCancelled {
		return apperrors.ErrAlreadyCancelled
	}
	if s == StatusConfirmed && to == StatusCancelled {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidTransition, s, to)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}
