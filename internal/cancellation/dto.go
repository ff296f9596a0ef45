package cancellation

import (
	"time"

	"venuely/internal/bookings"

	"github.com/google/uuid"
)

type CancelRequest struct {
	BookingID string `json:"bookingId" binding:"required,uuid"`
	Reason    string `json:"reason" binding:"max=500"`
}

// CancelResult is what a committed cancel produced
type CancelResult struct {
	Booking      *bookings.Booking
	Refunded     bool
	RefundID     *string
	RefundAmount float64
}

// RefundQuote previews what cancelling now would refund
type RefundQuote struct {
	BookingID         uuid.UUID `json:"bookingId"`
	ScheduledAt       time.Time `json:"scheduledAt"`
	HoursBefore       float64   `json:"hoursBefore"`
	RefundEligible    bool      `json:"refundEligible"`
	RefundAmount      float64   `json:"refundAmount"`
	CancellationFee   float64   `json:"cancellationFee"`
	Currency          string    `json:"currency"`
	RefundWindowHours float64   `json:"refundWindowHours"`
	QuotedAt          time.Time `json:"quotedAt"`
}
