package bookings

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"venuely/internal/notifications"
	"venuely/internal/shared/apperrors"
	"venuely/internal/venues"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

const scheduleLayout = "2006-01-02 15:04"

// scheduledTime resolves a calendar date and time of day in loc and returns it in UTC
func scheduledTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(scheduleLayout, date+" "+hhmm, loc)
	if err != nil {
		return time.Time{}, apperrors.Invalid("invalid booking date or time %q %q", date, hhmm)
	}
	return t.UTC(), nil
}

// fingerprint identifies the request an idempotency key was first used with
func fingerprint(userID string, venueID uuid.UUID, req CreateBookingRequest) string {
	var amount float64
	if req.AmountPaid != nil {
		amount = *req.AmountPaid
	}
	canonical := fmt.Sprintf("%s|%s|%d|%s|%s|%.2f|%s",
		userID, venueID, req.Guests, req.BookingDate, req.BookingTime, amount, req.Currency)
	sum := blake2b.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func isCapacityExceeded(err error) bool {
	_, ok := apperrors.AsCapacityExceeded(err)
	return ok
}

func admissionOutcome(result *BookingResult, err error) string {
	switch {
	case err == nil && result != nil && result.Replayed:
		return "replayed"
	case err == nil:
		return "admitted"
	case isCapacityExceeded(err):
		return "capacity_exceeded"
	case errors.Is(err, apperrors.ErrOutOfHours):
		return "out_of_hours"
	case errors.Is(err, apperrors.ErrNotFound):
		return "venue_not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, apperrors.ErrIdempotencyMismatch):
		return "idempotency_mismatch"
	case errors.Is(err, apperrors.ErrConflict):
		return "conflict"
	case errors.Is(err, apperrors.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

func bookingConfirmedNotice(b *Booking, v *venues.Venue) *notifications.Notification {
	venueName := b.VenueID.String()
	if v != nil {
		venueName = v.Name
	}
	return notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypeBookingConfirmed).
		WithRecipient(b.UserID).
		WithTitle("Booking confirmed").
		WithBody(fmt.Sprintf("Table for %d at %s on %s at %s.", b.Guests, venueName, b.BookingDate, b.BookingTime)).
		WithData("bookingId", b.ID.String()).
		WithData("venueId", b.VenueID.String()).
		Build()
}
