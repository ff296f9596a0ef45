package bookings

// BookingResult is the outcome of Book. Replayed is set when an idempotency key matched
// an earlier request and no new reservation was made.
type BookingResult struct {
	Booking  *Booking
	Replayed bool
}

// Message describes the booking as it stands now. A replay returns the stored booking, which
// may have been cancelled or completed since the original request.
func (r *BookingResult) Message() string {
	switch {
	case !r.Replayed:
		return "Booking confirmed"
	case r.Booking.IsCancelled():
		return "Booking was already made and has since been cancelled"
	case r.Booking.Status == StatusCompleted:
		return "Booking was already made and has been completed"
	default:
		return "Booking already confirmed"
	}
}

type PaginatedBookings struct {
	Bookings   []Booking `json:"bookings"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
}
