package bookings

import "strings"

type CreateBookingRequest struct {
	VenueID     string   `json:"venueId" binding:"required,uuid"`
	Guests      int      `json:"guests" binding:"required,min=1"`
	BookingDate string   `json:"bookingDate" binding:"required,isodate"`
	BookingTime string   `json:"bookingTime" binding:"required,hhmm"`
	AmountPaid  *float64 `json:"amountPaid" binding:"omitempty,min=0"`
	Currency    string   `json:"currency" binding:"omitempty,len=3,alpha"`
}

// withDefaults fills the payment fields the client may omit
func (r CreateBookingRequest) withDefaults(amount float64, currency string) CreateBookingRequest {
	if r.AmountPaid == nil {
		r.AmountPaid = &amount
	}
	if r.Currency == "" {
		r.Currency = currency
	}
	r.Currency = strings.ToUpper(r.Currency)
	return r
}

type BookingListQuery struct {
	Status Status `form:"status" binding:"omitempty,oneof=CONFIRMED CANCELLED COMPLETED"`
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q *BookingListQuery) normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
}
