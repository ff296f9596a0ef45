package bookings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is one ledger entry. It is never deleted; status moves once, from CONFIRMED to CANCELLED.
type Booking struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VenueID     uuid.UUID `gorm:"type:uuid;not null;index" json:"venueId"`
	UserID      string    `gorm:"type:varchar(128);not null;index;uniqueIndex:idx_reservations_user_idempotency" json:"userId"`
	Guests      int       `gorm:"not null" json:"guests"`
	BookingDate string    `gorm:"type:varchar(10);not null" json:"bookingDate"`
	BookingTime string    `gorm:"type:varchar(5);not null" json:"bookingTime"`
	ScheduledAt time.Time `gorm:"not null;index" json:"scheduledAt"`

	AmountPaid    float64       `gorm:"not null" json:"amountPaid"`
	Currency      string        `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null" json:"paymentStatus"`

	Status             Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	RefundID           *string    `gorm:"type:varchar(64)" json:"refundId,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`

	// Client supplied Idempotency-Key, unique per user, and a fingerprint of the request it came with
	IdempotencyKey *string `gorm:"type:varchar(128);uniqueIndex:idx_reservations_user_idempotency" json:"-"`
	RequestHash    string  `gorm:"type:varchar(64)" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Booking) TableName() string {
	return "reservations"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// OwnedBy reports whether userID made the booking
func (b *Booking) OwnedBy(userID string) bool {
	return b.UserID == userID
}
