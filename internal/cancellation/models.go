package cancellation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cancellation is the audit fact written in the same transaction that cancels a booking
type Cancellation struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"bookingId"`
	VenueID         uuid.UUID `gorm:"type:uuid;not null;index" json:"venueId"`
	UserID          string    `gorm:"type:varchar(128);not null;index" json:"userId"`
	CancelledBy     string    `gorm:"type:varchar(128);not null" json:"cancelledBy"`
	Reason          string    `json:"reason"`
	Guests          int       `gorm:"not null" json:"guests"`
	HoursBefore     float64   `gorm:"not null" json:"hoursBefore"`
	RefundEligible  bool      `gorm:"not null" json:"refundEligible"`
	RefundAmount    float64   `gorm:"not null;default:0" json:"refundAmount"`
	CancellationFee float64   `gorm:"not null;default:0" json:"cancellationFee"`
	Currency        string    `gorm:"type:varchar(3)" json:"currency"`
	RefundID        *string   `gorm:"type:varchar(64)" json:"refundId,omitempty"`
	ProcessedAt     time.Time `gorm:"not null" json:"processedAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (Cancellation) TableName() string {
	return "cancellations"
}

func (c *Cancellation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
