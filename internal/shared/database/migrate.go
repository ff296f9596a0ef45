package database

import (
	"venuely/internal/bookings"
	"venuely/internal/cancellation"
	"venuely/internal/connections"
	"venuely/internal/notifications"
	"venuely/internal/venues"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&venues.Venue{},
		&venues.Table{},
		&bookings.Booking{},
		&cancellation.Cancellation{},
		&notifications.Notification{},
		&connections.Connection{},
	)
}
