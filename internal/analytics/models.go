package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Overview summarises capacity use and ledger totals across all venues
type Overview struct {
	TotalVenues       int64   `json:"totalVenues"`
	TotalCapacity     int64   `json:"totalCapacity"`
	TotalBooked       int64   `json:"totalBooked"`
	OccupancyRate     float64 `json:"occupancyRate"`
	ConfirmedBookings int64   `json:"confirmedBookings"`
	CancelledBookings int64   `json:"cancelledBookings"`
	CompletedBookings int64   `json:"completedBookings"`
	Revenue           float64 `json:"revenue"`
	Refunded          float64 `json:"refunded"`
}

type VenueOccupancy struct {
	VenueID       uuid.UUID `json:"venueId"`
	Name          string    `json:"name"`
	Kind          string    `json:"kind"`
	Capacity      int       `json:"capacity"`
	BookedCount   int       `json:"bookedCount"`
	Remaining     int       `json:"remaining"`
	OccupancyRate float64   `json:"occupancyRate"`
}

// DailyBookingStats groups bookings by the calendar date they are for
type DailyBookingStats struct {
	Date     string  `json:"date"`
	Bookings int64   `json:"bookings"`
	Guests   int64   `json:"guests"`
	Revenue  float64 `json:"revenue"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}

type CancellationAnalytics struct {
	TotalCancellations int64         `json:"totalCancellations"`
	Refunded           int64         `json:"refunded"`
	NotRefunded        int64         `json:"notRefunded"`
	RefundRate         float64       `json:"refundRate"`
	TotalRefundAmount  float64       `json:"totalRefundAmount"`
	TotalFees          float64       `json:"totalFees"`
	AvgHoursBefore     float64       `json:"avgHoursBefore"`
	TopReasons         []ReasonCount `json:"topReasons"`
}

// CapacityDrift is a venue whose stored counter disagrees with its confirmed reservations
type CapacityDrift struct {
	VenueID    uuid.UUID `json:"venueId"`
	Name       string    `json:"name"`
	Stored     int       `json:"stored"`
	Ledger     int       `json:"ledger"`
	Difference int       `json:"difference"`
}

type DashboardAnalytics struct {
	Overview      Overview              `json:"overview"`
	TopVenues     []VenueOccupancy      `json:"topVenues"`
	Cancellations CancellationAnalytics `json:"cancellations"`
	GeneratedAt   time.Time             `json:"generatedAt"`
}
