package analytics

import (
	"context"
	"fmt"
	"math"

	"venuely/internal/shared/apperrors"

	"gorm.io/gorm"
)

// Repository runs read-only aggregates over venues, the reservation ledger and cancellations.
// Queries stick to SQL shared by PostgreSQL and SQLite.
type Repository interface {
	GetOverview(ctx context.Context) (*Overview, error)
	GetVenueOccupancy(ctx context.Context, limit int) ([]VenueOccupancy, error)
	GetDailyBookingStats(ctx context.Context, fromDate string) ([]DailyBookingStats, error)
	GetCancellationAnalytics(ctx context.Context) (*CancellationAnalytics, error)
	GetCapacityDrift(ctx context.Context) ([]CapacityDrift, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOverview(ctx context.Context) (*Overview, error) {
	var overview Overview
	db := r.db.WithContext(ctx)

	var venueTotals struct {
		Count    int64
		Capacity int64
		Booked   int64
	}
	err := db.Table("venues").
		Select("COUNT(*) AS count, COALESCE(SUM(capacity), 0) AS capacity, COALESCE(SUM(booked_count), 0) AS booked").
		Scan(&venueTotals).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("venue totals: %w", err))
	}
	overview.TotalVenues = venueTotals.Count
	overview.TotalCapacity = venueTotals.Capacity
	overview.TotalBooked = venueTotals.Booked
	overview.OccupancyRate = rate(venueTotals.Booked, venueTotals.Capacity)

	var byStatus []struct {
		Status string
		Count  int64
	}
	err = db.Table("reservations").
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("reservation totals: %w", err))
	}
	for _, row := range byStatus {
		switch row.Status {
		case "CONFIRMED":
			overview.ConfirmedBookings = row.Count
		case "CANCELLED":
			overview.CancelledBookings = row.Count
		case "COMPLETED":
			overview.CompletedBookings = row.Count
		}
	}

	err = db.Table("reservations").
		Select("COALESCE(SUM(amount_paid), 0)").
		Where("payment_status = ?", "PAID").
		Scan(&overview.Revenue).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("revenue: %w", err))
	}

	err = db.Table("cancellations").
		Select("COALESCE(SUM(refund_amount), 0)").
		Scan(&overview.Refunded).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("refunds: %w", err))
	}

	return &overview, nil
}

func (r *repository) GetVenueOccupancy(ctx context.Context, limit int) ([]VenueOccupancy, error) {
	var rows []VenueOccupancy
	q := r.db.WithContext(ctx).Table("venues").
		Select("id AS venue_id, name, kind, capacity, booked_count").
		Order("CAST(booked_count AS REAL) / capacity DESC, name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("venue occupancy: %w", err))
	}
	for i := range rows {
		rows[i].Remaining = rows[i].Capacity - rows[i].BookedCount
		rows[i].OccupancyRate = rate(int64(rows[i].BookedCount), int64(rows[i].Capacity))
	}
	return rows, nil
}

func (r *repository) GetDailyBookingStats(ctx context.Context, fromDate string) ([]DailyBookingStats, error) {
	var rows []DailyBookingStats
	err := r.db.WithContext(ctx).Table("reservations").
		Select("booking_date AS date, COUNT(*) AS bookings, COALESCE(SUM(guests), 0) AS guests, "+
			"COALESCE(SUM(CASE WHEN payment_status = 'PAID' THEN amount_paid ELSE 0 END), 0) AS revenue").
		Where("status <> ? AND booking_date >= ?", "CANCELLED", fromDate).
		Group("booking_date").
		Order("booking_date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("daily bookings: %w", err))
	}
	return rows, nil
}

func (r *repository) GetCancellationAnalytics(ctx context.Context) (*CancellationAnalytics, error) {
	var analytics CancellationAnalytics
	db := r.db.WithContext(ctx)

	var totals struct {
		Total       int64
		Refunded    int64
		RefundSum   float64
		FeeSum      float64
		HoursBefore float64
	}
	err := db.Table("cancellations").
		Select("COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN refund_eligible THEN 1 ELSE 0 END), 0) AS refunded, " +
			"COALESCE(SUM(refund_amount), 0) AS refund_sum, " +
			"COALESCE(SUM(cancellation_fee), 0) AS fee_sum, " +
			"COALESCE(AVG(hours_before), 0) AS hours_before").
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("cancellation totals: %w", err))
	}
	analytics.TotalCancellations = totals.Total
	analytics.Refunded = totals.Refunded
	analytics.NotRefunded = totals.Total - totals.Refunded
	analytics.RefundRate = rate(totals.Refunded, totals.Total)
	analytics.TotalRefundAmount = totals.RefundSum
	analytics.TotalFees = totals.FeeSum
	analytics.AvgHoursBefore = math.Round(totals.HoursBefore*100) / 100

	err = db.Table("cancellations").
		Select("reason, COUNT(*) AS count").
		Group("reason").
		Order("count DESC, reason ASC").
		Limit(5).
		Scan(&analytics.TopReasons).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("cancellation reasons: %w", err))
	}
	return &analytics, nil
}

func (r *repository) GetCapacityDrift(ctx context.Context) ([]CapacityDrift, error) {
	var rows []CapacityDrift
	ledger := r.db.Table("reservations").
		Select("venue_id, SUM(guests) AS guests").
		Where("status = ?", "CONFIRMED").
		Group("venue_id")

	err := r.db.WithContext(ctx).Table("venues AS v").
		Select("v.id AS venue_id, v.name, v.booked_count AS stored, COALESCE(l.guests, 0) AS ledger").
		Joins("LEFT JOIN (?) AS l ON l.venue_id = v.id", ledger).
		Where("v.booked_count <> COALESCE(l.guests, 0)").
		Order("v.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.FromStore(fmt.Errorf("capacity drift: %w", err))
	}
	for i := range rows {
		rows[i].Difference = rows[i].Stored - rows[i].Ledger
	}
	return rows, nil
}

// rate returns part/whole as a percentage rounded to two places
func rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
