package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venuely/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the reservation ledger. It records intent and outcome and never touches
// venue capacity.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// Transition moves a booking along the state machine. The write is conditional on the
	// status it was read with; losing that race yields ErrConcurrentUpdate.
	Transition(ctx context.Context, id uuid.UUID, to Status, upd TransitionUpdate) (*Booking, error)

	FindByIdempotencyKey(ctx context.Context, userID, key string) (*Booking, error)
	ListByUser(ctx context.Context, userID string, query BookingListQuery) ([]Booking, int64, error)
	ListByVenue(ctx context.Context, venueID uuid.UUID, status Status) ([]Booking, error)

	// SumConfirmedGuests is the ledger's view of a venue's bookedCount
	SumConfirmedGuests(ctx context.Context, venueID uuid.UUID) (int, error)
	HasConfirmedReservations(ctx context.Context, venueID uuid.UUID) (bool, error)
}

// TransitionUpdate carries the fields written together with a status change
type TransitionUpdate struct {
	Reason *string
	// PaymentStatus is left unchanged when empty
	PaymentStatus PaymentStatus
	RefundID      *string
	At            time.Time
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return apperrors.FromStore(r.db.WithContext(ctx).Create(booking).Error)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("booking %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.FromStore(err)
	}
	return &booking, nil
}

func (r *repository) Transition(ctx context.Context, id uuid.UUID, to Status, upd TransitionUpdate) (*Booking, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := current.Status.CanTransitionTo(to); err != nil {
		return nil, fmt.Errorf("booking %s: %w", id, err)
	}

	at := upd.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	if upd.Reason != nil {
		updates["cancellation_reason"] = *upd.Reason
	}
	if upd.PaymentStatus != "" {
		updates["payment_status"] = upd.PaymentStatus
	}
	if upd.RefundID != nil {
		updates["refund_id"] = *upd.RefundID
	}
	if to == StatusCancelled {
		updates["cancelled_at"] = at
	}

	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, current.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, apperrors.FromStore(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("booking %s left %s: %w", id, current.Status, apperrors.ErrConcurrentUpdate)
	}

	return r.GetByID(ctx, id)
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.FromStore(err)
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string, query BookingListQuery) ([]Booking, int64, error) {
	query.normalize()

	q := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.FromStore(err)
	}

	var bookings []Booking
	err := q.Order("scheduled_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, apperrors.FromStore(err)
	}
	return bookings, total, nil
}

func (r *repository) ListByVenue(ctx context.Context, venueID uuid.UUID, status Status) ([]Booking, error) {
	q := r.db.WithContext(ctx).Where("venue_id = ?", venueID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var bookings []Booking
	if err := q.Order("scheduled_at ASC").Find(&bookings).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	return bookings, nil
}

func (r *repository) SumConfirmedGuests(ctx context.Context, venueID uuid.UUID) (int, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Select("COALESCE(SUM(guests), 0)").
		Where("venue_id = ? AND status = ?", venueID, StatusConfirmed).
		Scan(&sum).Error
	if err != nil {
		return 0, apperrors.FromStore(err)
	}
	return int(sum), nil
}

func (r *repository) HasConfirmedReservations(ctx context.Context, venueID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("venue_id = ? AND status = ?", venueID, StatusConfirmed).
		Count(&count).Error
	if err != nil {
		return false, apperrors.FromStore(err)
	}
	return count > 0, nil
}
