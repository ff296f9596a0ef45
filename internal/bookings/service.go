package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venuely/internal/notifications"
	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/config"
	"venuely/internal/shared/txguard"
	"venuely/internal/venues"
	"venuely/pkg/clock"
	"venuely/pkg/logger"
	"venuely/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VenueCache drops cached venue copies once a counter change commits
type VenueCache interface {
	InvalidateVenue(ctx context.Context, id uuid.UUID)
}

// Notifier delivers a notification after commit
type Notifier interface {
	Notify(ctx context.Context, n *notifications.Notification)
}

// Service is the capacity accountant: it admits bookings against venue capacity
type Service interface {
	Book(ctx context.Context, userID string, req CreateBookingRequest, idempotencyKey string) (*BookingResult, error)
	GetBooking(ctx context.Context, userID string, isAdmin bool, id string) (*Booking, error)
	GetUserBookings(ctx context.Context, userID string, query BookingListQuery) (*PaginatedBookings, error)
	HasConfirmedReservations(ctx context.Context, venueID uuid.UUID) (bool, error)
}

type service struct {
	ledger   Repository
	venues   venues.Repository
	guard    *txguard.Guard
	cache    VenueCache
	notifier Notifier
	cfg      config.BookingConfig
	clock    clock.Clock
	metrics  *metrics.BookingMetrics
	log      *logger.Logger
}

func NewService(ledger Repository, venueRepo venues.Repository, guard *txguard.Guard, cache VenueCache,
	notifier Notifier, cfg config.BookingConfig, clk clock.Clock) Service {
	if clk == nil {
		clk = clock.Real
	}
	return &service{
		ledger:   ledger,
		venues:   venueRepo,
		guard:    guard,
		cache:    cache,
		notifier: notifier,
		cfg:      cfg,
		clock:    clk,
		metrics:  metrics.Bookings(),
		log:      logger.GetDefault(),
	}
}

func (s *service) Book(ctx context.Context, userID string, req CreateBookingRequest, idempotencyKey string) (*BookingResult, error) {
	start := time.Now()
	result, err := s.book(ctx, userID, req, idempotencyKey)
	s.metrics.Admission(admissionOutcome(result, err), time.Since(start))
	return result, err
}

func (s *service) book(ctx context.Context, userID string, req CreateBookingRequest, idempotencyKey string) (*BookingResult, error) {
	venueID, err := uuid.Parse(req.VenueID)
	if err != nil {
		return nil, apperrors.Invalid("invalid venue ID %q", req.VenueID)
	}
	if req.Guests <= 0 {
		return nil, apperrors.Invalid("guests must be positive")
	}
	at, err := clock.Parse(req.BookingTime)
	if err != nil {
		return nil, apperrors.Invalid("%v", err)
	}
	scheduledAt, err := scheduledTime(req.BookingDate, req.BookingTime, s.cfg.Location())
	if err != nil {
		return nil, err
	}
	if !scheduledAt.After(s.clock.Now()) {
		return nil, apperrors.Invalid("booking time %s %s is in the past", req.BookingDate, req.BookingTime)
	}
	req = req.withDefaults(s.cfg.DefaultAmount, s.cfg.DefaultCurrency)

	var key *string
	var hash string
	if idempotencyKey != "" {
		if s.cfg.IdempotencyKeyMaxLen > 0 && len(idempotencyKey) > s.cfg.IdempotencyKeyMaxLen {
			return nil, apperrors.Invalid("idempotency key longer than %d characters", s.cfg.IdempotencyKeyMaxLen)
		}
		hash = fingerprint(userID, venueID, req)
		prior, err := s.replay(ctx, userID, idempotencyKey, hash)
		if err != nil || prior != nil {
			return prior, err
		}
		key = &idempotencyKey
	}

	booking := &Booking{
		ID:             uuid.New(),
		VenueID:        venueID,
		UserID:         userID,
		Guests:         req.Guests,
		BookingDate:    req.BookingDate,
		BookingTime:    req.BookingTime,
		ScheduledAt:    scheduledAt,
		AmountPaid:     *req.AmountPaid,
		Currency:       req.Currency,
		PaymentStatus:  PaymentStatusPaid,
		Status:         StatusConfirmed,
		IdempotencyKey: key,
		RequestHash:    hash,
	}

	var venue *venues.Venue
	err = s.guard.InVenueTx(ctx, "book", venueID.String(), func(ctx context.Context, tx *gorm.DB) error {
		venueRepo := s.venues.WithTx(tx)
		current, err := venueRepo.GetByID(ctx, venueID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("venue %s: %w", venueID, apperrors.ErrNotFound)
			}
			return err
		}

		if err := checkAdmission(current, at, req.Guests); err != nil {
			return err
		}

		if err := s.ledger.WithTx(tx).Create(ctx, booking); err != nil {
			return err
		}
		venue, err = venueRepo.AdjustBookedCount(ctx, current, req.Guests)
		return err
	})
	if err != nil {
		// a concurrent request with the same key won the unique index
		if key != nil && errors.Is(err, apperrors.ErrConflict) {
			if prior, rerr := s.replay(ctx, userID, *key, hash); rerr == nil && prior != nil {
				return prior, nil
			}
		}
		if errors.Is(err, apperrors.ErrOutOfHours) || isCapacityExceeded(err) {
			s.log.LogBookingRejected(ctx, venueID.String(), req.Guests, err.Error())
		}
		return nil, err
	}

	s.cache.InvalidateVenue(ctx, venueID)
	s.log.LogBookingCreated(ctx, booking.ID.String(), venueID.String(), userID, booking.Guests)
	s.notify(ctx, bookingConfirmedNotice(booking, venue))

	return &BookingResult{Booking: booking}, nil
}

// checkAdmission applies the hours and capacity rules to a venue snapshot
func checkAdmission(v *venues.Venue, at clock.TimeOfDay, guests int) error {
	window, err := v.Hours()
	if err != nil {
		return fmt.Errorf("venue %s has unreadable hours: %w", v.ID, err)
	}
	if !window.Contains(at) {
		return fmt.Errorf("%w: %s is outside %s-%s", apperrors.ErrOutOfHours, at, v.OpenTime, v.CloseTime)
	}
	if guests > v.Remaining() {
		return apperrors.NewCapacityExceeded(guests, v.Remaining())
	}
	return nil
}

func (s *service) replay(ctx context.Context, userID, key, hash string) (*BookingResult, error) {
	var prior *Booking
	err := s.guard.Call(ctx, "book_idempotency", func(ctx context.Context) error {
		var err error
		prior, err = s.ledger.FindByIdempotencyKey(ctx, userID, key)
		return err
	})
	if err != nil || prior == nil {
		return nil, err
	}
	if prior.RequestHash != hash {
		return nil, fmt.Errorf("%w: key %q", apperrors.ErrIdempotencyMismatch, key)
	}
	return &BookingResult{Booking: prior, Replayed: true}, nil
}

func (s *service) notify(ctx context.Context, n *notifications.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}

func (s *service) GetBooking(ctx context.Context, userID string, isAdmin bool, id string) (*Booking, error) {
	bookingID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Invalid("invalid booking ID %q", id)
	}

	var booking *Booking
	err = s.guard.Call(ctx, "booking_get", func(ctx context.Context) error {
		booking, err = s.ledger.GetByID(ctx, bookingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !isAdmin && !booking.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: booking %s belongs to another user", apperrors.ErrForbidden, bookingID)
	}
	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID string, query BookingListQuery) (*PaginatedBookings, error) {
	query.normalize()

	var items []Booking
	var total int64
	err := s.guard.Call(ctx, "booking_list", func(ctx context.Context) error {
		var err error
		items, total, err = s.ledger.ListByUser(ctx, userID, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &PaginatedBookings{
		Bookings:   items,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int((total + int64(query.Limit) - 1) / int64(query.Limit)),
	}, nil
}

func (s *service) HasConfirmedReservations(ctx context.Context, venueID uuid.UUID) (bool, error) {
	return s.ledger.HasConfirmedReservations(ctx, venueID)
}
