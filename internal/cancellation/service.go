package cancellation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"venuely/internal/bookings"
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

// Service releases capacity held by confirmed bookings and applies the refund policy
type Service interface {
	Cancel(ctx context.Context, userID string, isAdmin bool, req CancelRequest) (*CancelResult, error)
	Quote(ctx context.Context, userID string, isAdmin bool, bookingID string) (*RefundQuote, error)
	GetCancellation(ctx context.Context, userID string, isAdmin bool, bookingID string) (*Cancellation, error)
}

type service struct {
	repo     Repository
	ledger   bookings.Repository
	venues   venues.Repository
	guard    *txguard.Guard
	cache    bookings.VenueCache
	notifier bookings.Notifier
	policy   Policy
	cfg      config.BookingConfig
	clock    clock.Clock
	metrics  *metrics.BookingMetrics
	log      *logger.Logger
}

func NewService(repo Repository, ledger bookings.Repository, venueRepo venues.Repository, guard *txguard.Guard,
	cache bookings.VenueCache, notifier bookings.Notifier, cfg config.BookingConfig, clk clock.Clock) Service {
	if clk == nil {
		clk = clock.Real
	}
	return &service{
		repo:     repo,
		ledger:   ledger,
		venues:   venueRepo,
		guard:    guard,
		cache:    cache,
		notifier: notifier,
		policy:   Policy{RefundWindow: cfg.RefundWindow, Fee: cfg.CancellationFee},
		cfg:      cfg,
		clock:    clk,
		metrics:  metrics.Bookings(),
		log:      logger.GetDefault(),
	}
}

func (s *service) Cancel(ctx context.Context, userID string, isAdmin bool, req CancelRequest) (*CancelResult, error) {
	start := time.Now()

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, apperrors.Invalid("invalid booking ID %q", req.BookingID)
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = s.cfg.DefaultCancelReason
	}

	// The venue lock is keyed by venue, so the booking is read once to learn which venue
	// to lock and read again inside the transaction.
	booking, err := s.loadOwned(ctx, userID, isAdmin, bookingID)
	if err != nil {
		return nil, err
	}

	var result *CancelResult
	err = s.guard.InVenueTx(ctx, "cancel", booking.VenueID.String(), func(ctx context.Context, tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		current, err := ledger.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		decision := s.policy.Evaluate(current.ScheduledAt, now, current.AmountPaid)
		upd := bookings.TransitionUpdate{Reason: &reason, At: now}
		if decision.Eligible {
			refundID := NewRefundID(now)
			upd.PaymentStatus = bookings.PaymentStatusRefunded
			upd.RefundID = &refundID
		}

		cancelled, err := ledger.Transition(ctx, current.ID, bookings.StatusCancelled, upd)
		if err != nil {
			return err
		}

		venueRepo := s.venues.WithTx(tx)
		venue, err := venueRepo.GetByID(ctx, current.VenueID)
		if err != nil {
			return err
		}
		if _, err := venueRepo.AdjustBookedCount(ctx, venue, -current.Guests); err != nil {
			return err
		}

		audit := &Cancellation{
			BookingID:      current.ID,
			VenueID:        current.VenueID,
			UserID:         current.UserID,
			CancelledBy:    userID,
			Reason:         reason,
			Guests:         current.Guests,
			HoursBefore:    decision.HoursBefore,
			RefundEligible: decision.Eligible,
			RefundAmount:   decision.RefundAmount,
			Currency:       current.Currency,
			RefundID:       upd.RefundID,
			ProcessedAt:    now,
		}
		if decision.Eligible {
			audit.CancellationFee = decision.Fee
		}
		if err := s.repo.WithTx(tx).Create(ctx, audit); err != nil {
			return err
		}

		result = &CancelResult{
			Booking:      cancelled,
			Refunded:     decision.Eligible,
			RefundID:     upd.RefundID,
			RefundAmount: decision.RefundAmount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Cancellation(result.Refunded, time.Since(start))
	s.log.LogBookingCancelled(ctx, bookingID.String(), booking.VenueID.String(), result.Refunded)
	s.cache.InvalidateVenue(ctx, booking.VenueID)
	if s.notifier != nil {
		s.notifier.Notify(ctx, bookingCancelledNotice(result))
	}
	return result, nil
}

func (s *service) Quote(ctx context.Context, userID string, isAdmin bool, bookingID string) (*RefundQuote, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperrors.Invalid("invalid booking ID %q", bookingID)
	}
	booking, err := s.loadOwned(ctx, userID, isAdmin, id)
	if err != nil {
		return nil, err
	}
	if err := booking.Status.CanTransitionTo(bookings.StatusCancelled); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	decision := s.policy.Evaluate(booking.ScheduledAt, now, booking.AmountPaid)
	return &RefundQuote{
		BookingID:         booking.ID,
		ScheduledAt:       booking.ScheduledAt,
		HoursBefore:       decision.HoursBefore,
		RefundEligible:    decision.Eligible,
		RefundAmount:      decision.RefundAmount,
		CancellationFee:   decision.Fee,
		Currency:          booking.Currency,
		RefundWindowHours: s.policy.RefundWindow.Hours(),
		QuotedAt:          now,
	}, nil
}

func (s *service) GetCancellation(ctx context.Context, userID string, isAdmin bool, bookingID string) (*Cancellation, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperrors.Invalid("invalid booking ID %q", bookingID)
	}
	if _, err := s.loadOwned(ctx, userID, isAdmin, id); err != nil {
		return nil, err
	}

	var record *Cancellation
	err = s.guard.Call(ctx, "cancellation_get", func(ctx context.Context) error {
		var err error
		record, err = s.repo.GetByBookingID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("cancellation for booking %s: %w", id, apperrors.ErrNotFound)
	}
	return record, nil
}

func (s *service) loadOwned(ctx context.Context, userID string, isAdmin bool, id uuid.UUID) (*bookings.Booking, error) {
	var booking *bookings.Booking
	err := s.guard.Call(ctx, "cancel_lookup", func(ctx context.Context) error {
		var err error
		booking, err = s.ledger.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !isAdmin && !booking.OwnedBy(userID) {
		return nil, fmt.Errorf("%w: booking %s belongs to another user", apperrors.ErrForbidden, id)
	}
	return booking, nil
}

func bookingCancelledNotice(r *CancelResult) *notifications.Notification {
	b := r.Booking
	body := fmt.Sprintf("Your booking for %s at %s was cancelled.", b.BookingDate, b.BookingTime)
	if r.Refunded {
		body += fmt.Sprintf(" A refund of %.2f %s is on its way.", r.RefundAmount, b.Currency)
	}
	builder := notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypeBookingCancelled).
		WithRecipient(b.UserID).
		WithTitle("Booking cancelled").
		WithBody(body).
		WithData("bookingId", b.ID.String()).
		WithData("venueId", b.VenueID.String()).
		WithData("refunded", r.Refunded)
	if r.RefundID != nil {
		builder = builder.WithData("refundId", *r.RefundID)
	}
	return builder.Build()
}
