// Package txguard runs venue-scoped writes under the venue lock inside a bounded,
// retried database transaction.
package txguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venuely/internal/shared/apperrors"
	"venuely/pkg/lock"
	"venuely/pkg/logger"
	"venuely/pkg/metrics"

	"gorm.io/gorm"
)

// Options configures a Guard
type Options struct {
	// StoreTimeout bounds lock wait and each transaction attempt
	StoreTimeout time.Duration
	// MaxConflictRetries is how many times a transaction that lost a version CAS is re-run
	MaxConflictRetries int
}

// Guard serializes writes per venue
type Guard struct {
	db      *gorm.DB
	locker  lock.Locker
	opts    Options
	metrics *metrics.BookingMetrics
	log     *logger.Logger
}

func New(db *gorm.DB, locker lock.Locker, opts Options) *Guard {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.MaxConflictRetries < 0 {
		opts.MaxConflictRetries = 0
	}
	return &Guard{
		db:      db,
		locker:  locker,
		opts:    opts,
		metrics: metrics.Bookings(),
		log:     logger.GetDefault(),
	}
}

// DB returns the untransacted handle for reads outside the guard
func (g *Guard) DB() *gorm.DB {
	return g.db
}

// StoreTimeout returns the per call store deadline
func (g *Guard) StoreTimeout() time.Duration {
	return g.opts.StoreTimeout
}

// InVenueTx holds the venue lock and runs fn in a transaction. A transaction that fails with
// ErrConcurrentUpdate committed nothing and is re-run; once retries are exhausted the caller
// gets ErrConflict. Deadline and connection failures are reported as ErrUnavailable and are
// never retried.
func (g *Guard) InVenueTx(ctx context.Context, op, venueID string, fn func(ctx context.Context, tx *gorm.DB) error) error {
	lockCtx, cancelLock := context.WithTimeout(ctx, g.opts.StoreTimeout)
	unlock, err := g.locker.Lock(lockCtx, venueID)
	cancelLock()
	if err != nil {
		return g.unavailable(ctx, op, fmt.Errorf("acquire venue lock: %w", err))
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		err = g.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrConcurrentUpdate) {
			break
		}
		if attempt >= g.opts.MaxConflictRetries {
			return fmt.Errorf("%w: venue %s changed concurrently %d times", apperrors.ErrConflict, venueID, attempt+1)
		}
		g.metrics.ConflictRetry()
		g.log.DebugWithContext(ctx, "Retrying venue transaction after version conflict", map[string]interface{}{
			"operation": op,
			"venue_id":  venueID,
			"attempt":   attempt + 1,
		})
	}

	if errors.Is(err, apperrors.ErrUnavailable) {
		return g.unavailable(ctx, op, err)
	}
	if errors.Is(err, apperrors.ErrCapacityViolation) {
		g.metrics.CapacityViolation()
		g.log.ErrorWithContext(ctx, "Capacity invariant refused update", err, map[string]interface{}{
			"operation": op,
			"venue_id":  venueID,
		})
	}
	return err
}

func (g *Guard) runTx(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	txCtx, cancel := context.WithTimeout(ctx, g.opts.StoreTimeout)
	defer cancel()

	err := g.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		return fn(txCtx, tx)
	})
	if err != nil && txCtx.Err() != nil && !errors.Is(err, apperrors.ErrUnavailable) {
		return fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
	}
	return apperrors.FromStore(err)
}

func (g *Guard) unavailable(ctx context.Context, op string, err error) error {
	g.metrics.StoreUnavailable(op)
	g.log.LogStoreUnavailable(ctx, op, err)
	if errors.Is(err, apperrors.ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
}

// Call runs a single store call, read or write, outside the venue lock with a store
// deadline and classifies its error
func (g *Guard) Call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	rctx, cancel := context.WithTimeout(ctx, g.opts.StoreTimeout)
	defer cancel()

	err := apperrors.FromStore(fn(rctx))
	if err != nil && rctx.Err() != nil && !errors.Is(err, apperrors.ErrUnavailable) {
		err = fmt.Errorf("%w: %v", apperrors.ErrUnavailable, err)
	}
	if errors.Is(err, apperrors.ErrUnavailable) {
		return g.unavailable(ctx, op, err)
	}
	return err
}
