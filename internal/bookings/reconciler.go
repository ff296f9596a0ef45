package bookings

import (
	"context"
	"sync"
	"time"

	"venuely/internal/shared/txguard"
	"venuely/internal/venues"
	"venuely/pkg/logger"
	"venuely/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReconcileReport summarizes one pass over every venue
type ReconcileReport struct {
	Checked  int `json:"checked"`
	Drifted  int `json:"drifted"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// Reconciler compares each venue's bookedCount with the sum of its confirmed reservations
type Reconciler struct {
	ledger   Repository
	venues   venues.Repository
	guard    *txguard.Guard
	cache    VenueCache
	interval time.Duration
	repair   bool

	metrics *metrics.BookingMetrics
	log     *logger.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReconciler(ledger Repository, venueRepo venues.Repository, guard *txguard.Guard, cache VenueCache,
	interval time.Duration, repair bool) *Reconciler {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Reconciler{
		ledger:   ledger,
		venues:   venueRepo,
		guard:    guard,
		cache:    cache,
		interval: interval,
		repair:   repair,
		metrics:  metrics.Bookings(),
		log:      logger.GetDefault(),
		done:     make(chan struct{}),
	}
}

// Start runs a pass immediately and then on every tick until Stop or ctx is done
func (r *Reconciler) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.log.Info("Capacity reconciler started", "interval", r.interval, "repair", r.repair)
		r.runPass(ctx)
		for {
			select {
			case <-ticker.C:
				r.runPass(ctx)
			case <-r.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	r.wg.Wait()
	r.log.Info("Capacity reconciler stopped")
}

func (r *Reconciler) runPass(ctx context.Context) {
	report, err := r.RunOnce(ctx)
	if err != nil {
		r.log.ErrorWithContext(ctx, "Capacity reconciliation failed", err, nil)
		return
	}
	if report.Drifted > 0 || report.Failed > 0 {
		r.log.WarnContext(ctx, "Capacity reconciliation found drift",
			"checked", report.Checked, "drifted", report.Drifted, "repaired", report.Repaired, "failed", report.Failed)
	}
}

// RunOnce checks every venue under its lock
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	var ids []uuid.UUID
	err := r.guard.Call(ctx, "reconcile_list", func(ctx context.Context) error {
		var err error
		ids, err = r.venues.ListIDs(ctx)
		return err
	})
	if err != nil {
		return report, err
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Checked++

		drifted, repaired, err := r.reconcileVenue(ctx, id)
		if err != nil {
			report.Failed++
			r.log.ErrorWithContext(ctx, "Failed to reconcile venue", err, map[string]interface{}{"venue_id": id})
			continue
		}
		if drifted {
			report.Drifted++
		}
		if repaired {
			report.Repaired++
			r.cache.InvalidateVenue(ctx, id)
		}
	}
	return report, nil
}

func (r *Reconciler) reconcileVenue(ctx context.Context, id uuid.UUID) (drifted, repaired bool, err error) {
	var stored, confirmed int
	err = r.guard.InVenueTx(ctx, "reconcile", id.String(), func(ctx context.Context, tx *gorm.DB) error {
		repaired = false

		venueRepo := r.venues.WithTx(tx)
		venue, err := venueRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		confirmed, err = r.ledger.WithTx(tx).SumConfirmedGuests(ctx, id)
		if err != nil {
			return err
		}
		stored = venue.BookedCount
		if confirmed == stored || !r.repair || confirmed > venue.Capacity {
			return nil
		}

		if _, err := venueRepo.SetBookedCount(ctx, venue, confirmed); err != nil {
			return err
		}
		repaired = true
		return nil
	})
	if err != nil {
		return false, false, err
	}

	drifted = confirmed != stored
	if drifted {
		r.log.LogCapacityDrift(ctx, id.String(), stored, confirmed, repaired)
		r.metrics.Drift(repaired)
	}
	return drifted, repaired, nil
}
