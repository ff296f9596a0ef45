package analytics

import (
	"context"
	"fmt"
	"time"

	"venuely/internal/shared/constants"
	"venuely/internal/shared/txguard"
	"venuely/pkg/cache"
	"venuely/pkg/clock"
	"venuely/pkg/logger"
)

const (
	defaultTopVenues = 5
	defaultDays      = 30
	maxDays          = 365
)

// Service serves admin reporting. Aggregates are cached briefly; the drift report is always live.
type Service interface {
	GetDashboard(ctx context.Context) (*DashboardAnalytics, error)
	GetVenueOccupancy(ctx context.Context) ([]VenueOccupancy, error)
	GetDailyBookingStats(ctx context.Context, days int) ([]DailyBookingStats, error)
	GetCancellationAnalytics(ctx context.Context) (*CancellationAnalytics, error)
	GetCapacityDrift(ctx context.Context) ([]CapacityDrift, error)
}

type service struct {
	repo  Repository
	guard *txguard.Guard
	cache cache.Service
	clock clock.Clock
	loc   *time.Location
	log   *logger.Logger
}

func NewService(repo Repository, guard *txguard.Guard, cacheService cache.Service, clk clock.Clock, loc *time.Location) Service {
	if clk == nil {
		clk = clock.Real
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:  repo,
		guard: guard,
		cache: cacheService,
		clock: clk,
		loc:   loc,
		log:   logger.GetDefault(),
	}
}

func (s *service) GetDashboard(ctx context.Context) (*DashboardAnalytics, error) {
	var dashboard DashboardAnalytics
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_ANALYTICS_DASHBOARD, constants.TTL_ANALYTICS_DASHBOARD, func() (interface{}, error) {
		s.log.DebugWithContext(ctx, "Cache MISS for analytics dashboard", nil)
		var result DashboardAnalytics
		err := s.guard.Call(ctx, "analytics_dashboard", func(ctx context.Context) error {
			overview, err := s.repo.GetOverview(ctx)
			if err != nil {
				return err
			}
			top, err := s.repo.GetVenueOccupancy(ctx, defaultTopVenues)
			if err != nil {
				return err
			}
			cancellations, err := s.repo.GetCancellationAnalytics(ctx)
			if err != nil {
				return err
			}
			result = DashboardAnalytics{
				Overview:      *overview,
				TopVenues:     top,
				Cancellations: *cancellations,
				GeneratedAt:   s.clock.Now().UTC(),
			}
			return nil
		})
		return &result, err
	}, &dashboard)
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard analytics: %w", err)
	}
	return &dashboard, nil
}

func (s *service) GetVenueOccupancy(ctx context.Context) ([]VenueOccupancy, error) {
	var rows []VenueOccupancy
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_ANALYTICS_OCCUPANCY, constants.TTL_ANALYTICS_OCCUPANCY, func() (interface{}, error) {
		var result []VenueOccupancy
		err := s.guard.Call(ctx, "analytics_occupancy", func(ctx context.Context) error {
			var err error
			result, err = s.repo.GetVenueOccupancy(ctx, 0)
			return err
		})
		return result, err
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get venue occupancy: %w", err)
	}
	return rows, nil
}

func (s *service) GetDailyBookingStats(ctx context.Context, days int) ([]DailyBookingStats, error) {
	if days <= 0 {
		days = defaultDays
	}
	if days > maxDays {
		days = maxDays
	}
	from := s.clock.Now().In(s.loc).AddDate(0, 0, -days).Format("2006-01-02")

	var rows []DailyBookingStats
	key := constants.BuildAnalyticsDailyKey(days)
	err := s.cache.GetOrSet(ctx, key, constants.TTL_ANALYTICS_DAILY, func() (interface{}, error) {
		var result []DailyBookingStats
		err := s.guard.Call(ctx, "analytics_daily", func(ctx context.Context) error {
			var err error
			result, err = s.repo.GetDailyBookingStats(ctx, from)
			return err
		})
		return result, err
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily booking stats: %w", err)
	}
	return rows, nil
}

func (s *service) GetCancellationAnalytics(ctx context.Context) (*CancellationAnalytics, error) {
	var analytics CancellationAnalytics
	err := s.cache.GetOrSet(ctx, constants.CACHE_KEY_ANALYTICS_CANCELLATIONS, constants.TTL_ANALYTICS_DASHBOARD, func() (interface{}, error) {
		var result *CancellationAnalytics
		err := s.guard.Call(ctx, "analytics_cancellations", func(ctx context.Context) error {
			var err error
			result, err = s.repo.GetCancellationAnalytics(ctx)
			return err
		})
		return result, err
	}, &analytics)
	if err != nil {
		return nil, fmt.Errorf("failed to get cancellation analytics: %w", err)
	}
	return &analytics, nil
}

func (s *service) GetCapacityDrift(ctx context.Context) ([]CapacityDrift, error) {
	var rows []CapacityDrift
	err := s.guard.Call(ctx, "analytics_drift", func(ctx context.Context) error {
		var err error
		rows, err = s.repo.GetCapacityDrift(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get capacity drift: %w", err)
	}
	return rows, nil
}
