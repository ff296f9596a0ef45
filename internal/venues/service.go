package venues

import (
	"context"
	"errors"
	"fmt"

	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/constants"
	"venuely/internal/shared/txguard"
	"venuely/pkg/cache"
	"venuely/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationChecker reports whether confirmed reservations still reference a venue.
// Injected by the router to keep venues free of a bookings import.
type ReservationChecker interface {
	HasConfirmedReservations(ctx context.Context, venueID uuid.UUID) (bool, error)
}

// Service is the venue catalog
type Service interface {
	CreateVenue(ctx context.Context, req CreateVenueRequest) (*Venue, error)
	GetVenue(ctx context.Context, id string) (*Venue, error)
	ListVenues(ctx context.Context, filters VenueFilters) (*PaginatedVenues, error)
	UpdateVenue(ctx context.Context, id string, upd VenueUpdate) (*Venue, error)
	DeleteVenue(ctx context.Context, id string) error
	Availability(ctx context.Context, id string) (*AvailabilityResponse, error)
	SubmitRating(ctx context.Context, venueID string, rating float64) (*Venue, error)

	// InvalidateVenue drops cached copies after a counter change made elsewhere
	InvalidateVenue(ctx context.Context, id uuid.UUID)
	SetReservationChecker(checker ReservationChecker)
}

type service struct {
	repo    Repository
	guard   *txguard.Guard
	cache   cache.Service
	checker ReservationChecker
	log     *logger.Logger
}

func NewService(repo Repository, guard *txguard.Guard, cacheService cache.Service) Service {
	return &service{
		repo:  repo,
		guard: guard,
		cache: cacheService,
		log:   logger.GetDefault(),
	}
}

func (s *service) SetReservationChecker(checker ReservationChecker) {
	s.checker = checker
}

func (s *service) CreateVenue(ctx context.Context, req CreateVenueRequest) (*Venue, error) {
	if !req.Kind.IsValid() {
		return nil, apperrors.Invalid("invalid venue kind %q", req.Kind)
	}
	if req.Capacity <= 0 {
		return nil, apperrors.Invalid("capacity must be positive")
	}
	if err := validateHours(req.OpenTime, req.CloseTime); err != nil {
		return nil, err
	}
	if err := validateTables(req.Tables); err != nil {
		return nil, err
	}

	venue := &Venue{
		ID:        uuid.New(),
		Name:      req.Name,
		Kind:      req.Kind,
		Address:   req.Address,
		Capacity:  req.Capacity,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
	}
	venue.Tables = buildTables(venue.ID, req.Tables)

	err := s.guard.Call(ctx, "venue_create", func(ctx context.Context) error {
		return s.repo.Create(ctx, venue)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}

	InvalidateVenueCache(ctx, s.cache, venue.ID)
	s.log.InfoWithContext(ctx, "Venue created", map[string]interface{}{
		"venue_id": venue.ID,
		"capacity": venue.Capacity,
	})
	return venue, nil
}

func (s *service) GetVenue(ctx context.Context, id string) (*Venue, error) {
	venueID, err := parseVenueID(id)
	if err != nil {
		return nil, err
	}

	var venue Venue
	key := constants.BuildVenueDetailKey(venueID.String())
	err = s.cache.GetOrSet(ctx, key, constants.TTL_VENUE_DETAIL, func() (interface{}, error) {
		s.log.DebugWithContext(ctx, "Cache MISS for venue", map[string]interface{}{"key": key})
		var v *Venue
		err := s.guard.Call(ctx, "venue_get", func(ctx context.Context) error {
			var err error
			v, err = s.repo.GetByID(ctx, venueID)
			return err
		})
		return v, err
	}, &venue)
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

func (s *service) ListVenues(ctx context.Context, filters VenueFilters) (*PaginatedVenues, error) {
	filters.normalize()

	var result PaginatedVenues
	key := constants.BuildVenueListKey(filters.Page, filters.Limit, string(filters.Kind), filters.Search)
	err := s.cache.GetOrSet(ctx, key, constants.TTL_VENUES_LIST, func() (interface{}, error) {
		var page *PaginatedVenues
		err := s.guard.Call(ctx, "venue_list", func(ctx context.Context) error {
			var err error
			page, err = s.repo.List(ctx, filters)
			return err
		})
		return page, err
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateVenue runs under the venue lock so capacity never drops below a concurrently admitted count
func (s *service) UpdateVenue(ctx context.Context, id string, upd VenueUpdate) (*Venue, error) {
	venueID, err := parseVenueID(id)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return nil, apperrors.Invalid("no fields to update")
	}
	if upd.Tables != nil {
		if err := validateTables(*upd.Tables); err != nil {
			return nil, err
		}
	}

	var updated *Venue
	err = s.guard.InVenueTx(ctx, "venue_update", venueID.String(), func(ctx context.Context, tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetByID(ctx, venueID)
		if err != nil {
			return err
		}

		openAt, closeAt := current.OpenTime, current.CloseTime
		if upd.OpenTime != nil {
			openAt = *upd.OpenTime
		}
		if upd.CloseTime != nil {
			closeAt = *upd.CloseTime
		}
		if err := validateHours(openAt, closeAt); err != nil {
			return err
		}
		if upd.Capacity != nil && *upd.Capacity < current.BookedCount {
			return fmt.Errorf("%w: capacity %d is below %d booked guests",
				apperrors.ErrConflict, *upd.Capacity, current.BookedCount)
		}

		updated, err = repo.Update(ctx, current, upd)
		return err
	})
	if err != nil {
		return nil, err
	}

	InvalidateVenueCache(ctx, s.cache, venueID)
	return updated, nil
}

func (s *service) DeleteVenue(ctx context.Context, id string) error {
	venueID, err := parseVenueID(id)
	if err != nil {
		return err
	}

	if s.checker != nil {
		var active bool
		err := s.guard.Call(ctx, "venue_delete_check", func(ctx context.Context) error {
			var err error
			active, err = s.checker.HasConfirmedReservations(ctx, venueID)
			return err
		})
		if err != nil {
			return err
		}
		if active {
			return fmt.Errorf("%w: venue %s still has confirmed reservations", apperrors.ErrConflict, venueID)
		}
	}

	// the counter is re-checked under the lock in case a booking landed after the ledger check
	err = s.guard.InVenueTx(ctx, "venue_delete", venueID.String(), func(ctx context.Context, tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetByID(ctx, venueID)
		if err != nil {
			return err
		}
		if current.BookedCount > 0 {
			return fmt.Errorf("%w: venue %s still has confirmed reservations", apperrors.ErrConflict, venueID)
		}
		return repo.Delete(ctx, venueID)
	})
	if err != nil {
		return err
	}

	InvalidateVenueCache(ctx, s.cache, venueID)
	return nil
}

// Availability always reads the store; cached venue copies may trail the counter
func (s *service) Availability(ctx context.Context, id string) (*AvailabilityResponse, error) {
	venueID, err := parseVenueID(id)
	if err != nil {
		return nil, err
	}

	var venue *Venue
	err = s.guard.Call(ctx, "venue_availability", func(ctx context.Context) error {
		venue, err = s.repo.GetByID(ctx, venueID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toAvailability(venue), nil
}

func (s *service) SubmitRating(ctx context.Context, venueID string, rating float64) (*Venue, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.Invalid("invalid rating: must be between 1 and 5")
	}
	id, err := parseVenueID(venueID)
	if err != nil {
		return nil, err
	}

	var updated *Venue
	err = s.guard.InVenueTx(ctx, "venue_rating", id.String(), func(ctx context.Context, tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next := NextRating(current.Rating, current.ReviewCount, rating)
		updated, err = repo.UpdateRating(ctx, current, next, current.ReviewCount+1)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}

	InvalidateVenueCache(ctx, s.cache, id)
	return updated, nil
}

func (s *service) InvalidateVenue(ctx context.Context, id uuid.UUID) {
	InvalidateVenueCache(ctx, s.cache, id)
}
