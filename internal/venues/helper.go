package venues

import (
	"context"
	"fmt"
	"math"

	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/constants"
	"venuely/pkg/cache"
	"venuely/pkg/clock"
	"venuely/pkg/logger"

	"github.com/google/uuid"
)

// InvalidateVenueCache drops the detail entry for id and every cached listing
func InvalidateVenueCache(ctx context.Context, c cache.Service, id uuid.UUID) {
	l := logger.GetDefault()
	if err := c.Delete(ctx, constants.BuildVenueDetailKey(id.String())); err != nil {
		l.WarnContext(ctx, "Failed to invalidate venue detail cache", "venue_id", id, "error", err)
	}
	if err := c.DeletePattern(ctx, constants.PATTERN_INVALIDATE_VENUES_LIST); err != nil {
		l.WarnContext(ctx, "Failed to invalidate venue list cache", "error", err)
	}
}

func parseVenueID(id string) (uuid.UUID, error) {
	venueID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperrors.Invalid("invalid venue ID %q", id)
	}
	return venueID, nil
}

// NextRating folds one more score into a running one-decimal average
func NextRating(current float64, reviewCount int, score float64) float64 {
	avg := (current*float64(reviewCount) + score) / float64(reviewCount+1)
	return math.Round(avg*10) / 10
}

func validateHours(open, close string) error {
	if _, err := clock.ParseWindow(open, close); err != nil {
		return apperrors.Invalid("%v", err)
	}
	return nil
}

func validateTables(tables []TableInput) error {
	seen := make(map[int]struct{}, len(tables))
	for _, t := range tables {
		if t.Number <= 0 || t.Seats <= 0 {
			return apperrors.Invalid("table %d must have a positive number and seat count", t.Number)
		}
		if _, dup := seen[t.Number]; dup {
			return apperrors.Invalid("duplicate table number %d", t.Number)
		}
		seen[t.Number] = struct{}{}
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("venue %s: %w", id, apperrors.ErrNotFound)
}
