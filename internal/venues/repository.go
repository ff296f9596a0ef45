package venues

import (
	"context"
	"fmt"
	"strings"

	"venuely/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the venue store. Counter and rating writes are compare-and-swap on Version.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, venue *Venue) error
	GetByID(ctx context.Context, id uuid.UUID) (*Venue, error)
	List(ctx context.Context, filters VenueFilters) (*PaginatedVenues, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Update(ctx context.Context, venue *Venue, upd VenueUpdate) (*Venue, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// AdjustBookedCount applies delta to the snapshot's counter. It refuses any result
	// outside [0, capacity] and fails with ErrConcurrentUpdate when the row moved on.
	AdjustBookedCount(ctx context.Context, venue *Venue, delta int) (*Venue, error)
	// SetBookedCount overwrites the counter; used by reconciliation repair
	SetBookedCount(ctx context.Context, venue *Venue, value int) (*Venue, error)
	UpdateRating(ctx context.Context, venue *Venue, rating float64, reviewCount int) (*Venue, error)
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

func (r *repository) Create(ctx context.Context, venue *Venue) error {
	return r.db.WithContext(ctx).Create(venue).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Venue, error) {
	var venue Venue
	err := r.db.WithContext(ctx).
		Preload("Tables", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&venue, "id = ?", id).Error
	if err != nil {
		return nil, apperrors.FromStore(err)
	}
	return &venue, nil
}

func (r *repository) List(ctx context.Context, filters VenueFilters) (*PaginatedVenues, error) {
	filters.normalize()

	query := r.db.WithContext(ctx).Model(&Venue{})
	if filters.Kind != "" {
		query = query.Where("kind = ?", filters.Kind)
	}
	if s := strings.TrimSpace(filters.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	var venues []Venue
	err := query.
		Preload("Tables", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("name ASC").
		Offset((filters.Page - 1) * filters.Limit).
		Limit(filters.Limit).
		Find(&venues).Error
	if err != nil {
		return nil, apperrors.FromStore(err)
	}

	totalPages := int((total + int64(filters.Limit) - 1) / int64(filters.Limit))
	return &PaginatedVenues{
		Venues:     venues,
		Total:      total,
		Page:       filters.Page,
		Limit:      filters.Limit,
		TotalPages: totalPages,
	}, nil
}

func (r *repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&Venue{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	return ids, nil
}

// Update applies the whitelisted fields under the same version CAS as the counter
func (r *repository) Update(ctx context.Context, venue *Venue, upd VenueUpdate) (*Venue, error) {
	fields := map[string]interface{}{
		"version": gorm.Expr("version + 1"),
	}
	next := *venue
	if upd.Name != nil {
		fields["name"] = *upd.Name
		next.Name = *upd.Name
	}
	if upd.Address != nil {
		fields["address"] = *upd.Address
		next.Address = *upd.Address
	}
	if upd.Capacity != nil {
		fields["capacity"] = *upd.Capacity
		next.Capacity = *upd.Capacity
	}
	if upd.OpenTime != nil {
		fields["open_time"] = *upd.OpenTime
		next.OpenTime = *upd.OpenTime
	}
	if upd.CloseTime != nil {
		fields["close_time"] = *upd.CloseTime
		next.CloseTime = *upd.CloseTime
	}

	if err := r.casUpdate(ctx, venue, fields); err != nil {
		return nil, err
	}
	next.Version = venue.Version + 1

	if upd.Tables != nil {
		if err := r.db.WithContext(ctx).Where("venue_id = ?", venue.ID).Delete(&Table{}).Error; err != nil {
			return nil, apperrors.FromStore(err)
		}
		next.Tables = buildTables(venue.ID, *upd.Tables)
		if len(next.Tables) > 0 {
			if err := r.db.WithContext(ctx).Create(&next.Tables).Error; err != nil {
				return nil, apperrors.FromStore(err)
			}
		}
	}

	return &next, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("venue_id = ?", id).Delete(&Table{}).Error; err != nil {
		return apperrors.FromStore(err)
	}
	result := r.db.WithContext(ctx).Delete(&Venue{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.FromStore(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("venue %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *repository) AdjustBookedCount(ctx context.Context, venue *Venue, delta int) (*Venue, error) {
	next := venue.BookedCount + delta
	if next < 0 || next > venue.Capacity {
		return nil, fmt.Errorf("%w: venue %s booked %d %+d outside [0, %d]",
			apperrors.ErrCapacityViolation, venue.ID, venue.BookedCount, delta, venue.Capacity)
	}
	return r.SetBookedCount(ctx, venue, next)
}

func (r *repository) SetBookedCount(ctx context.Context, venue *Venue, value int) (*Venue, error) {
	if value < 0 || value > venue.Capacity {
		return nil, fmt.Errorf("%w: venue %s booked %d outside [0, %d]",
			apperrors.ErrCapacityViolation, venue.ID, value, venue.Capacity)
	}
	err := r.casUpdate(ctx, venue, map[string]interface{}{
		"booked_count": value,
		"version":      gorm.Expr("version + 1"),
	})
	if err != nil {
		return nil, err
	}

	updated := *venue
	updated.BookedCount = value
	updated.Version++
	return &updated, nil
}

func (r *repository) UpdateRating(ctx context.Context, venue *Venue, rating float64, reviewCount int) (*Venue, error) {
	err := r.casUpdate(ctx, venue, map[string]interface{}{
		"rating":       rating,
		"review_count": reviewCount,
		"version":      gorm.Expr("version + 1"),
	})
	if err != nil {
		return nil, err
	}

	updated := *venue
	updated.Rating = rating
	updated.ReviewCount = reviewCount
	updated.Version++
	return &updated, nil
}

// casUpdate writes fields only if the row still carries the snapshot's version
func (r *repository) casUpdate(ctx context.Context, venue *Venue, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&Venue{}).
		Where("id = ? AND version = ?", venue.ID, venue.Version).
		Updates(fields)
	if result.Error != nil {
		return apperrors.FromStore(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("venue %s at version %d: %w", venue.ID, venue.Version, apperrors.ErrConcurrentUpdate)
	}
	return nil
}

func buildTables(venueID uuid.UUID, inputs []TableInput) []Table {
	tables := make([]Table, 0, len(inputs))
	for i, in := range inputs {
		attrs := in.Attributes
		if attrs == nil {
			attrs = []string{}
		}
		tables = append(tables, Table{
			VenueID:    venueID,
			Number:     in.Number,
			Seats:      in.Seats,
			Attributes: attrs,
			Position:   i,
		})
	}
	return tables
}
