package connections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"venuely/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, c *Connection) error
	GetByID(ctx context.Context, id uuid.UUID) (*Connection, error)
	FindPair(ctx context.Context, requesterID, recipientID string) (*Connection, error)
	// Respond moves a PENDING edge to status; an edge that already left PENDING yields ErrInvalidTransition
	Respond(ctx context.Context, id uuid.UUID, status Status, at time.Time) (*Connection, error)
	ListForUser(ctx context.Context, userID string, query ListQuery) ([]Connection, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Connection) error {
	return apperrors.FromStore(r.db.WithContext(ctx).Create(c).Error)
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Connection, error) {
	var c Connection
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("connection %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, apperrors.FromStore(err)
	}
	return &c, nil
}

func (r *repository) FindPair(ctx context.Context, requesterID, recipientID string) (*Connection, error) {
	var c Connection
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ?", requesterID, recipientID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.FromStore(err)
	}
	return &c, nil
}

func (r *repository) Respond(ctx context.Context, id uuid.UUID, status Status, at time.Time) (*Connection, error) {
	result := r.db.WithContext(ctx).Model(&Connection{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return nil, apperrors.FromStore(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("connection %s is no longer pending: %w", id, apperrors.ErrInvalidTransition)
	}
	return r.GetByID(ctx, id)
}

func (r *repository) ListForUser(ctx context.Context, userID string, query ListQuery) ([]Connection, error) {
	q := r.db.WithContext(ctx).Model(&Connection{})
	switch query.Direction {
	case "incoming":
		q = q.Where("recipient_id = ?", userID)
	case "outgoing":
		q = q.Where("requester_id = ?", userID)
	default:
		q = q.Where("requester_id = ? OR recipient_id = ?", userID, userID)
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	var items []Connection
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	return items, nil
}
