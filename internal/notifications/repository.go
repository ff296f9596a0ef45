package notifications

import (
	"context"
	"fmt"
	"time"

	"venuely/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Create stores n once; a redelivered notification with a known id is ignored
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, recipientID string, query ListQuery) ([]Notification, int64, error)
	MarkRead(ctx context.Context, recipientID string, id uuid.UUID) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(n).Error
	return apperrors.FromStore(err)
}

func (r *repository) List(ctx context.Context, recipientID string, query ListQuery) ([]Notification, int64, error) {
	query.normalize()

	q := r.db.WithContext(ctx).Model(&Notification{}).Where("recipient_id = ?", recipientID)
	if query.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperrors.FromStore(err)
	}

	var items []Notification
	err := q.Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, apperrors.FromStore(err)
	}
	return items, total, nil
}

func (r *repository) MarkRead(ctx context.Context, recipientID string, id uuid.UUID) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return apperrors.FromStore(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// already read is fine; someone else's or missing is not
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Count(&count).Error
	if err != nil {
		return apperrors.FromStore(err)
	}
	if count == 0 {
		return fmt.Errorf("notification %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (r *repository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, apperrors.FromStore(err)
}
