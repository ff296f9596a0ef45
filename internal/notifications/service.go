package notifications

import (
	"context"

	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/txguard"
	"venuely/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// Notify publishes n. Delivery failures are logged, never returned, so a committed
	// booking or connection change is not reported as failed.
	Notify(ctx context.Context, n *Notification)

	List(ctx context.Context, recipientID string, query ListQuery) (*NotificationList, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

type service struct {
	repo      Repository
	publisher Publisher
	guard     *txguard.Guard
	log       *logger.Logger
}

// NewService falls back to writing through the store when publisher is nil
func NewService(repo Repository, publisher Publisher, guard *txguard.Guard) Service {
	if publisher == nil {
		publisher = NewStorePublisher(repo, guard)
	}
	return &service{
		repo:      repo,
		publisher: publisher,
		guard:     guard,
		log:       logger.GetDefault(),
	}
}

func (s *service) Notify(ctx context.Context, n *Notification) {
	if n == nil || n.RecipientID == "" {
		return
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to publish notification", err, map[string]interface{}{
			"notification_id": n.ID,
			"type":            n.Type,
			"recipient_id":    n.RecipientID,
		})
	}
}

func (s *service) List(ctx context.Context, recipientID string, query ListQuery) (*NotificationList, error) {
	query.normalize()

	var items []Notification
	var total int64
	err := s.guard.Call(ctx, "notification_list", func(ctx context.Context) error {
		var err error
		items, total, err = s.repo.List(ctx, recipientID, query)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &NotificationList{
		Notifications: items,
		Total:         total,
		Page:          query.Page,
		Limit:         query.Limit,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, id string) error {
	notificationID, err := uuid.Parse(id)
	if err != nil {
		return apperrors.Invalid("invalid notification ID %q", id)
	}
	return s.guard.Call(ctx, "notification_mark_read", func(ctx context.Context) error {
		return s.repo.MarkRead(ctx, recipientID, notificationID)
	})
}

func (s *service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := s.guard.Call(ctx, "notification_unread_count", func(ctx context.Context) error {
		var err error
		count, err = s.repo.UnreadCount(ctx, recipientID)
		return err
	})
	return count, err
}
