package connections

import (
	"context"
	"fmt"
	"strings"

	"venuely/internal/notifications"
	"venuely/internal/shared/apperrors"
	"venuely/internal/shared/txguard"
	"venuely/pkg/clock"
	"venuely/pkg/logger"

	"github.com/google/uuid"
)

// Notifier delivers a notification once the edge change is stored
type Notifier interface {
	Notify(ctx context.Context, n *notifications.Notification)
}

type Service interface {
	Request(ctx context.Context, requesterID string, req ConnectRequest) (*Connection, error)
	Respond(ctx context.Context, recipientID, id string, accept bool) (*Connection, error)
	List(ctx context.Context, userID string, query ListQuery) ([]Connection, error)
}

type service struct {
	repo     Repository
	guard    *txguard.Guard
	notifier Notifier
	clock    clock.Clock
	log      *logger.Logger
}

func NewService(repo Repository, guard *txguard.Guard, notifier Notifier, clk clock.Clock) Service {
	if clk == nil {
		clk = clock.Real
	}
	return &service{
		repo:     repo,
		guard:    guard,
		notifier: notifier,
		clock:    clk,
		log:      logger.GetDefault(),
	}
}

func (s *service) Request(ctx context.Context, requesterID string, req ConnectRequest) (*Connection, error) {
	recipientID := strings.TrimSpace(req.RecipientID)
	if recipientID == "" {
		return nil, apperrors.Invalid("recipient is required")
	}
	if recipientID == requesterID {
		return nil, apperrors.Invalid("cannot connect to yourself")
	}

	conn := &Connection{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      StatusPending,
		Message:     req.Message,
	}
	err := s.guard.Call(ctx, "connection_request", func(ctx context.Context) error {
		existing, err := s.repo.FindPair(ctx, requesterID, recipientID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: connection to %s already %s", apperrors.ErrConflict, recipientID, existing.Status)
		}
		// the unique pair index settles a concurrent duplicate as ErrConflict
		return s.repo.Create(ctx, conn)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoWithContext(ctx, "Connection requested", map[string]interface{}{
		"connection_id": conn.ID,
		"requester_id":  requesterID,
		"recipient_id":  recipientID,
	})
	s.notify(ctx, notifications.NewNotificationBuilder().
		WithType(notifications.NotificationTypeConnectionRequested).
		WithRecipient(recipientID).
		WithTitle("New connection request").
		WithBody(fmt.Sprintf("%s wants to connect with you.", requesterID)).
		WithData("connectionId", conn.ID.String()).
		WithData("requesterId", requesterID).
		Build())
	return conn, nil
}

func (s *service) Respond(ctx context.Context, recipientID, id string, accept bool) (*Connection, error) {
	connID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Invalid("invalid connection ID %q", id)
	}
	status := StatusRejected
	if accept {
		status = StatusAccepted
	}

	var updated *Connection
	err = s.guard.Call(ctx, "connection_respond", func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, connID)
		if err != nil {
			return err
		}
		if current.RecipientID != recipientID {
			if current.RequesterID == recipientID {
				return fmt.Errorf("%w: only the recipient can respond", apperrors.ErrForbidden)
			}
			return fmt.Errorf("connection %s: %w", connID, apperrors.ErrNotFound)
		}
		if current.Status != StatusPending {
			return fmt.Errorf("connection %s is already %s: %w", connID, current.Status, apperrors.ErrInvalidTransition)
		}
		updated, err = s.repo.Respond(ctx, connID, status, s.clock.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	if accept {
		s.notify(ctx, notifications.NewNotificationBuilder().
			WithType(notifications.NotificationTypeConnectionAccepted).
			WithRecipient(updated.RequesterID).
			WithTitle("Connection accepted").
			WithBody(fmt.Sprintf("%s accepted your connection request.", recipientID)).
			WithData("connectionId", updated.ID.String()).
			WithData("recipientId", recipientID).
			Build())
	}
	return updated, nil
}

func (s *service) List(ctx context.Context, userID string, query ListQuery) ([]Connection, error) {
	if query.Status != "" && !query.Status.IsValid() {
		return nil, apperrors.Invalid("invalid connection status %q", query.Status)
	}

	var items []Connection
	err := s.guard.Call(ctx, "connection_list", func(ctx context.Context) error {
		var err error
		items, err = s.repo.ListForUser(ctx, userID, query)
		return err
	})
	return items, err
}

func (s *service) notify(ctx context.Context, n *notifications.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}
