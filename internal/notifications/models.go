package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeBookingConfirmed    NotificationType = "BOOKING_CONFIRMED"
	NotificationTypeBookingCancelled    NotificationType = "BOOKING_CANCELLED"
	NotificationTypeConnectionRequested NotificationType = "CONNECTION_REQUESTED"
	NotificationTypeConnectionAccepted  NotificationType = "CONNECTION_ACCEPTED"
)

// Notification is an immutable fact addressed to one recipient. Only the read flag changes.
type Notification struct {
	ID          uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID string                 `gorm:"type:varchar(128);not null;index:idx_notifications_recipient" json:"recipientId"`
	Type        NotificationType       `gorm:"type:varchar(40);not null" json:"type"`
	Title       string                 `gorm:"not null" json:"title"`
	Body        string                 `json:"body"`
	Data        map[string]interface{} `gorm:"serializer:json" json:"data,omitempty"`
	Read        bool                   `gorm:"column:is_read;not null;default:false" json:"read"`
	ReadAt      *time.Time             `json:"readAt,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// GetPartitionKey keeps a recipient's notifications ordered on one partition
func (n *Notification) GetPartitionKey() string {
	return n.RecipientID
}

func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}

type NotificationBuilder struct {
	notification *Notification
}

func NewNotificationBuilder() *NotificationBuilder {
	return &NotificationBuilder{
		notification: &Notification{
			ID:        uuid.New(),
			CreatedAt: time.Now().UTC(),
			Data:      make(map[string]interface{}),
		},
	}
}

func (nb *NotificationBuilder) WithType(notType NotificationType) *NotificationBuilder {
	nb.notification.Type = notType
	return nb
}

func (nb *NotificationBuilder) WithRecipient(recipientID string) *NotificationBuilder {
	nb.notification.RecipientID = recipientID
	return nb
}

func (nb *NotificationBuilder) WithTitle(title string) *NotificationBuilder {
	nb.notification.Title = title
	return nb
}

func (nb *NotificationBuilder) WithBody(body string) *NotificationBuilder {
	nb.notification.Body = body
	return nb
}

func (nb *NotificationBuilder) WithData(key string, value interface{}) *NotificationBuilder {
	nb.notification.Data[key] = value
	return nb
}

func (nb *NotificationBuilder) Build() *Notification {
	return nb.notification
}
