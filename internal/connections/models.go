package connections

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Connection is a directed edge from requester to recipient. At most one edge exists per
// ordered pair.
type Connection struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RequesterID string     `gorm:"type:varchar(128);not null;uniqueIndex:idx_connections_pair,priority:1" json:"requesterId"`
	RecipientID string     `gorm:"type:varchar(128);not null;uniqueIndex:idx_connections_pair,priority:2;index" json:"recipientId"`
	Status      Status     `gorm:"type:varchar(20);not null" json:"status"`
	Message     string     `gorm:"type:varchar(280)" json:"message,omitempty"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Connection) TableName() string {
	return "connections"
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Involves reports whether userID is either end of the edge
func (c *Connection) Involves(userID string) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}
