package venues

import (
	"time"

	"venuely/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Kind string

const (
	KindRestaurant Kind = "RESTAURANT"
	KindCoworking  Kind = "COWORKING"
)

func (k Kind) IsValid() bool {
	return k == KindRestaurant || k == KindCoworking
}

// Venue owns capacity, operating hours and table layout.
// BookedCount is derived from confirmed reservations and only changes through AdjustBookedCount.
type Venue struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Kind        Kind      `gorm:"type:varchar(20);not null;index" json:"kind"`
	Address     string    `json:"address"`
	Capacity    int       `gorm:"not null" json:"capacity"`
	BookedCount int       `gorm:"not null;default:0" json:"bookedCount"`
	OpenTime    string    `gorm:"type:varchar(5);not null" json:"openTime"`
	CloseTime   string    `gorm:"type:varchar(5);not null" json:"closeTime"`
	Rating      float64   `gorm:"not null;default:0" json:"rating"`
	ReviewCount int       `gorm:"not null;default:0" json:"reviewCount"`
	Version     int64     `gorm:"not null;default:0" json:"version"`
	Tables      []Table   `gorm:"foreignKey:VenueID;constraint:OnDelete:CASCADE" json:"tables"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Venue) TableName() string {
	return "venues"
}

func (v *Venue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// Remaining is the number of guests the venue can still admit
func (v *Venue) Remaining() int {
	return v.Capacity - v.BookedCount
}

// Hours returns the operating window
func (v *Venue) Hours() (clock.Window, error) {
	return clock.ParseWindow(v.OpenTime, v.CloseTime)
}

// Table is one entry of a venue's ordered layout
type Table struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	VenueID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_venue_table_number" json:"-"`
	Number     int       `gorm:"not null;uniqueIndex:idx_venue_table_number" json:"number"`
	Seats      int       `gorm:"not null" json:"seats"`
	Attributes []string  `gorm:"serializer:json" json:"attributes"`
	Position   int       `gorm:"not null;default:0" json:"-"`
}

func (Table) TableName() string {
	return "venue_tables"
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
