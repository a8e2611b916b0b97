package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a physical point of sale / stock location
type Location struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Address   string         `gorm:"type:text" json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new location
func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Location model
func (Location) TableName() string {
	return "locations"
}

// LocationStock tracks the quantity of one product at one location
type LocationStock struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	LocationID   uuid.UUID `gorm:"type:uuid;not null;index:idx_location_product,unique" json:"location_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index:idx_location_product,unique" json:"product_id"`
	Quantity     int       `gorm:"not null;default:0" json:"quantity"`
	ReorderLevel int       `gorm:"not null;default:0" json:"reorder_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Location Location `gorm:"foreignKey:LocationID" json:"-"`
	Product  Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// IsLowStock reports whether this location's quantity fell to the reorder level
func (s *LocationStock) IsLowStock() bool {
	return s.Quantity <= s.ReorderLevel
}

// Adjust applies a signed quantity delta, refusing to go negative
func (s *LocationStock) Adjust(delta int) error {
	if s.Quantity+delta < 0 {
		return ErrInsufficientStock
	}
	s.Quantity += delta
	return nil
}

// BeforeCreate generates a UUID before creating a new location stock row
func (s *LocationStock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the LocationStock model
func (LocationStock) TableName() string {
	return "location_stocks"
}
