package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when an adjustment would leave stock negative
var ErrInsufficientStock = errors.New("insufficient stock at this location")

// Product represents an item in the catalog
type Product struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Barcode       string          `gorm:"size:100;unique;not null" json:"barcode"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"size:100" json:"category"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"cost_price"`
	SalePrice     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"sale_price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	ReorderLevel  int             `gorm:"not null;default:0" json:"reorder_level"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// IsLowStock reports whether the aggregate stock fell to the reorder level
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.ReorderLevel
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
