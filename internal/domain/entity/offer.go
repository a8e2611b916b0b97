package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOfferNameRequired        = errors.New("offer name is required")
	ErrOfferDiscountNotPositive = errors.New("discount value must be greater than zero")
	ErrOfferPercentageTooHigh   = errors.New("percentage discount cannot exceed 100")
	ErrOfferRequirementsEmpty   = errors.New("at least one offer requirement is required")
	ErrRequirementQuantity      = errors.New("requirement quantity must be greater than zero")
	ErrRequirementProduct       = errors.New("requirement product is required")
)

// Offer represents a promotional rule: when an order contains the required
// product quantities, the offer grants a discount. The definition is validated
// atomically; a persisted offer is always well-formed.
type Offer struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	Name          string            `gorm:"size:255;not null" json:"name"`
	Description   string            `gorm:"type:text" json:"description"`
	DiscountType  enum.DiscountType `gorm:"not null;default:0" json:"discount_type"`
	DiscountValue decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	IsActive      bool              `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Requirements are ordered by insertion and never empty on a valid offer.
	Requirements []OfferRequirement `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE" json:"requirements"`
}

// OfferRequirement is one (product, quantity) pair the offer needs to trigger once
type OfferRequirement struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OfferID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Position  int       `gorm:"not null;default:0" json:"-"`
}

// NewOffer builds a validated offer. The requirements slice is copied.
func NewOffer(name, description string, discountType enum.DiscountType, discountValue decimal.Decimal, requirements []OfferRequirement) (*Offer, error) {
	offer := &Offer{
		ID:       uuid.New(),
		IsActive: true,
	}
	if err := offer.ApplyDefinition(name, description, discountType, discountValue, requirements); err != nil {
		return nil, err
	}
	return offer, nil
}

// ApplyDefinition validates and replaces the whole offer definition,
// including all requirements. Offers are never partially updated.
func (o *Offer) ApplyDefinition(name, description string, discountType enum.DiscountType, discountValue decimal.Decimal, requirements []OfferRequirement) error {
	if strings.TrimSpace(name) == "" {
		return ErrOfferNameRequired
	}
	if !discountValue.IsPositive() {
		return ErrOfferDiscountNotPositive
	}
	if discountType == enum.DiscountTypePercentage && discountValue.GreaterThan(decimal.NewFromInt(100)) {
		return ErrOfferPercentageTooHigh
	}
	if len(requirements) == 0 {
		return ErrOfferRequirementsEmpty
	}

	seen := make(map[uuid.UUID]struct{}, len(requirements))
	for _, req := range requirements {
		if req.ProductID == uuid.Nil {
			return ErrRequirementProduct
		}
		if req.Quantity <= 0 {
			return ErrRequirementQuantity
		}
		if _, dup := seen[req.ProductID]; dup {
			return fmt.Errorf("product %s appears more than once in the offer requirements", req.ProductID)
		}
		seen[req.ProductID] = struct{}{}
	}

	o.Name = name
	o.Description = strings.TrimSpace(description)
	o.DiscountType = discountType
	o.DiscountValue = discountValue.Round(2)

	o.Requirements = make([]OfferRequirement, len(requirements))
	for i, req := range requirements {
		o.Requirements[i] = OfferRequirement{
			ID:        uuid.New(),
			OfferID:   o.ID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Position:  i,
		}
	}

	return nil
}

// Activate marks the offer as eligible for discount matching
func (o *Offer) Activate() {
	o.IsActive = true
}

// Deactivate excludes the offer from discount matching without deleting it
func (o *Offer) Deactivate() {
	o.IsActive = false
}

// BeforeCreate generates a UUID before creating a new offer
func (o *Offer) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Offer model
func (Offer) TableName() string {
	return "offers"
}

// BeforeCreate generates a UUID before creating a new offer requirement
func (r *OfferRequirement) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the OfferRequirement model
func (OfferRequirement) TableName() string {
	return "offer_requirements"
}
