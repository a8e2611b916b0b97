package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNumberRequired   = errors.New("order number is required")
	ErrOrderLocationRequired = errors.New("order location is required")
	ErrLineProductRequired   = errors.New("line product is required")
	ErrLineQuantityInvalid   = errors.New("line quantity must be greater than zero")
	ErrLineUnitPriceInvalid  = errors.New("line unit price must be greater than zero")
	ErrDiscountNegative      = errors.New("discount cannot be negative")
	ErrDiscountExceedsTotal  = errors.New("discount cannot exceed order subtotal")
	ErrDiscountAlreadySet    = errors.New("discount has already been finalized")
	ErrFiscalCodeRequired    = errors.New("fiscal authorization code is required")
	ErrFiscalAlreadySet      = errors.New("fiscal authorization has already been recorded")
)

// SalesOrder is one completed point-of-sale transaction. Lines are appended
// during assembly, the discount is finalized exactly once, and the fiscal
// authorization (when the payment method requires one) is recorded at most
// once. After persistence the order is immutable.
type SalesOrder struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	Number        string             `gorm:"size:100;unique;not null" json:"number"`
	LocationID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"location_id"`
	PaymentMethod enum.PaymentMethod `gorm:"not null;default:0" json:"payment_method"`
	Subtotal      decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	DiscountTotal decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"discount_total"`
	Total         decimal.Decimal    `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	CreatedByID   *uuid.UUID         `gorm:"type:uuid;index" json:"created_by_id,omitempty"`
	CreatedByName string             `gorm:"size:255" json:"created_by_name,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Fiscal receipt fields. All-or-nothing: either the whole set is present
	// (authorization succeeded) or none of it is.
	AuthorizationCode    string     `gorm:"size:20" json:"authorization_code,omitempty"`
	AuthorizationExpires *time.Time `gorm:"type:date" json:"authorization_expires,omitempty"`
	InvoiceNumber        int64      `gorm:"default:0" json:"invoice_number,omitempty"`
	PointOfSale          int        `gorm:"default:0" json:"point_of_sale,omitempty"`
	InvoiceType          int        `gorm:"default:0" json:"invoice_type,omitempty"`

	Lines []SalesOrderLine `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE" json:"lines"`

	discountSet bool
}

// SalesOrderLine is one purchased item. ProductName is a snapshot taken at
// sale time so later catalog edits do not rewrite history.
type SalesOrderLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName  string          `gorm:"size:255;not null" json:"product_name"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	Position     int             `gorm:"not null;default:0" json:"-"`
}

// NewSalesOrder starts an order with no lines
func NewSalesOrder(number string, locationID uuid.UUID, paymentMethod enum.PaymentMethod) (*SalesOrder, error) {
	if strings.TrimSpace(number) == "" {
		return nil, ErrOrderNumberRequired
	}
	if locationID == uuid.Nil {
		return nil, ErrOrderLocationRequired
	}
	return &SalesOrder{
		ID:            uuid.New(),
		Number:        number,
		LocationID:    locationID,
		PaymentMethod: paymentMethod,
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		Total:         decimal.Zero,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// SetCreatedBy records the identity snapshot of the cashier
func (o *SalesOrder) SetCreatedBy(userID uuid.UUID, displayName string) {
	o.CreatedByID = &userID
	o.CreatedByName = displayName
}

// AddLine appends a line and recomputes the derived totals
func (o *SalesOrder) AddLine(productID uuid.UUID, productName string, quantity int, unitPrice decimal.Decimal) error {
	if productID == uuid.Nil {
		return ErrLineProductRequired
	}
	if quantity <= 0 {
		return ErrLineQuantityInvalid
	}
	if !unitPrice.IsPositive() {
		return ErrLineUnitPriceInvalid
	}

	lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	o.Lines = append(o.Lines, SalesOrderLine{
		ID:           uuid.New(),
		SalesOrderID: o.ID,
		ProductID:    productID,
		ProductName:  productName,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		LineTotal:    lineTotal,
		Position:     len(o.Lines),
	})

	o.Subtotal = o.Subtotal.Add(lineTotal)
	o.Total = o.Subtotal.Sub(o.DiscountTotal)
	return nil
}

// SetDiscount finalizes the discount. It may be called exactly once and the
// value must satisfy 0 <= discount <= subtotal.
func (o *SalesOrder) SetDiscount(discountTotal decimal.Decimal) error {
	if o.discountSet {
		return ErrDiscountAlreadySet
	}
	if discountTotal.IsNegative() {
		return ErrDiscountNegative
	}
	if discountTotal.GreaterThan(o.Subtotal) {
		return ErrDiscountExceedsTotal
	}

	o.DiscountTotal = discountTotal.Round(2)
	o.Total = o.Subtotal.Sub(o.DiscountTotal)
	o.discountSet = true
	return nil
}

// RequiresFiscalAuthorization reports whether this order must be invoiced
// with the tax authority before it can be persisted as completed
func (o *SalesOrder) RequiresFiscalAuthorization() bool {
	return o.PaymentMethod.RequiresFiscalAuthorization()
}

// HasFiscalAuthorization reports whether the fiscal field set is present
func (o *SalesOrder) HasFiscalAuthorization() bool {
	return o.AuthorizationCode != ""
}

// SetFiscalAuthorization records the authority's receipt. The whole field set
// is written together; a second call is rejected so a successful
// authorization is never overwritten.
func (o *SalesOrder) SetFiscalAuthorization(code string, expires time.Time, invoiceNumber int64, pointOfSale, invoiceType int) error {
	if strings.TrimSpace(code) == "" {
		return ErrFiscalCodeRequired
	}
	if o.HasFiscalAuthorization() {
		return ErrFiscalAlreadySet
	}

	o.AuthorizationCode = code
	o.AuthorizationExpires = &expires
	o.InvoiceNumber = invoiceNumber
	o.PointOfSale = pointOfSale
	o.InvoiceType = invoiceType
	return nil
}

// BeforeCreate generates a UUID before creating a new sales order
func (o *SalesOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SalesOrder model
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// BeforeCreate generates a UUID before creating a new sales order line
func (l *SalesOrderLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SalesOrderLine model
func (SalesOrderLine) TableName() string {
	return "sales_order_lines"
}
