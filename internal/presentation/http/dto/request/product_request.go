package request

import "github.com/shopspring/decimal"

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Barcode       string          `json:"barcode" binding:"required,max=100"`
	Name          string          `json:"name" binding:"required,min=2,max=255"`
	Description   string          `json:"description"`
	Category      string          `json:"category" binding:"omitempty,max=100"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	StockQuantity int             `json:"stock_quantity" binding:"min=0"`
	ReorderLevel  int             `json:"reorder_level" binding:"min=0"`
}

// UpdateProductRequest represents a product update request
type UpdateProductRequest struct {
	Barcode      *string          `json:"barcode" binding:"omitempty,min=1,max=100"`
	Name         *string          `json:"name" binding:"omitempty,min=2,max=255"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category" binding:"omitempty,max=100"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	ReorderLevel *int             `json:"reorder_level" binding:"omitempty,min=0"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search    string `form:"search"`
	Category  string `form:"category"`
	LowStock  bool   `form:"low_stock"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}
