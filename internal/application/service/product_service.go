package service

import (
	"context"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/breakretail/backoffice-api/pkg/apperror"
	"github.com/breakretail/backoffice-api/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService handles catalog operations
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductInput represents the create product input
type CreateProductInput struct {
	Barcode       string
	Name          string
	Description   string
	Category      string
	CostPrice     decimal.Decimal
	SalePrice     decimal.Decimal
	StockQuantity int
	ReorderLevel  int
}

// CreateProduct creates a new catalog product
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	if input.Barcode == "" {
		return nil, apperror.NewBadRequestError("Barcode is required")
	}
	if input.Name == "" {
		return nil, apperror.NewBadRequestError("Name is required")
	}
	if input.SalePrice.IsNegative() || input.CostPrice.IsNegative() {
		return nil, apperror.NewBadRequestError("Prices cannot be negative")
	}

	existing, err := s.productRepo.GetByBarcode(ctx, input.Barcode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Barcode already exists")
	}

	product := &entity.Product{
		Barcode:       input.Barcode,
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		CostPrice:     input.CostPrice.Round(2),
		SalePrice:     input.SalePrice.Round(2),
		StockQuantity: input.StockQuantity,
		ReorderLevel:  input.ReorderLevel,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, product.ID)
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// GetProductByBarcode retrieves a product by its barcode, the lookup cashiers use
func (s *ProductService) GetProductByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	product, err := s.productRepo.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts lists products with filtering
func (s *ProductService) ListProducts(ctx context.Context, params *repository.ProductFilterParams) (*pagination.PaginatedResult[entity.Product], error) {
	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(products, pag), nil
}

// UpdateProductInput represents the update product input. Nil fields are left
// unchanged.
type UpdateProductInput struct {
	Barcode      *string
	Name         *string
	Description  *string
	Category     *string
	CostPrice    *decimal.Decimal
	SalePrice    *decimal.Decimal
	ReorderLevel *int
}

// UpdateProduct updates a product
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, input *UpdateProductInput) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	if input.Barcode != nil && *input.Barcode != product.Barcode {
		existing, err := s.productRepo.GetByBarcode(ctx, *input.Barcode)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != product.ID {
			return nil, apperror.NewConflictError("Barcode already exists")
		}
		product.Barcode = *input.Barcode
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.CostPrice != nil {
		if input.CostPrice.IsNegative() {
			return nil, apperror.NewBadRequestError("Prices cannot be negative")
		}
		product.CostPrice = input.CostPrice.Round(2)
	}
	if input.SalePrice != nil {
		if input.SalePrice.IsNegative() {
			return nil, apperror.NewBadRequestError("Prices cannot be negative")
		}
		product.SalePrice = input.SalePrice.Round(2)
	}
	if input.ReorderLevel != nil {
		product.ReorderLevel = *input.ReorderLevel
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return s.productRepo.GetByID(ctx, product.ID)
}

// DeleteProduct soft-deletes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return apperror.NewNotFoundError("Product")
	}
	return s.productRepo.Delete(ctx, id)
}

// GetLowStockProducts returns products at or below their reorder level
func (s *ProductService) GetLowStockProducts(ctx context.Context) ([]entity.Product, error) {
	return s.productRepo.GetLowStock(ctx)
}
