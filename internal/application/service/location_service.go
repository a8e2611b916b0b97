package service

import (
	"context"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/breakretail/backoffice-api/pkg/apperror"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LocationService handles store locations and their per-location stock
type LocationService struct {
	locationRepo repository.LocationRepository
	stockRepo    repository.LocationStockRepository
	productRepo  repository.ProductRepository
	events       StockEventPublisher
	logger       zerolog.Logger
}

// NewLocationService creates a new location service
func NewLocationService(
	locationRepo repository.LocationRepository,
	stockRepo repository.LocationStockRepository,
	productRepo repository.ProductRepository,
	events StockEventPublisher,
	logger zerolog.Logger,
) *LocationService {
	return &LocationService{
		locationRepo: locationRepo,
		stockRepo:    stockRepo,
		productRepo:  productRepo,
		events:       events,
		logger:       logger,
	}
}

// CreateLocation creates a new store location
func (s *LocationService) CreateLocation(ctx context.Context, name, address string) (*entity.Location, error) {
	if name == "" {
		return nil, apperror.NewBadRequestError("Location name is required")
	}
	location := &entity.Location{Name: name, Address: address}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// GetLocation retrieves a location by ID
func (s *LocationService) GetLocation(ctx context.Context, id uuid.UUID) (*entity.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperror.NewNotFoundError("Location")
	}
	return location, nil
}

// ListLocations returns all locations
func (s *LocationService) ListLocations(ctx context.Context) ([]entity.Location, error) {
	return s.locationRepo.GetAll(ctx)
}

// UpdateLocation updates a location's name and address
func (s *LocationService) UpdateLocation(ctx context.Context, id uuid.UUID, name, address string) (*entity.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperror.NewNotFoundError("Location")
	}

	if name != "" {
		location.Name = name
	}
	if address != "" {
		location.Address = address
	}

	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// DeleteLocation soft-deletes a location
func (s *LocationService) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if location == nil {
		return apperror.NewNotFoundError("Location")
	}
	return s.locationRepo.Delete(ctx, id)
}

// ListStock returns the stock rows for a location, products included
func (s *LocationService) ListStock(ctx context.Context, locationID uuid.UUID) ([]entity.LocationStock, error) {
	location, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperror.NewNotFoundError("Location")
	}
	return s.stockRepo.ListByLocation(ctx, locationID)
}

// AdjustStockInput represents a manual stock adjustment (receiving, audit
// corrections, shrinkage)
type AdjustStockInput struct {
	LocationID   uuid.UUID
	ProductID    uuid.UUID
	Delta        int
	ReorderLevel *int
}

// AdjustStock applies a signed quantity delta to one stock row, creating the
// row when the product has never been stocked at this location
func (s *LocationService) AdjustStock(ctx context.Context, input *AdjustStockInput) (*entity.LocationStock, error) {
	location, err := s.locationRepo.GetByID(ctx, input.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, apperror.NewNotFoundError("Location")
	}

	product, err := s.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	stock, err := s.stockRepo.GetByLocationAndProduct(ctx, input.LocationID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		stock = &entity.LocationStock{
			LocationID:   input.LocationID,
			ProductID:    input.ProductID,
			ReorderLevel: product.ReorderLevel,
		}
	}

	if err := stock.Adjust(input.Delta); err != nil {
		return nil, apperror.NewBadRequestError("Adjustment would leave stock negative")
	}
	if input.ReorderLevel != nil {
		stock.ReorderLevel = *input.ReorderLevel
	}

	if err := s.stockRepo.Upsert(ctx, stock); err != nil {
		return nil, err
	}

	if err := s.events.PublishStockChanged(ctx, stock.LocationID, stock.ProductID, stock.Quantity); err != nil {
		s.logger.Warn().Err(err).
			Str("product_id", stock.ProductID.String()).
			Msg("failed to publish stock change")
	}

	return stock, nil
}

// GetLowStock returns the stock rows at or below their reorder level for a location
func (s *LocationService) GetLowStock(ctx context.Context, locationID uuid.UUID) ([]entity.LocationStock, error) {
	stocks, err := s.ListStock(ctx, locationID)
	if err != nil {
		return nil, err
	}

	low := make([]entity.LocationStock, 0)
	for _, stock := range stocks {
		if stock.IsLowStock() {
			low = append(low, stock)
		}
	}
	return low, nil
}
