package repository

import (
	"context"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/google/uuid"
)

// LocationRepository defines the interface for location data operations
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Location, error)
	GetAll(ctx context.Context) ([]entity.Location, error)
	Update(ctx context.Context, location *entity.Location) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// LocationStockRepository defines the interface for per-location stock operations
type LocationStockRepository interface {
	GetByLocationAndProduct(ctx context.Context, locationID, productID uuid.UUID) (*entity.LocationStock, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]entity.LocationStock, error)
	Upsert(ctx context.Context, stock *entity.LocationStock) error
	Update(ctx context.Context, stock *entity.LocationStock) error
}
