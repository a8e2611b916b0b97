package repository

import (
	"context"
	"errors"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	domainRepo "github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *gorm.DB) domainRepo.LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(ctx context.Context, location *entity.Location) error {
	return r.db.WithContext(ctx).Create(location).Error
}

func (r *locationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Location, error) {
	var location entity.Location
	err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &location, err
}

func (r *locationRepository) GetAll(ctx context.Context) ([]entity.Location, error) {
	var locations []entity.Location
	err := r.db.WithContext(ctx).Order("name ASC").Find(&locations).Error
	return locations, err
}

func (r *locationRepository) Update(ctx context.Context, location *entity.Location) error {
	return r.db.WithContext(ctx).Save(location).Error
}

func (r *locationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Location{}, "id = ?", id).Error
}

type locationStockRepository struct {
	db *gorm.DB
}

// NewLocationStockRepository creates a new per-location stock repository
func NewLocationStockRepository(db *gorm.DB) domainRepo.LocationStockRepository {
	return &locationStockRepository{db: db}
}

func (r *locationStockRepository) GetByLocationAndProduct(ctx context.Context, locationID, productID uuid.UUID) (*entity.LocationStock, error) {
	var stock entity.LocationStock
	err := r.db.WithContext(ctx).
		First(&stock, "location_id = ? AND product_id = ?", locationID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &stock, err
}

func (r *locationStockRepository) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]entity.LocationStock, error) {
	var stocks []entity.LocationStock
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("location_id = ?", locationID).
		Order("created_at ASC").
		Find(&stocks).Error
	return stocks, err
}

// Upsert inserts the row or updates quantity and reorder level when the
// (location, product) pair already exists
func (r *locationStockRepository) Upsert(ctx context.Context, stock *entity.LocationStock) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "reorder_level", "updated_at"}),
		}).
		Create(stock).Error
}

func (r *locationStockRepository) Update(ctx context.Context, stock *entity.LocationStock) error {
	return r.db.WithContext(ctx).Save(stock).Error
}
