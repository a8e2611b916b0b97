package repository

import (
	"context"
	"errors"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	domainRepo "github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type providerRepository struct {
	db *gorm.DB
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db *gorm.DB) domainRepo.ProviderRepository {
	return &providerRepository{db: db}
}

func (r *providerRepository) Create(ctx context.Context, provider *entity.Provider) error {
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *providerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Provider, error) {
	var provider entity.Provider
	err := r.db.WithContext(ctx).First(&provider, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &provider, err
}

func (r *providerRepository) GetAll(ctx context.Context) ([]entity.Provider, error) {
	var providers []entity.Provider
	err := r.db.WithContext(ctx).Order("name ASC").Find(&providers).Error
	return providers, err
}

func (r *providerRepository) Update(ctx context.Context, provider *entity.Provider) error {
	return r.db.WithContext(ctx).Save(provider).Error
}

func (r *providerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Provider{}, "id = ?", id).Error
}
