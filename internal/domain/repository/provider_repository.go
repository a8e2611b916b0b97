package repository

import (
	"context"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/google/uuid"
)

// ProviderRepository defines the interface for merchandise supplier data operations
type ProviderRepository interface {
	Create(ctx context.Context, provider *entity.Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Provider, error)
	GetAll(ctx context.Context) ([]entity.Provider, error)
	Update(ctx context.Context, provider *entity.Provider) error
	Delete(ctx context.Context, id uuid.UUID) error
}
