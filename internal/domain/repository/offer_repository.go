package repository

import (
	"context"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/google/uuid"
)

// OfferRepository defines the interface for offer data operations
type OfferRepository interface {
	Create(ctx context.Context, offer *entity.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error)
	// GetAll returns every offer, requirements included, ordered by creation time ascending
	GetAll(ctx context.Context) ([]entity.Offer, error)
	// GetActive returns active offers only, ordered by creation time ascending
	GetActive(ctx context.Context) ([]entity.Offer, error)
	// Update persists the offer and replaces its requirement rows
	Update(ctx context.Context, offer *entity.Offer) error
	Delete(ctx context.Context, id uuid.UUID) error
}
