package service

import (
	"context"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/breakretail/backoffice-api/pkg/apperror"
	"github.com/google/uuid"
)

// ProviderService handles merchandise suppliers
type ProviderService struct {
	providerRepo repository.ProviderRepository
}

// NewProviderService creates a new provider service
func NewProviderService(providerRepo repository.ProviderRepository) *ProviderService {
	return &ProviderService{providerRepo: providerRepo}
}

// ProviderInput carries a provider's full contact record. Updates replace the
// whole record, not individual fields.
type ProviderInput struct {
	Name        string
	ContactName string
	Phone       string
	Email       string
	Address     string
}

// CreateProvider registers a new supplier
func (s *ProviderService) CreateProvider(ctx context.Context, input *ProviderInput) (*entity.Provider, error) {
	if input.Name == "" {
		return nil, apperror.NewBadRequestError("Provider name is required")
	}

	provider := &entity.Provider{
		Name:        input.Name,
		ContactName: input.ContactName,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
	}
	if err := s.providerRepo.Create(ctx, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// GetProvider retrieves a provider by ID
func (s *ProviderService) GetProvider(ctx context.Context, id uuid.UUID) (*entity.Provider, error) {
	provider, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, apperror.NewNotFoundError("Provider")
	}
	return provider, nil
}

// ListProviders returns all providers
func (s *ProviderService) ListProviders(ctx context.Context) ([]entity.Provider, error) {
	return s.providerRepo.GetAll(ctx)
}

// UpdateProvider replaces a provider's contact record
func (s *ProviderService) UpdateProvider(ctx context.Context, id uuid.UUID, input *ProviderInput) (*entity.Provider, error) {
	if input.Name == "" {
		return nil, apperror.NewBadRequestError("Provider name is required")
	}

	provider, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, apperror.NewNotFoundError("Provider")
	}

	provider.Name = input.Name
	provider.ContactName = input.ContactName
	provider.Phone = input.Phone
	provider.Email = input.Email
	provider.Address = input.Address

	if err := s.providerRepo.Update(ctx, provider); err != nil {
		return nil, err
	}
	return provider, nil
}

// DeleteProvider soft-deletes a provider
func (s *ProviderService) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	provider, err := s.providerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if provider == nil {
		return apperror.NewNotFoundError("Provider")
	}
	return s.providerRepo.Delete(ctx, id)
}
