package service

import (
	"context"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/breakretail/backoffice-api/pkg/apperror"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OfferCache caches the active offer set between catalog edits. A miss is
// reported as (nil, nil).
type OfferCache interface {
	GetActive(ctx context.Context) ([]entity.Offer, error)
	SetActive(ctx context.Context, offers []entity.Offer) error
	Invalidate(ctx context.Context) error
}

// OfferService handles offer catalog operations. Every write invalidates the
// active-offer cache so order pricing always sees the current catalog.
type OfferService struct {
	offerRepo   repository.OfferRepository
	productRepo repository.ProductRepository
	cache       OfferCache
	logger      zerolog.Logger
}

// NewOfferService creates a new offer service
func NewOfferService(
	offerRepo repository.OfferRepository,
	productRepo repository.ProductRepository,
	cache OfferCache,
	logger zerolog.Logger,
) *OfferService {
	return &OfferService{
		offerRepo:   offerRepo,
		productRepo: productRepo,
		cache:       cache,
		logger:      logger,
	}
}

// OfferRequirementInput represents one required product in an offer definition
type OfferRequirementInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// OfferInput represents the full offer definition for create and update
type OfferInput struct {
	Name          string
	Description   string
	DiscountType  int
	DiscountValue decimal.Decimal
	Requirements  []OfferRequirementInput
}

// CreateOffer creates a new offer with its requirements
func (s *OfferService) CreateOffer(ctx context.Context, input *OfferInput) (*entity.Offer, error) {
	requirements, err := s.buildRequirements(ctx, input.Requirements)
	if err != nil {
		return nil, err
	}

	discountType := enum.DiscountType(input.DiscountType)
	if !discountType.IsValid() {
		return nil, apperror.NewBadRequestError("Invalid discount type")
	}

	offer, err := entity.NewOffer(input.Name, input.Description, discountType, input.DiscountValue, requirements)
	if err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)

	return s.offerRepo.GetByID(ctx, offer.ID)
}

// GetOffer retrieves an offer by ID, requirements included
func (s *OfferService) GetOffer(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperror.NewNotFoundError("Offer")
	}
	return offer, nil
}

// ListOffers returns the whole offer catalog in creation order
func (s *OfferService) ListOffers(ctx context.Context) ([]entity.Offer, error) {
	return s.offerRepo.GetAll(ctx)
}

// ActiveOffers returns the offers eligible for discount matching, in creation
// order. The result is served from cache when possible.
func (s *OfferService) ActiveOffers(ctx context.Context) ([]entity.Offer, error) {
	cached, err := s.cache.GetActive(ctx)
	if err != nil {
		// A broken cache must not block order submission.
		s.logger.Warn().Err(err).Msg("offer cache read failed, falling back to database")
	} else if cached != nil {
		return cached, nil
	}

	offers, err := s.offerRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetActive(ctx, offers); err != nil {
		s.logger.Warn().Err(err).Msg("failed to populate offer cache")
	}
	return offers, nil
}

// UpdateOffer replaces the whole offer definition. Offers are never partially
// updated; requirement rows are replaced wholesale.
func (s *OfferService) UpdateOffer(ctx context.Context, id uuid.UUID, input *OfferInput) (*entity.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperror.NewNotFoundError("Offer")
	}

	requirements, err := s.buildRequirements(ctx, input.Requirements)
	if err != nil {
		return nil, err
	}

	discountType := enum.DiscountType(input.DiscountType)
	if !discountType.IsValid() {
		return nil, apperror.NewBadRequestError("Invalid discount type")
	}

	if err := offer.ApplyDefinition(input.Name, input.Description, discountType, input.DiscountValue, requirements); err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)

	return s.offerRepo.GetByID(ctx, offer.ID)
}

// SetOfferActive activates or deactivates an offer
func (s *OfferService) SetOfferActive(ctx context.Context, id uuid.UUID, active bool) (*entity.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperror.NewNotFoundError("Offer")
	}

	if active {
		offer.Activate()
	} else {
		offer.Deactivate()
	}

	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)

	return offer, nil
}

// DeleteOffer removes an offer and its requirements
func (s *OfferService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if offer == nil {
		return apperror.NewNotFoundError("Offer")
	}

	if err := s.offerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// buildRequirements validates the referenced products exist and converts the
// input rows to entity requirements
func (s *OfferService) buildRequirements(ctx context.Context, inputs []OfferRequirementInput) ([]entity.OfferRequirement, error) {
	if len(inputs) == 0 {
		return nil, apperror.NewBadRequestError("Offer requires at least one product requirement")
	}

	productIDs := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		productIDs[i] = in.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	known := make(map[uuid.UUID]struct{}, len(products))
	for i := range products {
		known[products[i].ID] = struct{}{}
	}

	requirements := make([]entity.OfferRequirement, len(inputs))
	for i, in := range inputs {
		if _, ok := known[in.ProductID]; !ok {
			return nil, apperror.NewNotFoundError("Product " + in.ProductID.String())
		}
		requirements[i] = entity.OfferRequirement{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
		}
	}
	return requirements, nil
}

func (s *OfferService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate offer cache")
	}
}
