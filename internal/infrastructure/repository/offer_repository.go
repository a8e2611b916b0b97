package repository

import (
	"context"
	"errors"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	domainRepo "github.com/breakretail/backoffice-api/internal/domain/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type offerRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *gorm.DB) domainRepo.OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Create(ctx context.Context, offer *entity.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Offer, error) {
	var offer entity.Offer
	err := r.db.WithContext(ctx).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&offer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &offer, err
}

func (r *offerRepository) GetAll(ctx context.Context) ([]entity.Offer, error) {
	var offers []entity.Offer
	err := r.db.WithContext(ctx).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at ASC, id ASC").
		Find(&offers).Error
	return offers, err
}

func (r *offerRepository) GetActive(ctx context.Context) ([]entity.Offer, error) {
	var offers []entity.Offer
	err := r.db.WithContext(ctx).
		Preload("Requirements", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("is_active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&offers).Error
	return offers, err
}

// Update replaces the offer row and its requirement rows wholesale. Offers are
// never partially updated.
func (r *offerRepository) Update(ctx context.Context, offer *entity.Offer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.OfferRequirement{}, "offer_id = ?", offer.ID).Error; err != nil {
			return err
		}
		if err := tx.Omit("Requirements").Save(offer).Error; err != nil {
			return err
		}
		if len(offer.Requirements) > 0 {
			if err := tx.Create(&offer.Requirements).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *offerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.OfferRequirement{}, "offer_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Offer{}, "id = ?", id).Error
	})
}
