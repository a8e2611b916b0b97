package entity

import (
	"errors"
	"testing"

	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func requirement(quantity int) OfferRequirement {
	return OfferRequirement{ProductID: uuid.New(), Quantity: quantity}
}

func TestNewOfferValidDefinition(t *testing.T) {
	offer, err := NewOffer("2x1 Yerba", "buy two, pay one", enum.DiscountTypeFixedAmount,
		decimal.RequireFromString("50.005"), []OfferRequirement{requirement(2)})
	if err != nil {
		t.Fatalf("NewOffer: %v", err)
	}

	if !offer.IsActive {
		t.Error("new offer should start active")
	}
	if got, want := offer.DiscountValue.String(), "50.01"; got != want {
		t.Errorf("DiscountValue = %s, want %s (rounded to cents)", got, want)
	}
	if len(offer.Requirements) != 1 || offer.Requirements[0].OfferID != offer.ID {
		t.Error("requirements not linked to the offer")
	}
}

func TestNewOfferValidation(t *testing.T) {
	value := decimal.RequireFromString("10.00")
	reqs := []OfferRequirement{requirement(1)}

	tests := []struct {
		name         string
		offerName    string
		discountType enum.DiscountType
		value        decimal.Decimal
		requirements []OfferRequirement
		wantErr      error
	}{
		{"empty name", "  ", enum.DiscountTypePercentage, value, reqs, ErrOfferNameRequired},
		{"zero discount", "x", enum.DiscountTypePercentage, decimal.Zero, reqs, ErrOfferDiscountNotPositive},
		{"percentage above 100", "x", enum.DiscountTypePercentage, decimal.RequireFromString("100.01"), reqs, ErrOfferPercentageTooHigh},
		{"no requirements", "x", enum.DiscountTypePercentage, value, nil, ErrOfferRequirementsEmpty},
		{"zero requirement quantity", "x", enum.DiscountTypePercentage, value, []OfferRequirement{requirement(0)}, ErrRequirementQuantity},
		{"nil requirement product", "x", enum.DiscountTypePercentage, value, []OfferRequirement{{Quantity: 1}}, ErrRequirementProduct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOffer(tt.offerName, "", tt.discountType, tt.value, tt.requirements)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewOfferFixedAmountAbove100Allowed(t *testing.T) {
	// The 100 ceiling applies to percentages only
	if _, err := NewOffer("big flat", "", enum.DiscountTypeFixedAmount,
		decimal.RequireFromString("500.00"), []OfferRequirement{requirement(1)}); err != nil {
		t.Fatalf("NewOffer: %v", err)
	}
}

func TestNewOfferRejectsDuplicateProducts(t *testing.T) {
	productID := uuid.New()
	_, err := NewOffer("dup", "", enum.DiscountTypePercentage, decimal.RequireFromString("10"),
		[]OfferRequirement{
			{ProductID: productID, Quantity: 1},
			{ProductID: productID, Quantity: 2},
		})
	if err == nil {
		t.Fatal("expected error for duplicate requirement products")
	}
}

func TestApplyDefinitionReplacesRequirementsWholesale(t *testing.T) {
	offer, err := NewOffer("combo", "", enum.DiscountTypePercentage, decimal.RequireFromString("10"),
		[]OfferRequirement{requirement(1), requirement(2)})
	if err != nil {
		t.Fatalf("NewOffer: %v", err)
	}

	replacement := requirement(3)
	if err := offer.ApplyDefinition("combo v2", "updated", enum.DiscountTypeFixedAmount,
		decimal.RequireFromString("25"), []OfferRequirement{replacement}); err != nil {
		t.Fatalf("ApplyDefinition: %v", err)
	}

	if offer.Name != "combo v2" || offer.DiscountType != enum.DiscountTypeFixedAmount {
		t.Error("definition fields not replaced")
	}
	if len(offer.Requirements) != 1 {
		t.Fatalf("requirements = %d rows, want 1", len(offer.Requirements))
	}
	if offer.Requirements[0].ProductID != replacement.ProductID {
		t.Error("requirement rows not replaced")
	}
}

func TestApplyDefinitionInvalidLeavesOfferUntouched(t *testing.T) {
	offer, err := NewOffer("combo", "", enum.DiscountTypePercentage, decimal.RequireFromString("10"),
		[]OfferRequirement{requirement(1)})
	if err != nil {
		t.Fatalf("NewOffer: %v", err)
	}

	if err := offer.ApplyDefinition("", "", enum.DiscountTypePercentage,
		decimal.RequireFromString("10"), []OfferRequirement{requirement(1)}); !errors.Is(err, ErrOfferNameRequired) {
		t.Fatalf("got %v, want ErrOfferNameRequired", err)
	}
	if offer.Name != "combo" {
		t.Error("failed update mutated the offer")
	}
}

func TestActivateDeactivate(t *testing.T) {
	offer, err := NewOffer("toggle", "", enum.DiscountTypePercentage, decimal.RequireFromString("5"),
		[]OfferRequirement{requirement(1)})
	if err != nil {
		t.Fatalf("NewOffer: %v", err)
	}

	offer.Deactivate()
	if offer.IsActive {
		t.Error("Deactivate did not clear IsActive")
	}
	offer.Activate()
	if !offer.IsActive {
		t.Error("Activate did not set IsActive")
	}
}
