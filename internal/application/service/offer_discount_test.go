package service

import (
	"testing"
	"time"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type testLine struct {
	productID uuid.UUID
	quantity  int
	unitPrice string
}

func makeOrder(t *testing.T, lines ...testLine) *entity.SalesOrder {
	t.Helper()
	order, err := entity.NewSalesOrder("SO-TEST", uuid.New(), enum.PaymentMethodCash)
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	for _, line := range lines {
		if err := order.AddLine(line.productID, "product", line.quantity, decimal.RequireFromString(line.unitPrice)); err != nil {
			t.Fatalf("add line: %v", err)
		}
	}
	return order
}

func makeOffer(t *testing.T, createdAt time.Time, discountType enum.DiscountType, value string, reqs ...entity.OfferRequirement) entity.Offer {
	t.Helper()
	offer, err := entity.NewOffer("test offer", "", discountType, decimal.RequireFromString(value), reqs)
	if err != nil {
		t.Fatalf("new offer: %v", err)
	}
	offer.CreatedAt = createdAt
	offer.UpdatedAt = createdAt
	return *offer
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCalculateDiscountNoOffers(t *testing.T) {
	order := makeOrder(t, testLine{uuid.New(), 2, "100"})
	assertDecimal(t, CalculateDiscount(order, nil), "0")
}

func TestCalculateDiscountNoMatchingOffer(t *testing.T) {
	order := makeOrder(t, testLine{uuid.New(), 2, "100"})
	offer := makeOffer(t, time.Now(), enum.DiscountTypePercentage, "10",
		entity.OfferRequirement{ProductID: uuid.New(), Quantity: 1})

	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "0")
}

func TestCalculateDiscountPercentage(t *testing.T) {
	productID := uuid.New()
	order := makeOrder(t, testLine{productID, 2, "100"})
	offer := makeOffer(t, time.Now(), enum.DiscountTypePercentage, "10",
		entity.OfferRequirement{ProductID: productID, Quantity: 2})

	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "20")
	assertDecimal(t, order.Subtotal, "200")
}

func TestCalculateDiscountFixedAmountBundle(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	order := makeOrder(t,
		testLine{productA, 2, "50"},
		testLine{productB, 1, "30"},
	)
	offer := makeOffer(t, time.Now(), enum.DiscountTypeFixedAmount, "20",
		entity.OfferRequirement{ProductID: productA, Quantity: 2},
		entity.OfferRequirement{ProductID: productB, Quantity: 1},
	)

	assertDecimal(t, order.Subtotal, "130")
	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "20")
}

func TestCalculateDiscountCappedAtSubtotal(t *testing.T) {
	productID := uuid.New()
	order := makeOrder(t, testLine{productID, 1, "100"})
	offer := makeOffer(t, time.Now(), enum.DiscountTypeFixedAmount, "500",
		entity.OfferRequirement{ProductID: productID, Quantity: 1})

	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "100")
}

func TestCalculateDiscountIgnoresInactiveOffer(t *testing.T) {
	productID := uuid.New()
	order := makeOrder(t, testLine{productID, 2, "100"})
	offer := makeOffer(t, time.Now(), enum.DiscountTypePercentage, "25",
		entity.OfferRequirement{ProductID: productID, Quantity: 2})
	offer.Deactivate()

	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "0")
}

func TestCalculateDiscountAppliesMultipleTimes(t *testing.T) {
	productID := uuid.New()
	order := makeOrder(t, testLine{productID, 5, "20"})
	offer := makeOffer(t, time.Now(), enum.DiscountTypeFixedAmount, "10",
		entity.OfferRequirement{ProductID: productID, Quantity: 2})

	// 5 units / requirement of 2 = 2 whole applications.
	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "20")
}

func TestCalculateDiscountProportionalAcrossUnitPrices(t *testing.T) {
	productID := uuid.New()
	// Same product at two prices: bucket is 4 units worth 100+60=160.
	order := makeOrder(t,
		testLine{productID, 2, "50"},
		testLine{productID, 2, "30"},
	)
	offer := makeOffer(t, time.Now(), enum.DiscountTypePercentage, "50",
		entity.OfferRequirement{ProductID: productID, Quantity: 4})

	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "80")
}

func TestCalculateDiscountCompetingOffersEarliestWins(t *testing.T) {
	// Two offers over the same two units; the earlier-created one claims them,
	// leaving nothing for the second. Changing the (CreatedAt, ID) ordering
	// would change discount outcomes for overlapping offers, so this pins it.
	productID := uuid.New()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	older := makeOffer(t, base, enum.DiscountTypePercentage, "10",
		entity.OfferRequirement{ProductID: productID, Quantity: 2})
	newer := makeOffer(t, base.Add(time.Hour), enum.DiscountTypePercentage, "50",
		entity.OfferRequirement{ProductID: productID, Quantity: 2})

	order := makeOrder(t, testLine{productID, 2, "100"})
	got := CalculateDiscount(order, []entity.Offer{newer, older})
	assertDecimal(t, got, "20")

	// Input slice order must not matter.
	order = makeOrder(t, testLine{productID, 2, "100"})
	assertDecimal(t, CalculateDiscount(order, []entity.Offer{older, newer}), "20")
}

func TestCalculateDiscountShortCircuitsAtSubtotal(t *testing.T) {
	productID := uuid.New()
	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	first := makeOffer(t, base, enum.DiscountTypeFixedAmount, "200",
		entity.OfferRequirement{ProductID: productID, Quantity: 1})
	second := makeOffer(t, base.Add(time.Minute), enum.DiscountTypePercentage, "10",
		entity.OfferRequirement{ProductID: productID, Quantity: 1})

	order := makeOrder(t, testLine{productID, 2, "50"})
	got := CalculateDiscount(order, []entity.Offer{first, second})

	// First offer alone reaches the subtotal; result is the subtotal exactly.
	assertDecimal(t, got, "100")
}

func TestCalculateDiscountIsIdempotent(t *testing.T) {
	productID := uuid.New()
	offer := makeOffer(t, time.Now(), enum.DiscountTypePercentage, "10",
		entity.OfferRequirement{ProductID: productID, Quantity: 2})
	offers := []entity.Offer{offer}

	order := makeOrder(t, testLine{productID, 4, "25"})
	first := CalculateDiscount(order, offers)
	second := CalculateDiscount(order, offers)

	if !first.Equal(second) {
		t.Fatalf("discount changed between identical calls: %s then %s", first, second)
	}
	if len(offers[0].Requirements) != 1 || offers[0].Requirements[0].Quantity != 2 {
		t.Fatalf("input offers were mutated: %+v", offers[0].Requirements)
	}
}

func TestCalculateDiscountRoundsHalfAwayFromZero(t *testing.T) {
	productID := uuid.New()
	order := makeOrder(t, testLine{productID, 1, "2.50"})
	// 5% of 2.50 = 0.125: the half rounds away from zero, to 0.13 not 0.12.
	offer := makeOffer(t, time.Now(), enum.DiscountTypePercentage, "5",
		entity.OfferRequirement{ProductID: productID, Quantity: 1})

	assertDecimal(t, CalculateDiscount(order, []entity.Offer{offer}), "0.13")
}

func TestProductBucketConsumeTooMuchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when over-consuming a bucket")
		}
	}()

	bucket := &productBucket{quantity: 1, amount: decimal.NewFromInt(10)}
	bucket.consume(2)
}
