package service

import (
	"bytes"
	"sort"

	"github.com/breakretail/backoffice-api/internal/domain/entity"
	"github.com/breakretail/backoffice-api/internal/domain/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculateDiscount computes the total discount an order earns from the given
// offers. Offers claim matching line quantities greedily in ascending
// (CreatedAt, ID) order, so earlier-created offers win when they compete for
// the same products; the ID tie-break keeps the result deterministic. The
// result is always within [0, subtotal], rounded to 2 decimal places half
// away from zero. The function mutates neither the order nor the offers and
// is safe for concurrent use.
func CalculateDiscount(order *entity.SalesOrder, offers []entity.Offer) decimal.Decimal {
	if len(offers) == 0 || len(order.Lines) == 0 {
		return decimal.Zero
	}

	buckets := buildBuckets(order)

	sorted := make([]entity.Offer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	totalDiscount := decimal.Zero

	for i := range sorted {
		offer := &sorted[i]
		if !offer.IsActive {
			continue
		}

		applications := applicationCount(offer, buckets)
		if applications == 0 {
			continue
		}

		matchedAmount := consumeMatchedAmount(offer, buckets, applications)
		offerDiscount := offerDiscountAmount(offer, matchedAmount, applications)
		totalDiscount = totalDiscount.Add(decimal.Min(offerDiscount, matchedAmount))

		// Full-order discount is terminal: nothing left to discount.
		if totalDiscount.GreaterThanOrEqual(order.Subtotal) {
			return order.Subtotal
		}
	}

	return decimal.Min(totalDiscount, order.Subtotal).Round(2)
}

// productBucket aggregates one product's quantity and amount across all lines
// of the order. It is the unit of consumption during offer matching: when an
// offer claims units, it takes a proportional share of the amount with them.
type productBucket struct {
	quantity int
	amount   decimal.Decimal
}

// consume removes quantity units and returns the amount that travels with
// them. Taking the whole remaining quantity takes the whole remaining amount
// so no rounding dust is left behind. Asking for more than the bucket holds
// is a bug in the matching logic, not bad input, and panics.
func (b *productBucket) consume(quantity int) decimal.Decimal {
	if quantity <= 0 || b.quantity == 0 {
		return decimal.Zero
	}
	if quantity > b.quantity {
		panic("offer matching consumed more quantity than available in product bucket")
	}
	if quantity == b.quantity {
		all := b.amount
		b.quantity = 0
		b.amount = decimal.Zero
		return all
	}

	consumed := b.amount.
		Mul(decimal.NewFromInt(int64(quantity))).
		Div(decimal.NewFromInt(int64(b.quantity)))
	b.quantity -= quantity
	b.amount = b.amount.Sub(consumed)
	return consumed
}

func buildBuckets(order *entity.SalesOrder) map[uuid.UUID]*productBucket {
	buckets := make(map[uuid.UUID]*productBucket)
	for i := range order.Lines {
		line := &order.Lines[i]
		bucket, ok := buckets[line.ProductID]
		if !ok {
			bucket = &productBucket{amount: decimal.Zero}
			buckets[line.ProductID] = bucket
		}
		bucket.quantity += line.Quantity
		bucket.amount = bucket.amount.Add(line.LineTotal)
	}
	return buckets
}

// applicationCount is how many whole times the offer fits the remaining
// buckets: the minimum over its requirements of floor(bucketQty / reqQty).
// Zero means the offer does not apply at all.
func applicationCount(offer *entity.Offer, buckets map[uuid.UUID]*productBucket) int {
	count := 0
	for i, req := range offer.Requirements {
		bucket, ok := buckets[req.ProductID]
		if !ok {
			return 0
		}
		possible := bucket.quantity / req.Quantity
		if possible == 0 {
			return 0
		}
		if i == 0 || possible < count {
			count = possible
		}
	}
	return count
}

func consumeMatchedAmount(offer *entity.Offer, buckets map[uuid.UUID]*productBucket, applications int) decimal.Decimal {
	matched := decimal.Zero
	for _, req := range offer.Requirements {
		matched = matched.Add(buckets[req.ProductID].consume(req.Quantity * applications))
	}
	return matched
}

// offerDiscountAmount computes one offer's discount over the amount it
// matched, clamped so an offer never discounts more than what it matched.
func offerDiscountAmount(offer *entity.Offer, matchedAmount decimal.Decimal, applications int) decimal.Decimal {
	var raw decimal.Decimal
	switch offer.DiscountType {
	case enum.DiscountTypePercentage:
		raw = matchedAmount.Mul(offer.DiscountValue).Div(decimal.NewFromInt(100))
	case enum.DiscountTypeFixedAmount:
		raw = offer.DiscountValue.Mul(decimal.NewFromInt(int64(applications)))
	default:
		panic("unsupported offer discount type")
	}
	return decimal.Min(raw, matchedAmount).Round(2)
}
