package domain

import (
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type PriceResolution struct {
	Price decimal.Decimal `json:"price"`
	// BelowMinimum is set when quantity is under the smallest tier; the
	// smallest tier's price still applies.
	BelowMinimum bool `json:"below_minimum"`
}

// Total is the resolved price multiplied by quantity.
func (r PriceResolution) Total(quantity int) decimal.Decimal {
	return r.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// ResolveUnitPrice picks the tier with the largest MinQuantity not above
// quantity. It never fails: an empty table yields the base price and a
// quantity under the first tier yields that tier flagged BelowMinimum.
func ResolveUnitPrice(product types.ProductSnapshot, quantity int) PriceResolution {
	tiers := product.PriceTiers
	if len(tiers) == 0 {
		return PriceResolution{Price: product.BasePrice}
	}
	if quantity < tiers[0].MinQuantity {
		return PriceResolution{Price: tiers[0].UnitPrice, BelowMinimum: true}
	}

	selected := tiers[0]
	for _, tier := range tiers[1:] {
		if tier.MinQuantity > quantity {
			break
		}
		selected = tier
	}
	return PriceResolution{Price: selected.UnitPrice}
}

func ValidateTiers(tiers []types.PriceTier) error {
	previous := 0
	for i, tier := range tiers {
		if tier.MinQuantity <= previous {
			return errors.Wrapf(ErrInvalidTierTable, "tier %d: min_quantity=%d after %d", i, tier.MinQuantity, previous)
		}
		if tier.UnitPrice.IsNegative() {
			return errors.Wrapf(ErrInvalidPrice, "tier %d: unit price %s", i, tier.UnitPrice)
		}
		previous = tier.MinQuantity
	}
	return nil
}
