package domain

import (
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func tiers(pairs ...int64) []types.PriceTier {
	var out []types.PriceTier
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, types.PriceTier{MinQuantity: int(pairs[i]), UnitPrice: decimal.NewFromInt(pairs[i+1])})
	}
	return out
}

func newOffer(status types.OfferStatus) *types.Offer {
	return &types.Offer{
		ID:        uuid.New(),
		Status:    status,
		Quantity:  10,
		UnitPrice: decimal.NewFromInt(850),
		Product: types.ProductSnapshot{
			ID:           uuid.New(),
			Name:         "Harina 25kg",
			CurrentStock: 100,
			PriceTiers:   tiers(50, 900, 150, 800),
			BasePrice:    decimal.NewFromInt(1000),
		},
		Counterpart: types.Counterpart{ID: uuid.New(), Name: "Panadería Sur"},
		CreatedAt:   testNow.Add(-time.Hour),
		ViewerRole:  types.ViewerFulfiller,
	}
}
