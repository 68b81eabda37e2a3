package domain

import (
	"testing"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveUnitPrice(t *testing.T) {
	product := types.ProductSnapshot{PriceTiers: tiers(50, 900, 150, 800), BasePrice: decimal.NewFromInt(1000)}

	tests := []struct {
		quantity int
		price    int64
		below    bool
	}{
		{0, 900, true},
		{30, 900, true},
		{49, 900, true},
		{50, 900, false},
		{60, 900, false},
		{149, 900, false},
		{150, 800, false},
		{300, 800, false},
	}

	for _, tt := range tests {
		got := ResolveUnitPrice(product, tt.quantity)
		assert.True(t, decimal.NewFromInt(tt.price).Equal(got.Price), "qty=%d got %s", tt.quantity, got.Price)
		assert.Equal(t, tt.below, got.BelowMinimum, "qty=%d", tt.quantity)
	}
}

func TestResolveUnitPriceWithoutTiers(t *testing.T) {
	product := types.ProductSnapshot{BasePrice: decimal.RequireFromString("12.50")}

	for _, quantity := range []int{0, 1, 10, 1_000_000} {
		got := ResolveUnitPrice(product, quantity)
		assert.True(t, product.BasePrice.Equal(got.Price))
		assert.False(t, got.BelowMinimum)
	}
}

func TestResolveUnitPriceIsTotal(t *testing.T) {
	tables := [][]types.PriceTier{
		nil,
		tiers(1, 10),
		tiers(5, 10, 6, 9, 100, 1),
		tiers(3, 7, 1000, 5),
	}
	for _, table := range tables {
		require.NoError(t, ValidateTiers(table))
		product := types.ProductSnapshot{PriceTiers: table, BasePrice: decimal.NewFromInt(3)}
		for quantity := 0; quantity <= 1200; quantity++ {
			assert.NotPanics(t, func() { ResolveUnitPrice(product, quantity) })
		}
	}
}

func TestPriceResolutionTotal(t *testing.T) {
	got := ResolveUnitPrice(types.ProductSnapshot{PriceTiers: tiers(50, 900)}, 60)
	assert.True(t, decimal.NewFromInt(54000).Equal(got.Total(60)))
}
