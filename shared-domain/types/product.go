package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PriceTier struct {
	MinQuantity int             `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ProductSnapshot is the product state captured alongside an offer.
type ProductSnapshot struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	CurrentStock int             `json:"current_stock"`
	PriceTiers   []PriceTier     `json:"price_tiers"`
	BasePrice    decimal.Decimal `json:"base_price"`
}
