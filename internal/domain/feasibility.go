package domain

import "github.com/b2b-marketplace/offer-service/shared-domain/types"

const ReasonInsufficientStock = "InsufficientStock"

type StockShortfall struct {
	Code      string `json:"code"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

type Feasibility struct {
	Allowed bool            `json:"allowed"`
	Reason  *StockShortfall `json:"reason,omitempty"`
}

// CanAccept gates acceptance on the product's current stock. Price plays no
// part in the decision.
func CanAccept(offer *types.Offer) Feasibility {
	if offer.Quantity <= offer.Product.CurrentStock {
		return Feasibility{Allowed: true}
	}
	return Feasibility{
		Reason: &StockShortfall{
			Code:      ReasonInsufficientStock,
			Required:  offer.Quantity,
			Available: offer.Product.CurrentStock,
		},
	}
}
