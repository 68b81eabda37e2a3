package domain

import (
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/pkg/errors"
)

var (
	ErrInvalidQuantity   = errors.New("offer quantity must be greater than zero")
	ErrInvalidPrice      = errors.New("price must not be negative")
	ErrInvalidStock      = errors.New("product stock must not be negative")
	ErrInvalidTierTable  = errors.New("price tiers must start above zero and ascend strictly by minimum quantity")
	ErrInvalidViewerRole = errors.New("viewer role must be requester or fulfiller")
)

type OfferAggregate struct {
	*types.Offer
}

// NewOfferAggregate validates offer and wraps it. Status strings are not
// validated here; unknown values are carried through to Normalize.
func NewOfferAggregate(offer types.Offer) (*OfferAggregate, error) {
	if offer.Quantity <= 0 {
		return nil, errors.Wrapf(ErrInvalidQuantity, "offer %s: quantity=%d", offer.ID, offer.Quantity)
	}
	if offer.UnitPrice.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidPrice, "offer %s: unit price %s", offer.ID, offer.UnitPrice)
	}
	if !offer.ViewerRole.Valid() {
		return nil, errors.Wrapf(ErrInvalidViewerRole, "offer %s: role %q", offer.ID, offer.ViewerRole)
	}
	if err := ValidateProduct(offer.Product); err != nil {
		return nil, errors.Wrapf(err, "offer %s", offer.ID)
	}

	tiers := make([]types.PriceTier, len(offer.Product.PriceTiers))
	copy(tiers, offer.Product.PriceTiers)
	offer.Product.PriceTiers = tiers

	return &OfferAggregate{Offer: &offer}, nil
}

func ValidateProduct(product types.ProductSnapshot) error {
	if product.CurrentStock < 0 {
		return errors.Wrapf(ErrInvalidStock, "product %s: stock=%d", product.ID, product.CurrentStock)
	}
	if product.BasePrice.IsNegative() {
		return errors.Wrapf(ErrInvalidPrice, "product %s: base price %s", product.ID, product.BasePrice)
	}
	return ValidateTiers(product.PriceTiers)
}

func (o *OfferAggregate) Approve(purchaseDeadline time.Time) {
	o.Status = types.OfferStatusApproved
	o.PurchaseDeadline = &purchaseDeadline
}

func (o *OfferAggregate) Reject() {
	o.Status = types.OfferStatusRejected
}

func (o *OfferAggregate) Cancel() {
	o.Status = types.OfferStatusCancelled
}

// Snapshot returns a copy that shares nothing mutable with o.
func (o *OfferAggregate) Snapshot() types.Offer {
	offer := *o.Offer
	offer.Product.PriceTiers = append([]types.PriceTier(nil), o.Product.PriceTiers...)
	if o.ExpiresAt != nil {
		expiresAt := *o.ExpiresAt
		offer.ExpiresAt = &expiresAt
	}
	if o.PurchaseDeadline != nil {
		deadline := *o.PurchaseDeadline
		offer.PurchaseDeadline = &deadline
	}
	return offer
}

// AcceptResult is what the store reports back after reserving stock.
type AcceptResult struct {
	// PurchaseDeadline is set when the store assigned one itself.
	PurchaseDeadline *time.Time
}
