package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusApproved  OfferStatus = "approved"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusCancelled OfferStatus = "cancelled"
	OfferStatusReserved  OfferStatus = "reserved"
	OfferStatusPaid      OfferStatus = "paid"
	OfferStatusExpired   OfferStatus = "expired"
)

// CanonicalStatuses lists every status the engine knows, in display order.
var CanonicalStatuses = []OfferStatus{
	OfferStatusPending,
	OfferStatusApproved,
	OfferStatusRejected,
	OfferStatusCancelled,
	OfferStatusReserved,
	OfferStatusPaid,
	OfferStatusExpired,
}

func (s OfferStatus) IsCanonical() bool {
	for _, known := range CanonicalStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type ViewerRole string

const (
	// ViewerRequester is the buyer that placed the offer.
	ViewerRequester ViewerRole = "requester"
	// ViewerFulfiller is the supplier that receives it.
	ViewerFulfiller ViewerRole = "fulfiller"
)

func (r ViewerRole) Valid() bool {
	return r == ViewerRequester || r == ViewerFulfiller
}

type Counterpart struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Offer struct {
	ID               uuid.UUID       `json:"id"`
	Status           OfferStatus     `json:"status"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Product          ProductSnapshot `json:"product"`
	Counterpart      Counterpart     `json:"counterpart"`
	CreatedAt        time.Time       `json:"created_at"`
	ExpiresAt        *time.Time      `json:"expires_at,omitempty"`
	PurchaseDeadline *time.Time      `json:"purchase_deadline,omitempty"`
	ViewerRole       ViewerRole      `json:"viewer_role"`
}
