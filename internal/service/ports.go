package service

import (
	"context"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
)

// Fetcher loads the canonical offers visible to a principal.
type Fetcher interface {
	FetchOffers(ctx context.Context, principalID uuid.UUID, role types.ViewerRole) ([]types.Offer, error)
}

// Persistence performs the mutating calls. The store re-validates every
// rule on its side.
type Persistence interface {
	AcceptOffer(ctx context.Context, offerID uuid.UUID) (domain.AcceptResult, error)
	RejectOffer(ctx context.Context, offerID uuid.UUID, reason string) error
	DeleteOffer(ctx context.Context, offerID uuid.UUID, role types.ViewerRole) error
	CancelOffer(ctx context.Context, offerID uuid.UUID, reason string) error
}

// Notifier shows a message to the viewer. It must not block.
type Notifier interface {
	Notify(notification types.Notification)
}
