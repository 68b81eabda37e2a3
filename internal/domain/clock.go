package domain

import (
	"fmt"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
)

const (
	RemainingNone    = "-"
	RemainingExpired = "Expired"
	// Acceptance implies a purchase window of at most a day even when the
	// record carries no explicit deadline.
	RemainingWithinDay = "<24h"

	// Only the tail of a pending offer's window is surfaced.
	PendingVisibleWindow = 48 * time.Hour
)

// IsExpired reports whether offer has passed the deadline that applies to
// its current status. Pending offers use ExpiresAt; approved offers use
// PurchaseDeadline and fall back to ExpiresAt.
func IsExpired(offer *types.Offer, now time.Time) bool {
	status, _ := CanonicalStatus(string(offer.Status))
	return expiredAs(status, offer, now)
}

func expiredAs(status types.OfferStatus, offer *types.Offer, now time.Time) bool {
	deadline := deadlineFor(status, offer)
	return deadline != nil && now.After(*deadline)
}

func deadlineFor(status types.OfferStatus, offer *types.Offer) *time.Time {
	if offer == nil {
		return nil
	}
	switch status {
	case types.OfferStatusPending:
		return offer.ExpiresAt
	case types.OfferStatusApproved:
		if offer.PurchaseDeadline != nil {
			return offer.PurchaseDeadline
		}
		return offer.ExpiresAt
	default:
		return nil
	}
}

// RemainingLabel renders the time left before offer expires, e.g. "3h 12m".
func RemainingLabel(offer *types.Offer, now time.Time) string {
	status, _ := CanonicalStatus(string(offer.Status))

	switch status {
	case types.OfferStatusPending:
		if offer.ExpiresAt == nil {
			return RemainingNone
		}
		remaining := offer.ExpiresAt.Sub(now)
		if remaining <= 0 {
			return RemainingExpired
		}
		if remaining < PendingVisibleWindow {
			return formatRemaining(remaining)
		}
		return RemainingNone

	case types.OfferStatusApproved:
		target := deadlineFor(status, offer)
		if target == nil {
			return RemainingWithinDay
		}
		remaining := target.Sub(now)
		if remaining <= 0 {
			return RemainingExpired
		}
		return formatRemaining(remaining)

	default:
		return RemainingNone
	}
}

func formatRemaining(remaining time.Duration) string {
	hrs := remaining / time.Hour
	mins := (remaining % time.Hour) / time.Minute
	if hrs >= 1 {
		return fmt.Sprintf("%dh %dm", hrs, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
