package domain

import (
	"testing"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/stretchr/testify/assert"
)

func TestIsExpired(t *testing.T) {
	pending := newOffer(types.OfferStatusPending)
	pending.ExpiresAt = at(-time.Second)
	assert.True(t, IsExpired(pending, testNow))

	pending.ExpiresAt = at(time.Hour)
	assert.False(t, IsExpired(pending, testNow))

	pending.ExpiresAt = at(0)
	assert.False(t, IsExpired(pending, testNow), "deadline instant itself is not expired")

	pending.ExpiresAt = nil
	assert.False(t, IsExpired(pending, testNow))
}

func TestIsExpiredApprovedFallsBackToExpiresAt(t *testing.T) {
	approved := newOffer(types.OfferStatusApproved)
	approved.ExpiresAt = at(-time.Second)
	assert.True(t, IsExpired(approved, testNow))

	approved.PurchaseDeadline = at(time.Hour)
	assert.False(t, IsExpired(approved, testNow), "purchase deadline takes precedence")

	approved.Status = "accepted"
	approved.PurchaseDeadline = at(-time.Minute)
	assert.True(t, IsExpired(approved, testNow))
}

func TestIsExpiredOtherStatuses(t *testing.T) {
	for _, status := range []types.OfferStatus{
		types.OfferStatusRejected, types.OfferStatusCancelled, types.OfferStatusPaid, types.OfferStatusReserved, "weird",
	} {
		offer := newOffer(status)
		offer.ExpiresAt = at(-time.Hour)
		offer.PurchaseDeadline = at(-time.Hour)
		assert.False(t, IsExpired(offer, testNow), string(status))
	}
}

func TestRemainingLabelPending(t *testing.T) {
	offer := newOffer(types.OfferStatusPending)
	assert.Equal(t, "-", RemainingLabel(offer, testNow))

	offer.ExpiresAt = at(-time.Minute)
	assert.Equal(t, "Expired", RemainingLabel(offer, testNow))

	offer.ExpiresAt = at(0)
	assert.Equal(t, "Expired", RemainingLabel(offer, testNow))

	offer.ExpiresAt = at(3*time.Hour + 12*time.Minute + 30*time.Second)
	assert.Equal(t, "3h 12m", RemainingLabel(offer, testNow))

	offer.ExpiresAt = at(59*time.Minute + 59*time.Second)
	assert.Equal(t, "59m", RemainingLabel(offer, testNow))

	offer.ExpiresAt = at(47*time.Hour + 59*time.Minute)
	assert.Equal(t, "47h 59m", RemainingLabel(offer, testNow))

	offer.ExpiresAt = at(48 * time.Hour)
	assert.Equal(t, "-", RemainingLabel(offer, testNow))
}

func TestRemainingLabelApproved(t *testing.T) {
	offer := newOffer(types.OfferStatusApproved)
	assert.Equal(t, "<24h", RemainingLabel(offer, testNow))

	offer.ExpiresAt = at(72 * time.Hour)
	assert.Equal(t, "72h 0m", RemainingLabel(offer, testNow), "no 48h cap once approved")

	offer.PurchaseDeadline = at(5 * time.Minute)
	assert.Equal(t, "5m", RemainingLabel(offer, testNow))

	offer.PurchaseDeadline = at(-time.Second)
	assert.Equal(t, "Expired", RemainingLabel(offer, testNow))
}

func TestRemainingLabelOtherStatuses(t *testing.T) {
	offer := newOffer(types.OfferStatusRejected)
	offer.ExpiresAt = at(time.Hour)
	assert.Equal(t, "-", RemainingLabel(offer, testNow))
}
