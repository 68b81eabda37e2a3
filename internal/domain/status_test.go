package domain

import (
	"testing"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalStatus(t *testing.T) {
	tests := []struct {
		raw   string
		want  types.OfferStatus
		known bool
	}{
		{"pending", types.OfferStatusPending, true},
		{"APPROVED", types.OfferStatusApproved, true},
		{"Accepted", types.OfferStatusApproved, true},
		{"success", types.OfferStatusPaid, true},
		{" paid ", types.OfferStatusPaid, true},
		{"", types.OfferStatusPending, true},
		{"Dispatched", "Dispatched", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, known := CanonicalStatus(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestNormalizeAppliesExpiry(t *testing.T) {
	offer := newOffer(types.OfferStatusPending)
	offer.ExpiresAt = at(-time.Second)

	assert.Equal(t, types.OfferStatusExpired, Normalize("pending", testNow, offer))
	// the raw value wins over the record's own status
	assert.Equal(t, types.OfferStatusExpired, Normalize("accepted", testNow, offer))
	assert.Equal(t, types.OfferStatusRejected, Normalize("rejected", testNow, offer))
	assert.Equal(t, types.OfferStatusCancelled, Normalize("cancelled", testNow, offer))
	assert.Equal(t, types.OfferStatusPaid, Normalize("success", testNow, offer))
	assert.Equal(t, types.OfferStatusReserved, Normalize("reserved", testNow, offer))
}

func TestNormalizeIsTimeRelative(t *testing.T) {
	offer := newOffer(types.OfferStatusPending)
	offer.ExpiresAt = at(time.Hour)

	assert.Equal(t, types.OfferStatusPending, Normalize("pending", testNow, offer))
	assert.Equal(t, types.OfferStatusExpired, Normalize("pending", testNow.Add(2*time.Hour), offer))
}

func TestNormalizeUnknownPassesThrough(t *testing.T) {
	offer := newOffer("Dispatched")
	offer.ExpiresAt = at(-time.Hour)

	assert.NotPanics(t, func() {
		assert.Equal(t, types.OfferStatus("Dispatched"), Normalize("Dispatched", testNow, offer))
	})
	assert.Equal(t, "Desconocido", StatusLabel("Dispatched", types.ViewerRequester).Label)
	assert.Equal(t, ToneNeutral, StatusLabel("Dispatched", types.ViewerFulfiller).Tone)
}

func TestStatusLabelByRole(t *testing.T) {
	assert.Equal(t, "Pagada", StatusLabel(types.OfferStatusPaid, types.ViewerRequester).Label)
	assert.Equal(t, "En Carrito", StatusLabel(types.OfferStatusReserved, types.ViewerRequester).Label)
	assert.Equal(t, "Aceptada", StatusLabel(types.OfferStatusPaid, types.ViewerFulfiller).Label)
	assert.Equal(t, "Aceptada", StatusLabel(types.OfferStatusReserved, types.ViewerFulfiller).Label)
	assert.Equal(t, "Caducada", StatusLabel(types.OfferStatusExpired, types.ViewerFulfiller).Label)
}
