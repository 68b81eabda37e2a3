package domain

import (
	"strings"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
)

// statusSynonyms maps legacy upstream spellings onto canonical statuses.
var statusSynonyms = map[string]types.OfferStatus{
	"accepted": types.OfferStatusApproved,
	"success":  types.OfferStatusPaid,
}

// CanonicalStatus maps raw case-insensitively onto the canonical enum. Values
// outside both the enum and the synonym table come back unchanged with
// known=false.
func CanonicalStatus(raw string) (status types.OfferStatus, known bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return types.OfferStatusPending, true
	}
	if synonym, ok := statusSynonyms[key]; ok {
		return synonym, true
	}
	if candidate := types.OfferStatus(key); candidate.IsCanonical() {
		return candidate, true
	}
	return types.OfferStatus(raw), false
}

// Normalize resolves the status to display for offer at now. raw is the
// overlay value when one exists, otherwise the canonical status.
func Normalize(raw string, now time.Time, offer *types.Offer) types.OfferStatus {
	status, known := CanonicalStatus(raw)
	if !known {
		return status
	}
	if (status == types.OfferStatusPending || status == types.OfferStatusApproved) && expiredAs(status, offer, now) {
		return types.OfferStatusExpired
	}
	return status
}

type Tone string

const (
	ToneWarning Tone = "warning"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
	ToneInfo    Tone = "info"
	ToneNeutral Tone = "default"
)

type StatusPresentation struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

var unknownPresentation = StatusPresentation{Label: "Desconocido", Tone: ToneNeutral}

var requesterPresentation = map[types.OfferStatus]StatusPresentation{
	types.OfferStatusPending:   {Label: "Pendiente", Tone: ToneWarning},
	types.OfferStatusApproved:  {Label: "Aprobada", Tone: ToneSuccess},
	types.OfferStatusRejected:  {Label: "Rechazada", Tone: ToneError},
	types.OfferStatusExpired:   {Label: "Caducada", Tone: ToneError},
	types.OfferStatusCancelled: {Label: "Cancelada", Tone: ToneError},
	types.OfferStatusReserved:  {Label: "En Carrito", Tone: ToneInfo},
	types.OfferStatusPaid:      {Label: "Pagada", Tone: ToneSuccess},
}

// The fulfiller does not track the buyer's checkout progress.
var fulfillerPresentation = map[types.OfferStatus]StatusPresentation{
	types.OfferStatusPending:   {Label: "Pendiente", Tone: ToneWarning},
	types.OfferStatusApproved:  {Label: "Aceptada", Tone: ToneSuccess},
	types.OfferStatusReserved:  {Label: "Aceptada", Tone: ToneSuccess},
	types.OfferStatusPaid:      {Label: "Aceptada", Tone: ToneSuccess},
	types.OfferStatusRejected:  {Label: "Rechazada", Tone: ToneError},
	types.OfferStatusExpired:   {Label: "Caducada", Tone: ToneError},
	types.OfferStatusCancelled: {Label: "Cancelada", Tone: ToneError},
}

func StatusLabel(status types.OfferStatus, role types.ViewerRole) StatusPresentation {
	table := requesterPresentation
	if role == types.ViewerFulfiller {
		table = fulfillerPresentation
	}
	if presentation, ok := table[status]; ok {
		return presentation
	}
	return unknownPresentation
}
