package service

import (
	"strings"
	"time"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrUnknownFilter = errors.New("unknown status filter")

type StatusFilter string

const FilterAll StatusFilter = "all"

// ParseStatusFilter accepts "all", any canonical status or a status synonym.
// An empty value means all.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" || trimmed == string(FilterAll) {
		return FilterAll, nil
	}
	status, known := domain.CanonicalStatus(trimmed)
	if !known {
		return "", errors.Wrapf(ErrUnknownFilter, "%q", raw)
	}
	return StatusFilter(status), nil
}

type EmptyState string

const (
	EmptyNone     EmptyState = "none"
	EmptyGlobal   EmptyState = "global"
	EmptyFiltered EmptyState = "filtered"
)

// StatusSource supplies the raw status to normalize for an offer.
type StatusSource interface {
	RawStatus(id uuid.UUID, canonical types.OfferStatus) types.OfferStatus
}

type OfferView struct {
	types.Offer
	RawStatus    types.OfferStatus         `json:"raw_status"`
	Presentation domain.StatusPresentation `json:"presentation"`
	Remaining    string                    `json:"remaining"`
	Actions      []domain.Action           `json:"actions"`
	Feasibility  domain.Feasibility        `json:"feasibility"`
	Price        domain.PriceResolution    `json:"price"`
}

type StatusCounts struct {
	All      int                       `json:"all"`
	ByStatus map[types.OfferStatus]int `json:"by_status"`
}

func (c StatusCounts) Count(status types.OfferStatus) int {
	return c.ByStatus[status]
}

type OfferList struct {
	Filter StatusFilter `json:"filter"`
	Offers []OfferView  `json:"offers"`
	Counts StatusCounts `json:"counts"`
	Empty  EmptyState   `json:"empty"`
}

// BuildOfferList normalizes every record at now and narrows to filter.
// Counts always cover all records.
func BuildOfferList(records []types.Offer, source StatusSource, now time.Time, filter StatusFilter) OfferList {
	if filter == "" {
		filter = FilterAll
	}

	normalized := make([]OfferView, 0, len(records))
	counts := StatusCounts{All: len(records), ByStatus: make(map[types.OfferStatus]int, len(types.CanonicalStatuses))}
	for _, status := range types.CanonicalStatuses {
		counts.ByStatus[status] = 0
	}

	for i := range records {
		view := NewOfferView(records[i], source, now)
		counts.ByStatus[view.Status]++
		normalized = append(normalized, view)
	}

	filtered := normalized
	if filter != FilterAll {
		filtered = make([]OfferView, 0, len(normalized))
		for _, view := range normalized {
			if StatusFilter(view.Status) == filter {
				filtered = append(filtered, view)
			}
		}
	}

	empty := EmptyNone
	switch {
	case len(records) == 0:
		empty = EmptyGlobal
	case len(filtered) == 0:
		empty = EmptyFiltered
	}

	return OfferList{Filter: filter, Offers: filtered, Counts: counts, Empty: empty}
}

// NewOfferView derives the presentation of a single record at now.
func NewOfferView(record types.Offer, source StatusSource, now time.Time) OfferView {
	raw := record.Status
	if source != nil {
		raw = source.RawStatus(record.ID, record.Status)
	}

	view := OfferView{Offer: record, RawStatus: raw}
	view.Status = domain.Normalize(string(raw), now, &record)

	// the countdown follows the merged status, not the stored one
	derived := record
	derived.Status = raw
	view.Remaining = domain.RemainingLabel(&derived, now)
	view.Presentation = domain.StatusLabel(view.Status, record.ViewerRole)
	view.Actions = domain.AllowedActions(view.Status, record.ViewerRole)
	view.Feasibility = domain.CanAccept(&record)
	view.Price = domain.ResolveUnitPrice(record.Product, record.Quantity)
	return view
}
