package handlers

import (
	"time"

	"github.com/b2b-marketplace/offer-service/internal/domain"
	"github.com/b2b-marketplace/offer-service/internal/service"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type OfferResponse struct {
	ID               uuid.UUID              `json:"id"`
	Status           string                 `json:"status"`
	RawStatus        string                 `json:"raw_status"`
	Label            string                 `json:"label"`
	Tone             string                 `json:"tone"`
	Remaining        string                 `json:"remaining"`
	Actions          []string               `json:"actions"`
	Quantity         int                    `json:"quantity"`
	UnitPrice        decimal.Decimal        `json:"unit_price"`
	Total            decimal.Decimal        `json:"total"`
	Product          ProductResponse        `json:"product"`
	Counterpart      types.Counterpart      `json:"counterpart"`
	CanAccept        bool                   `json:"can_accept"`
	Shortfall        *domain.StockShortfall `json:"shortfall,omitempty"`
	TierPrice        decimal.Decimal        `json:"tier_price"`
	BelowMinimum     bool                   `json:"below_minimum"`
	CreatedAt        time.Time              `json:"created_at"`
	ExpiresAt        *time.Time             `json:"expires_at,omitempty"`
	PurchaseDeadline *time.Time             `json:"purchase_deadline,omitempty"`
}

type ProductResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	CurrentStock int               `json:"current_stock"`
	BasePrice    decimal.Decimal   `json:"base_price"`
	PriceTiers   []types.PriceTier `json:"price_tiers"`
}

type OfferListResponse struct {
	Filter string               `json:"filter"`
	Empty  string               `json:"empty"`
	Offers []OfferResponse      `json:"offers"`
	Counts service.StatusCounts `json:"counts"`
}

type PriceResponse struct {
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	BelowMinimum bool            `json:"below_minimum"`
	Total        decimal.Decimal `json:"total"`
}

func mapOffer(view service.OfferView) OfferResponse {
	actions := make([]string, len(view.Actions))
	for i, action := range view.Actions {
		actions[i] = string(action)
	}

	product := ProductResponse{
		ID:           view.Product.ID,
		Name:         view.Product.Name,
		CurrentStock: view.Product.CurrentStock,
		BasePrice:    view.Product.BasePrice,
		PriceTiers:   view.Product.PriceTiers,
	}

	return OfferResponse{
		ID:               view.ID,
		Status:           string(view.Status),
		RawStatus:        string(view.RawStatus),
		Label:            view.Presentation.Label,
		Tone:             string(view.Presentation.Tone),
		Remaining:        view.Remaining,
		Actions:          actions,
		Quantity:         view.Quantity,
		UnitPrice:        view.UnitPrice,
		Total:            view.UnitPrice.Mul(decimal.NewFromInt(int64(view.Quantity))),
		Product:          product,
		Counterpart:      view.Counterpart,
		CanAccept:        view.Feasibility.Allowed,
		Shortfall:        view.Feasibility.Reason,
		TierPrice:        view.Price.Price,
		BelowMinimum:     view.Price.BelowMinimum,
		CreatedAt:        view.CreatedAt,
		ExpiresAt:        view.ExpiresAt,
		PurchaseDeadline: view.PurchaseDeadline,
	}
}

func mapOfferList(list service.OfferList) OfferListResponse {
	offers := make([]OfferResponse, len(list.Offers))
	for i, view := range list.Offers {
		offers[i] = mapOffer(view)
	}
	return OfferListResponse{
		Filter: string(list.Filter),
		Empty:  string(list.Empty),
		Offers: offers,
		Counts: list.Counts,
	}
}

func mapPrice(quantity int, resolution domain.PriceResolution) PriceResponse {
	return PriceResponse{
		Quantity:     quantity,
		UnitPrice:    resolution.Price,
		BelowMinimum: resolution.BelowMinimum,
		Total:        resolution.Total(quantity),
	}
}
