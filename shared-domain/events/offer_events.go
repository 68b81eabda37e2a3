package events

import (
	"encoding/json"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
)

type OfferEventType string

const (
	// Published by the checkout service when a cart or payment step changes
	// an offer before the canonical record catches up.
	OfferStatusOptimisticEvent OfferEventType = "offer.status.optimistic"

	// Published by this service for every user-facing notification.
	OfferNotificationEvent OfferEventType = "offer.notification"
)

type OfferEvent struct {
	ID            uuid.UUID       `json:"id"`
	OfferID       uuid.UUID       `json:"offer_id"`
	EventType     OfferEventType  `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
	Service       string          `json:"service"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
}

// OfferStatusPayload is the typed body of an optimistic status event.
type OfferStatusPayload struct {
	OfferID uuid.UUID         `json:"offer_id"`
	Status  types.OfferStatus `json:"status"`
}

type OfferNotificationPayload struct {
	Notification types.Notification `json:"notification"`
}

// NewOfferEvent builds an envelope around payload, marshalling it to JSON.
func NewOfferEvent(offerID uuid.UUID, eventType OfferEventType, service string, payload interface{}) (OfferEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return OfferEvent{}, err
	}

	return OfferEvent{
		ID:            uuid.New(),
		OfferID:       offerID,
		EventType:     eventType,
		Payload:       body,
		Timestamp:     time.Now(),
		Service:       service,
		CorrelationID: uuid.New(),
	}, nil
}

func (e OfferEvent) StatusPayload() (OfferStatusPayload, error) {
	var payload OfferStatusPayload
	err := json.Unmarshal(e.Payload, &payload)
	if err == nil && payload.OfferID == uuid.Nil {
		payload.OfferID = e.OfferID
	}
	return payload, err
}
