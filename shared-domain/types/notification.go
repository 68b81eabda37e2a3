package types

import (
	"github.com/google/uuid"
)

type NotificationSeverity string

const (
	NotificationSeveritySuccess NotificationSeverity = "success"
	NotificationSeverityInfo    NotificationSeverity = "info"
	NotificationSeverityWarning NotificationSeverity = "warning"
	NotificationSeverityError   NotificationSeverity = "error"
)

type Notification struct {
	ID         uuid.UUID            `json:"id"`
	OfferID    uuid.UUID            `json:"offer_id,omitempty"`
	Message    string               `json:"message"`
	Severity   NotificationSeverity `json:"severity"`
	DurationMs int                  `json:"duration_ms"`
}
