package service

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	successNoticeMs = 4000
	cleanupNoticeMs = 3000
	maxReasonLength = 500
)

var (
	pricePrinter = message.NewPrinter(language.MustParse("es-CL"))
	reasonPolicy = bluemonday.StrictPolicy()
)

// formatPrice renders an amount the way the marketplace shows it, e.g. $1.234.
func formatPrice(amount decimal.Decimal) string {
	return "$" + pricePrinter.Sprintf("%d", amount.Round(0).IntPart())
}

func counterpartName(offer types.Offer) string {
	if name := strings.TrimSpace(offer.Counterpart.Name); name != "" {
		return name
	}
	if offer.ViewerRole == types.ViewerFulfiller {
		return "the buyer"
	}
	return "the supplier"
}

func productName(offer types.Offer) string {
	if name := strings.TrimSpace(offer.Product.Name); name != "" {
		return name
	}
	return "the product"
}

func acceptedNotice(offer types.Offer) types.Notification {
	return notice(offer.ID, types.NotificationSeveritySuccess, successNoticeMs,
		"Offer accepted. Reserved %d units of %s at %s each for %s.",
		offer.Quantity, productName(offer), formatPrice(offer.UnitPrice), counterpartName(offer))
}

func rejectedNotice(offer types.Offer) types.Notification {
	return notice(offer.ID, types.NotificationSeverityWarning, successNoticeMs,
		"Offer rejected. %s has been notified.", counterpartName(offer))
}

func cancelledNotice(offer types.Offer) types.Notification {
	return notice(offer.ID, types.NotificationSeverityInfo, successNoticeMs,
		"Offer for %d units of %s cancelled.", offer.Quantity, productName(offer))
}

func cleanupNotice(offer types.Offer) types.Notification {
	return notice(offer.ID, types.NotificationSeveritySuccess, cleanupNoticeMs,
		"Offer removed from your records.")
}

func notice(offerID uuid.UUID, severity types.NotificationSeverity, durationMs int, format string, args ...interface{}) types.Notification {
	return types.Notification{
		ID:         uuid.New(),
		OfferID:    offerID,
		Message:    fmt.Sprintf(format, args...),
		Severity:   severity,
		DurationMs: durationMs,
	}
}

// SanitizeReason strips markup from a free-text reason and bounds its length.
// The result is plain text, not HTML.
func SanitizeReason(reason string) string {
	cleaned := strings.TrimSpace(html.UnescapeString(reasonPolicy.Sanitize(reason)))
	if utf8.RuneCountInString(cleaned) <= maxReasonLength {
		return cleaned
	}
	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:maxReasonLength]))
}
