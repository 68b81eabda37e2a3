package notifier

import (
	"github.com/b2b-marketplace/offer-service/shared-domain/events"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"go.uber.org/zap"
)

const publishRetries = 3

type eventPublisher interface {
	PublishWithRetry(event events.OfferEvent, maxRetries int) error
}

// EventNotifier publishes notifications as offer.notification events so
// other services can relay them. Publishing retries in the background.
type EventNotifier struct {
	publisher   eventPublisher
	serviceName string
	logger      *zap.Logger
}

func NewEventNotifier(publisher eventPublisher, serviceName string, logger *zap.Logger) *EventNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventNotifier{publisher: publisher, serviceName: serviceName, logger: logger}
}

func (n *EventNotifier) Notify(notification types.Notification) {
	event, err := events.NewOfferEvent(notification.OfferID, events.OfferNotificationEvent, n.serviceName,
		events.OfferNotificationPayload{Notification: notification})
	if err != nil {
		n.logger.Error("notification event encoding failed", zap.Error(err))
		return
	}

	go func() {
		if err := n.publisher.PublishWithRetry(event, publishRetries); err != nil {
			n.logger.Warn("notification event not published",
				zap.Stringer("offer_id", notification.OfferID), zap.Error(err))
		}
	}()
}
