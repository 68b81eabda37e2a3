package notifier

import (
	"github.com/b2b-marketplace/offer-service/internal/service"
	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"go.uber.org/zap"
)

// LogNotifier writes every notification to the service log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notifications")}
}

func (n *LogNotifier) Notify(notification types.Notification) {
	n.logger.Info(notification.Message,
		zap.Stringer("notification_id", notification.ID),
		zap.Stringer("offer_id", notification.OfferID),
		zap.String("severity", string(notification.Severity)),
		zap.Int("duration_ms", notification.DurationMs),
	)
}

// Multi fans a notification out to every sink in order.
type Multi []service.Notifier

func (m Multi) Notify(notification types.Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(notification)
		}
	}
}
