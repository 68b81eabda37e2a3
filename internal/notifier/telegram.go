package notifier

import (
	"strconv"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/tucnak/telebot.v2"
)

type messageSender interface {
	Send(to telebot.Recipient, what interface{}, options ...interface{}) (*telebot.Message, error)
}

type chatRecipient int64

func (c chatRecipient) Recipient() string {
	return strconv.FormatInt(int64(c), 10)
}

var severityIcons = map[types.NotificationSeverity]string{
	types.NotificationSeveritySuccess: "✅",
	types.NotificationSeverityInfo:    "ℹ️",
	types.NotificationSeverityWarning: "⚠️",
	types.NotificationSeverityError:   "❌",
}

// TelegramNotifier relays notifications to a chat. Sends run in the
// background so Notify never blocks the caller.
type TelegramNotifier struct {
	sender messageSender
	chat   chatRecipient
	logger *zap.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	bot, err := telebot.NewBot(telebot.Settings{Token: token})
	if err != nil {
		return nil, errors.Wrap(err, "telegram bot")
	}
	return newTelegramNotifier(bot, chatID, logger), nil
}

func newTelegramNotifier(sender messageSender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramNotifier{sender: sender, chat: chatRecipient(chatID), logger: logger}
}

func (n *TelegramNotifier) Notify(notification types.Notification) {
	text := formatTelegram(notification)
	go func() {
		if _, err := n.sender.Send(n.chat, text); err != nil {
			n.logger.Warn("telegram notification failed", zap.Stringer("offer_id", notification.OfferID), zap.Error(err))
		}
	}()
}

func formatTelegram(notification types.Notification) string {
	icon, ok := severityIcons[notification.Severity]
	if !ok {
		return notification.Message
	}
	return icon + " " + notification.Message
}
