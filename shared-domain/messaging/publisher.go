package messaging

import (
	"encoding/json"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/events"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var ErrNotConnected = errors.New("there is no connection to RabbitMQ")

type Publisher struct {
	client *RabbitMQClient
	logger *zap.Logger
}

func NewPublisher(client *RabbitMQClient, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client: client,
		logger: logger.Named("publisher"),
	}
}

func (p *Publisher) PublishOfferEvent(event events.OfferEvent) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "event serialization error")
	}

	routingKey := RoutingKey(event.Service, string(event.EventType))

	err = p.client.Channel().Publish(
		p.client.config.Exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Headers: amqp.Table{
				"offer_id":       event.OfferID.String(),
				"correlation_id": event.CorrelationID.String(),
				"service":        event.Service,
				"event_type":     string(event.EventType),
			},
		},
	)
	if err != nil {
		return errors.Wrap(err, "event publish error")
	}

	p.logger.Debug("event published", zap.String("routing_key", routingKey), zap.Stringer("offer_id", event.OfferID))
	return nil
}

func (p *Publisher) PublishWithRetry(event events.OfferEvent, maxRetries int) error {
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if err := p.PublishOfferEvent(event); err != nil {
			lastErr = err
			p.logger.Warn("publish failed", zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries), zap.Error(err))

			if i < maxRetries-1 {
				time.Sleep(time.Second * time.Duration(i+1))
			}
			continue
		}
		return nil
	}

	return errors.Wrapf(lastErr, "event publish failed after %d attempts", maxRetries)
}
