package messaging

import (
	"encoding/json"

	"github.com/b2b-marketplace/offer-service/shared-domain/events"
	"github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type EventHandler func(event events.OfferEvent) error

type Consumer struct {
	client      *RabbitMQClient
	queueName   string
	serviceName string
	logger      *zap.Logger
}

func NewConsumer(client *RabbitMQClient, queueName, serviceName string, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		client:      client,
		queueName:   queueName,
		serviceName: serviceName,
		logger:      logger.Named("consumer").With(zap.String("queue", queueName)),
	}
}

func (c *Consumer) ConsumeEvents(routingKeys []string, handler EventHandler) error {
	if !c.client.IsConnected() {
		return ErrNotConnected
	}

	channel := c.client.Channel()

	queue, err := channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return errors.Wrap(err, "queue declare error")
	}

	for _, routingKey := range routingKeys {
		err = channel.QueueBind(
			queue.Name,               // queue name
			routingKey,               // routing key
			c.client.config.Exchange, // exchange
			false,                    // no-wait
			nil,                      // arguments
		)
		if err != nil {
			return errors.Wrapf(err, "queue bind error (%s)", routingKey)
		}
		c.logger.Info("queue bound", zap.String("routing_key", routingKey))
	}

	messages, err := channel.Consume(
		queue.Name,    // queue
		c.serviceName, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return errors.Wrap(err, "consume start error")
	}

	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					c.logger.Info("delivery channel closed")
					return
				}
				c.handleMessage(msg, handler)
			case <-c.client.Done():
				c.logger.Info("consumer stopped")
				return
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(msg amqp.Delivery, handler EventHandler) {
	var event events.OfferEvent

	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Warn("event deserialize error", zap.Error(err))
		msg.Nack(false, false)
		return
	}

	if err := handler(event); err != nil {
		c.logger.Warn("event process error", zap.String("event_type", string(event.EventType)), zap.Error(err))

		// one redelivery, then dead letter
		if !msg.Redelivered && shouldRetry(msg.Headers, c.client.config.MaxDeliveries) {
			msg.Nack(false, true)
		} else {
			msg.Nack(false, false)
		}
		return
	}

	msg.Ack(false)
}

// shouldRetry reports whether the broker's x-death count is still below max.
func shouldRetry(headers amqp.Table, max int64) bool {
	xDeath, ok := headers["x-death"]
	if !ok {
		return true
	}
	deathArray, ok := xDeath.([]interface{})
	if !ok || len(deathArray) == 0 {
		return true
	}
	death, ok := deathArray[0].(amqp.Table)
	if !ok {
		return true
	}
	count, ok := death["count"].(int64)
	if !ok {
		return true
	}
	return count < max
}
