package messaging

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// RabbitMQConfig holds the broker connection settings, read from RABBITMQ_*
// variables.
type RabbitMQConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	VHost             string
	Exchange          string
	RetryCount        int
	RetryDelay        time.Duration
	ConnectionTimeout time.Duration
	// MaxDeliveries caps how often a failing message is handed back to the
	// queue before it is dropped.
	MaxDeliveries int64
}

// NewRabbitMQConfig reads the environment. Numeric values that do not parse
// as positive integers fall back to their defaults.
func NewRabbitMQConfig() *RabbitMQConfig {
	return &RabbitMQConfig{
		Host:              getEnvOrDefault("RABBITMQ_HOST", "localhost"),
		Port:              getEnvInt("RABBITMQ_PORT", 5672),
		Username:          getEnvOrDefault("RABBITMQ_USERNAME", "guest"),
		Password:          getEnvOrDefault("RABBITMQ_PASSWORD", "guest"),
		VHost:             getEnvOrDefault("RABBITMQ_VHOST", "/"),
		Exchange:          getEnvOrDefault("RABBITMQ_EXCHANGE", "offer.events"),
		RetryCount:        getEnvInt("RABBITMQ_RETRY_COUNT", 3),
		RetryDelay:        time.Second * 5,
		ConnectionTimeout: time.Second * 30,
		MaxDeliveries:     int64(getEnvInt("RABBITMQ_MAX_DELIVERIES", 3)),
	}
}

// ConnectionURL builds the amqp URL with the credentials escaped.
func (c *RabbitMQConfig) ConnectionURL() string {
	vhost := c.VHost
	if !strings.HasPrefix(vhost, "/") {
		vhost = "/" + vhost
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   vhost,
	}
	return u.String()
}

// RoutingKey is the topic an event from service with eventType travels on.
func RoutingKey(service, eventType string) string {
	return fmt.Sprintf("offer.%s.%s", service, eventType)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
