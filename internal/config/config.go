package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

func (t TelegramConfig) Enabled() bool {
	return t.Token != "" && t.ChatID != 0
}

// Config holds the settings of one offer-service process.
type Config struct {
	Port                string
	Database            DatabaseConfig
	ViewerPrincipalID   uuid.UUID
	ViewerRole          types.ViewerRole
	PurchaseWindow      time.Duration
	CleanupNoticeWindow time.Duration
	OfferEventsQueue    string
	Telegram            TelegramConfig
	LogLevel            string
	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	loaded := godotenv.Load(files...) == nil

	cfg := &Config{
		Port: getEnvOrDefault("PORT", "8010"),
		Database: DatabaseConfig{
			Driver:   getEnvOrDefault("DB_DRIVER", "postgres"),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			Name:     getEnvOrDefault("DB_NAME", "offer_db"),
			Path:     getEnvOrDefault("DB_PATH", "./offers.db"),
		},
		ViewerRole:       types.ViewerRole(strings.ToLower(getEnvOrDefault("VIEWER_ROLE", string(types.ViewerFulfiller)))),
		OfferEventsQueue: getEnvOrDefault("OFFER_EVENTS_QUEUE", "offer-service-queue"),
		Telegram:         TelegramConfig{Token: os.Getenv("TELEGRAM_BOT_TOKEN")},
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		EnvFileLoaded:    loaded,
	}

	var err error
	if cfg.PurchaseWindow, err = durationEnv("PURCHASE_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CleanupNoticeWindow, err = durationEnv("CLEANUP_NOTICE_WINDOW", 1500*time.Millisecond); err != nil {
		return nil, err
	}

	if !cfg.ViewerRole.Valid() {
		return nil, errors.Wrapf(ErrInvalidConfig, "VIEWER_ROLE %q", cfg.ViewerRole)
	}

	if raw := os.Getenv("VIEWER_PRINCIPAL_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "VIEWER_PRINCIPAL_ID: %v", err)
		}
		cfg.ViewerPrincipalID = id
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.Telegram.ChatID = chatID
	}

	return cfg, nil
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.Wrapf(ErrInvalidConfig, "%s %q", key, raw)
	}
	return d, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
