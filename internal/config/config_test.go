package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/b2b-marketplace/offer-service/shared-domain/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "DB_DRIVER", "DB_HOST", "DB_NAME", "DB_PATH", "VIEWER_PRINCIPAL_ID", "VIEWER_ROLE",
	"PURCHASE_WINDOW", "CLEANUP_NOTICE_WINDOW", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		// Setenv registers the restore; the unset lets .env values apply
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.False(t, cfg.EnvFileLoaded)
	assert.Equal(t, "8010", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "offer_db", cfg.Database.Name)
	assert.Equal(t, types.ViewerFulfiller, cfg.ViewerRole)
	assert.Equal(t, uuid.Nil, cfg.ViewerPrincipalID)
	assert.Equal(t, 24*time.Hour, cfg.PurchaseWindow)
	assert.Equal(t, 1500*time.Millisecond, cfg.CleanupNoticeWindow)
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	principal := uuid.New()
	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DRIVER=sqlite3\nVIEWER_ROLE=Requester\nVIEWER_PRINCIPAL_ID=" + principal.String() +
		"\nCLEANUP_NOTICE_WINDOW=2s\nTELEGRAM_BOT_TOKEN=abc\nTELEGRAM_CHAT_ID=-1001\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.EnvFileLoaded)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, types.ViewerRequester, cfg.ViewerRole)
	assert.Equal(t, principal, cfg.ViewerPrincipalID)
	assert.Equal(t, 2*time.Second, cfg.CleanupNoticeWindow)
	assert.Equal(t, int64(-1001), cfg.Telegram.ChatID)
	assert.True(t, cfg.Telegram.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"VIEWER_ROLE":         "admin",
		"VIEWER_PRINCIPAL_ID": "not-a-uuid",
		"PURCHASE_WINDOW":     "tomorrow",
		"TELEGRAM_CHAT_ID":    "chat",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
