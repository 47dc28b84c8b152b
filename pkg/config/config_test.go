package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TGPANEL_DATABASE_URL", "postgres://localhost/tgpanel")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "session", cfg.Auth.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Auth.SecureCookies, "development keeps cookies usable over http")
	assert.Equal(t, 5, cfg.RateLimit.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.BlockDuration)
}

func TestLoadConfigProductionRejectsFallbackSecret(t *testing.T) {
	t.Setenv("TGPANEL_ENV", "production")
	t.Setenv("TGPANEL_DATABASE_URL", "postgres://localhost/tgpanel")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigProduction(t *testing.T) {
	t.Setenv("TGPANEL_ENV", "production")
	t.Setenv("TGPANEL_DATABASE_URL", "postgres://localhost/tgpanel")
	t.Setenv("TGPANEL_SESSION_SECRET", "a-real-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.SecureCookies)
}

func TestValidateRejectsMissingDatabase(t *testing.T) {
	t.Setenv("TGPANEL_DATABASE_URL", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TGPANEL_DATABASE_URL", "whatever")
	t.Setenv("TGPANEL_DB_DRIVER", "oracle")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateRejectsShortBlock(t *testing.T) {
	t.Setenv("TGPANEL_DATABASE_URL", "postgres://localhost/tgpanel")
	t.Setenv("TGPANEL_LOGIN_WINDOW", "10m")
	t.Setenv("TGPANEL_LOGIN_BLOCK", "1m")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestSQLiteDriverAccepted(t *testing.T) {
	t.Setenv("TGPANEL_DATABASE_URL", "file:dev.db")
	t.Setenv("TGPANEL_DB_DRIVER", "sqlite3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}
