package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Server.CookieSecure)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL)
	assert.NotEqual(t, cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret)
	assert.Equal(t, 10, cfg.Ledger.FreeSubscriptionLimit)
	assert.False(t, cfg.Billing.Enabled())
	assert.Empty(t, cfg.Server.MetricsToken)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_ACCESS_SECRET", "a")
	t.Setenv("JWT_REFRESH_SECRET", "b")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("AUTH_REFRESH_REUSE_DETECTION", "true")
	t.Setenv("LEDGER_FREE_SUBSCRIPTION_LIMIT", "3")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("METRICS_TOKEN", "scrape-me")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.True(t, cfg.Auth.RefreshReuseDetection)
	assert.Equal(t, 3, cfg.Ledger.FreeSubscriptionLimit)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "scrape-me", cfg.Server.MetricsToken)
}

func TestLoad_ProductionRequiresDistinctSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_ACCESS_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("JWT_REFRESH_SECRET", "different")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Server.CookieSecure)
}
