package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 20*time.Second, cfg.Payments.HTTPTimeout)
	assert.Equal(t, "IDR", cfg.Payments.Xendit.Currency)
	assert.Equal(t, "USD", cfg.Payments.Xendit.QuoteCurrency)
	assert.Equal(t, float64(15500), cfg.Payments.Xendit.ConversionRate)
	assert.Equal(t, "usdttrc20", cfg.Payments.NOWPayments.PayCurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.Address)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XENDIT_SECRET_KEY", "xnd_test_secret")
	t.Setenv("XENDIT_WEBHOOK_TOKEN", "cb-token")
	t.Setenv("NOWPAYMENTS_API_KEY", "np-key")
	t.Setenv("VESTIRE_PAYMENTS_XENDIT_CURRENCY", "USD")
	t.Setenv("VESTIRE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "xnd_test_secret", cfg.Payments.Xendit.SecretKey)
	assert.Equal(t, "cb-token", cfg.Payments.Xendit.WebhookToken)
	assert.Equal(t, "np-key", cfg.Payments.NOWPayments.APIKey)
	assert.Equal(t, "USD", cfg.Payments.Xendit.Currency)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := &DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "shop",
		Password: "secret",
		Database: "vestire",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5433 user=shop password=secret dbname=vestire sslmode=disable", c.DSN())
}
