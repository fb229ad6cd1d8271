package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/config"
)

type testConfig struct {
	FeePercent uint8  `env:"TEST_BILLING_FEE_PERCENT" envDefault:"2"`
	Account    string `env:"TEST_BILLING_ACCOUNT" envDefault:"none"`
}

type requiredConfig struct {
	Value string `env:"TEST_BILLING_REQUIRED,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, uint8(2), cfg.FeePercent)
		assert.Equal(t, "none", cfg.Account)
	})

	t.Run("reads environment", func(t *testing.T) {
		t.Setenv("TEST_BILLING_FEE_PERCENT", "7")
		t.Setenv("TEST_BILLING_ACCOUNT", "platform")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, uint8(7), cfg.FeePercent)
		assert.Equal(t, "platform", cfg.Account)
	})

	t.Run("required variable missing", func(t *testing.T) {
		var cfg requiredConfig
		assert.Error(t, config.Load(&cfg))
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[testConfig](nil), config.ErrNilPointer)
	})
}
