package app

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory defaults", mutate: func(*Config) {}},
		{
			name:   "postgres with url",
			mutate: func(c *Config) { c.Backend = BackendPostgres; c.DatabaseURL = "postgres://localhost/shop" },
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.Backend = BackendPostgres },
			wantErr: "database URL is required",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Backend = "mysql" },
			wantErr: "unknown backend",
		},
		{
			name:    "failure rate above one",
			mutate:  func(c *Config) { c.Simulation.FailureRate = 1.5 },
			wantErr: "failure rate",
		},
		{
			name:    "inverted latency",
			mutate:  func(c *Config) { c.Simulation.MinLatency = 2; c.Simulation.MaxLatency = 1 },
			wantErr: "max latency",
		},
		{
			name:    "negative minimum order",
			mutate:  func(c *Config) { c.Pricing.MinimumOrder = "-1" },
			wantErr: "negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPricingConfig(t *testing.T) {
	got, err := testConfig().Pricing.Config()
	require.NoError(t, err)
	assert.True(t, got.TaxRate.Equal(decimal.RequireFromString("0.085")))
	assert.True(t, got.ShippingCost.Equal(decimal.NewFromInt(200)))
	assert.True(t, got.FreeShippingThreshold.Equal(decimal.NewFromInt(2000)))
	assert.True(t, got.MinimumOrder.Equal(decimal.NewFromInt(500)))
	assert.True(t, got.ApplyTax)
	assert.True(t, got.ApplyShipping)

	_, err = PricingConfig{TaxRate: "x"}.Config()
	require.Error(t, err)
}

func TestApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg := &Config{Addr: "0.0.0.0:8080"}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)

	cfg = &Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit/db"}
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}
