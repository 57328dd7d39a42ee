package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validConfig() StrategyConfig {
	cfg := StrategyConfig{
		SelectorID:     "momentum",
		EntryID:        "immediate",
		ExitID:         "fixed_period",
		TopN:           5,
		InitialCapital: decimal.NewFromInt(1_000_000),
		CommissionRate: decimal.NewFromFloat(0.0003),
		StampTaxRate:   decimal.NewFromFloat(0.001),
		MinCommission:  decimal.NewFromInt(5),
		SlippageRate:   decimal.NewFromFloat(0.0005),
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := StrategyConfig{}
	cfg.ApplyDefaults()

	assert.Equal(t, int64(100), cfg.LotSize)
	assert.Equal(t, ModeLongOnly, cfg.Mode)
	assert.Equal(t, RebalanceDaily, cfg.RebalanceFreq)
	assert.Equal(t, 1, cfg.HoldingPeriodMin)
	assert.Equal(t, 1.0, cfg.MaxPositionPct)
}

func TestValidate(t *testing.T) {
	valid := validConfig()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*StrategyConfig)
	}{
		{"zero top_n", func(c *StrategyConfig) { c.TopN = 0 }},
		{"negative top_n", func(c *StrategyConfig) { c.TopN = -3 }},
		{"holding below one day", func(c *StrategyConfig) { c.HoldingPeriodMin = -1 }},
		{"zero capital", func(c *StrategyConfig) { c.InitialCapital = decimal.Zero }},
		{"commission rate at one", func(c *StrategyConfig) { c.CommissionRate = decimal.NewFromInt(1) }},
		{"negative stamp tax", func(c *StrategyConfig) { c.StampTaxRate = decimal.NewFromFloat(-0.1) }},
		{"negative min commission", func(c *StrategyConfig) { c.MinCommission = decimal.NewFromInt(-5) }},
		{"max position above one", func(c *StrategyConfig) { c.MaxPositionPct = 1.5 }},
		{"bad rebalance freq", func(c *StrategyConfig) { c.RebalanceFreq = "hourly" }},
		{"bad mode", func(c *StrategyConfig) { c.Mode = "short_only" }},
		{"bad lot size", func(c *StrategyConfig) { c.LotSize = -100 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
