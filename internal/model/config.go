package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RebalanceFreq 调仓频率
type RebalanceFreq string

const (
	RebalanceDaily   RebalanceFreq = "daily"
	RebalanceWeekly  RebalanceFreq = "weekly"
	RebalanceMonthly RebalanceFreq = "monthly"
)

// TradeMode selects the book structure of a run. Only the long-only book is
// implemented; the market-neutral mode exists so that requests for it fail
// loudly instead of being silently approximated.
type TradeMode string

const (
	ModeLongOnly      TradeMode = "long_only"
	ModeMarketNeutral TradeMode = "market_neutral"
)

// StrategyConfig 回测策略配置. A plain configuration object: it is validated
// eagerly and carries no behavior beyond defaulting.
type StrategyConfig struct {
	Name string `json:"name" mapstructure:"name"`

	SelectorID     string                 `json:"selector_id" mapstructure:"selector_id"`
	SelectorParams map[string]interface{} `json:"selector_params" mapstructure:"selector_params"`
	EntryID        string                 `json:"entry_id" mapstructure:"entry_id"`
	EntryParams    map[string]interface{} `json:"entry_params" mapstructure:"entry_params"`
	ExitID         string                 `json:"exit_id" mapstructure:"exit_id"`
	ExitParams     map[string]interface{} `json:"exit_params" mapstructure:"exit_params"`

	RebalanceFreq    RebalanceFreq `json:"rebalance_freq" mapstructure:"rebalance_freq"`
	TopN             int           `json:"top_n" mapstructure:"top_n"`
	HoldingPeriodMin int           `json:"holding_period_min" mapstructure:"holding_period_min"`

	InitialCapital decimal.Decimal `json:"initial_capital" mapstructure:"initial_capital"`
	CommissionRate decimal.Decimal `json:"commission_rate" mapstructure:"commission_rate"`
	StampTaxRate   decimal.Decimal `json:"stamp_tax_rate" mapstructure:"stamp_tax_rate"`
	MinCommission  decimal.Decimal `json:"min_commission" mapstructure:"min_commission"`
	SlippageRate   decimal.Decimal `json:"slippage_rate" mapstructure:"slippage_rate"`

	MaxPositionPct   float64 `json:"max_position_pct" mapstructure:"max_position_pct"`
	MaxSingleLossPct float64 `json:"max_single_loss_pct" mapstructure:"max_single_loss_pct"`

	LotSize int64     `json:"lot_size" mapstructure:"lot_size"`
	Mode    TradeMode `json:"mode" mapstructure:"mode"`
}

// ApplyDefaults fills zero-valued optional fields with the standard A-share
// defaults: 100-share board lots, long-only book, daily rebalance, one-day
// minimum holding (T+1).
func (c *StrategyConfig) ApplyDefaults() {
	if c.LotSize == 0 {
		c.LotSize = 100
	}
	if c.Mode == "" {
		c.Mode = ModeLongOnly
	}
	if c.RebalanceFreq == "" {
		c.RebalanceFreq = RebalanceDaily
	}
	if c.HoldingPeriodMin == 0 {
		c.HoldingPeriodMin = 1
	}
	if c.MaxPositionPct == 0 {
		c.MaxPositionPct = 1.0
	}
}

// Validate rejects contradictory configurations before any simulation starts.
// Strategy id resolution is checked separately by the composer, which knows
// the registries.
func (c *StrategyConfig) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	if c.HoldingPeriodMin < 1 {
		return fmt.Errorf("holding_period_min must be at least 1 trading day, got %d", c.HoldingPeriodMin)
	}
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("initial_capital must be positive, got %s", c.InitialCapital)
	}
	one := decimal.NewFromInt(1)
	for _, r := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"commission_rate", c.CommissionRate},
		{"stamp_tax_rate", c.StampTaxRate},
		{"slippage_rate", c.SlippageRate},
	} {
		if r.v.IsNegative() || r.v.GreaterThanOrEqual(one) {
			return fmt.Errorf("%s must be in [0,1), got %s", r.name, r.v)
		}
	}
	if c.MinCommission.IsNegative() {
		return fmt.Errorf("min_commission must not be negative, got %s", c.MinCommission)
	}
	if c.MaxPositionPct <= 0 || c.MaxPositionPct > 1 {
		return fmt.Errorf("max_position_pct must be in (0,1], got %v", c.MaxPositionPct)
	}
	if c.MaxSingleLossPct < 0 || c.MaxSingleLossPct >= 1 {
		return fmt.Errorf("max_single_loss_pct must be in [0,1), got %v", c.MaxSingleLossPct)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot_size must be positive, got %d", c.LotSize)
	}
	switch c.RebalanceFreq {
	case RebalanceDaily, RebalanceWeekly, RebalanceMonthly:
	default:
		return fmt.Errorf("unknown rebalance_freq: %q", c.RebalanceFreq)
	}
	switch c.Mode {
	case ModeLongOnly, ModeMarketNeutral:
	default:
		return fmt.Errorf("unknown mode: %q", c.Mode)
	}
	return nil
}
