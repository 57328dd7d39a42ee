package model

import (
	"time"
)

// SeriesPoint is one dated observation of a daily series.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// CostSummary 交易成本汇总
type CostSummary struct {
	TotalCost       float64 `json:"total_cost"`
	TotalCommission float64 `json:"total_commission"`
	TotalStampTax   float64 `json:"total_stamp_tax"`
	TotalSlippage   float64 `json:"total_slippage"`

	CommissionPct float64 `json:"commission_pct"`
	StampTaxPct   float64 `json:"stamp_tax_pct"`
	SlippagePct   float64 `json:"slippage_pct"`

	AnnualTurnoverRate float64 `json:"annual_turnover_rate"`
	TotalTurnoverRate  float64 `json:"total_turnover_rate"`
	CostToCapitalRatio float64 `json:"cost_to_capital_ratio"`
	CostToProfitRatio  float64 `json:"cost_to_profit_ratio"`

	CostDrag          float64 `json:"cost_drag"`
	ReturnWithCost    float64 `json:"return_with_cost"`
	ReturnWithoutCost float64 `json:"return_without_cost"`

	NTrades         int     `json:"n_trades"`
	NBuyTrades      int     `json:"n_buy_trades"`
	NSellTrades     int     `json:"n_sell_trades"`
	AvgCostPerTrade float64 `json:"avg_cost_per_trade"`
}

// SymbolCost is the cost breakdown attributed to a single symbol.
type SymbolCost struct {
	Symbol     string  `json:"symbol"`
	Commission float64 `json:"commission"`
	StampTax   float64 `json:"stamp_tax"`
	Slippage   float64 `json:"slippage"`
	Total      float64 `json:"total"`
	NTrades    int     `json:"n_trades"`
}

// BucketCost is the cost breakdown for one time bucket (calendar month).
type BucketCost struct {
	Bucket     string  `json:"bucket"` // "2006-01"
	Commission float64 `json:"commission"`
	StampTax   float64 `json:"stamp_tax"`
	Slippage   float64 `json:"slippage"`
	Total      float64 `json:"total"`
	NTrades    int     `json:"n_trades"`
}

// BacktestResult 回测结果. Assembled once per engine run and immutable after
// completion; the live portfolio is discarded, this object is the durable
// output.
type BacktestResult struct {
	RunID        string         `json:"run_id"`
	StrategyName string         `json:"strategy_name"`
	Config       StrategyConfig `json:"config"`

	PortfolioValue []SeriesPoint `json:"portfolio_value"`
	DailyReturns   []SeriesPoint `json:"daily_returns"`
	Trades         []Trade       `json:"trades"`
	CostAnalysis   CostSummary   `json:"cost_analysis"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	// Incomplete marks a result whose loop aborted mid-run; the series stop
	// at the last successfully processed date and Err carries the cause.
	Incomplete bool   `json:"incomplete"`
	Err        string `json:"error,omitempty"`
}

// FinalValue returns the last recorded portfolio value, or 0 for an empty run.
func (r *BacktestResult) FinalValue() float64 {
	if len(r.PortfolioValue) == 0 {
		return 0
	}
	return r.PortfolioValue[len(r.PortfolioValue)-1].Value
}

// ReturnSeries extracts the raw daily return values in date order.
func (r *BacktestResult) ReturnSeries() []float64 {
	out := make([]float64, len(r.DailyReturns))
	for i, p := range r.DailyReturns {
		out[i] = p.Value
	}
	return out
}
