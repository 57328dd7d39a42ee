package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// CostModel computes the per-trade frictions of the target market:
// commission with a minimum charge on both sides, stamp tax on sells only,
// and slippage as a fixed percentage of notional against both sides.
type CostModel struct {
	commissionRate decimal.Decimal
	stampTaxRate   decimal.Decimal
	minCommission  decimal.Decimal
	slippageRate   decimal.Decimal
}

// NewCostModel builds a cost model from the run configuration.
func NewCostModel(cfg model.StrategyConfig) CostModel {
	return CostModel{
		commissionRate: cfg.CommissionRate,
		stampTaxRate:   cfg.StampTaxRate,
		minCommission:  cfg.MinCommission,
		slippageRate:   cfg.SlippageRate,
	}
}

// ExecutionPrice applies slippage to the quoted price: buys fill above the
// quote, sells below it.
func (m CostModel) ExecutionPrice(side model.Side, quote decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if side == model.SideBuy {
		return quote.Mul(one.Add(m.slippageRate))
	}
	return quote.Mul(one.Sub(m.slippageRate))
}

// Commission returns max(notional × rate, minimum).
func (m CostModel) Commission(notional decimal.Decimal) decimal.Decimal {
	c := notional.Mul(m.commissionRate)
	if c.LessThan(m.minCommission) {
		return m.minCommission
	}
	return c
}

// StampTax returns the sell-side transaction tax; the buy side is exempt.
func (m CostModel) StampTax(side model.Side, notional decimal.Decimal) decimal.Decimal {
	if side != model.SideSell {
		return decimal.Zero
	}
	return notional.Mul(m.stampTaxRate)
}

// SlippageCost returns the price-impact cost on the quoted notional.
func (m CostModel) SlippageCost(quoteNotional decimal.Decimal) decimal.Decimal {
	return quoteNotional.Mul(m.slippageRate)
}

// CostAnalyzer owns the append-only trade log of one run and derives cost
// metrics from it on demand.
type CostAnalyzer struct {
	initialCapital decimal.Decimal
	trades         []model.Trade
}

// NewCostAnalyzer creates an analyzer for a run starting with the given
// capital.
func NewCostAnalyzer(initialCapital decimal.Decimal) *CostAnalyzer {
	return &CostAnalyzer{initialCapital: initialCapital}
}

// Record appends one trade to the log.
func (a *CostAnalyzer) Record(t model.Trade) {
	a.trades = append(a.trades, t)
}

// Trades returns the recorded trades in execution order.
func (a *CostAnalyzer) Trades() []model.Trade { return a.trades }

// Totals returns the summed commission, stamp tax and slippage.
func (a *CostAnalyzer) Totals() (commission, stampTax, slippage decimal.Decimal) {
	for i := range a.trades {
		commission = commission.Add(a.trades[i].Commission)
		stampTax = stampTax.Add(a.trades[i].StampTax)
		slippage = slippage.Add(a.trades[i].Slippage)
	}
	return commission, stampTax, slippage
}

// TotalCost returns commission + stamp tax + slippage over the whole log.
func (a *CostAnalyzer) TotalCost() decimal.Decimal {
	c, s, sl := a.Totals()
	return c.Add(s).Add(sl)
}

// Summary derives the full cost report. finalValue is the portfolio value at
// the end of the run; avgPortfolioValue and tradingDays parameterize the
// turnover annualization.
func (a *CostAnalyzer) Summary(finalValue decimal.Decimal, avgPortfolioValue float64, tradingDays int) model.CostSummary {
	commission, stampTax, slippage := a.Totals()
	totalCost := commission.Add(stampTax).Add(slippage)

	var s model.CostSummary
	s.TotalCommission, _ = commission.Float64()
	s.TotalStampTax, _ = stampTax.Float64()
	s.TotalSlippage, _ = slippage.Float64()
	s.TotalCost, _ = totalCost.Float64()

	if s.TotalCost > 0 {
		s.CommissionPct = s.TotalCommission / s.TotalCost
		s.StampTaxPct = s.TotalStampTax / s.TotalCost
		s.SlippagePct = s.TotalSlippage / s.TotalCost
	}

	notional := decimal.Zero
	for i := range a.trades {
		notional = notional.Add(a.trades[i].Notional())
		switch a.trades[i].Side {
		case model.SideBuy:
			s.NBuyTrades++
		case model.SideSell:
			s.NSellTrades++
		}
	}
	s.NTrades = len(a.trades)
	if s.NTrades > 0 {
		s.AvgCostPerTrade = s.TotalCost / float64(s.NTrades)
	}

	notionalF, _ := notional.Float64()
	if avgPortfolioValue > 0 {
		s.TotalTurnoverRate = notionalF / 2 / avgPortfolioValue
		if tradingDays > 0 {
			s.AnnualTurnoverRate = s.TotalTurnoverRate * tradingDaysPerYear / float64(tradingDays)
		}
	}

	initial, _ := a.initialCapital.Float64()
	final, _ := finalValue.Float64()
	if initial > 0 {
		s.ReturnWithCost = final/initial - 1
		s.ReturnWithoutCost = (final+s.TotalCost)/initial - 1
		s.CostDrag = s.ReturnWithoutCost - s.ReturnWithCost
		s.CostToCapitalRatio = s.TotalCost / initial
		if profit := final - initial; profit > 0 {
			s.CostToProfitRatio = s.TotalCost / profit
		}
	}
	return s
}

// BySymbol breaks costs down per symbol, sorted by symbol.
func (a *CostAnalyzer) BySymbol() []model.SymbolCost {
	agg := make(map[string]*model.SymbolCost)
	for i := range a.trades {
		t := &a.trades[i]
		c, ok := agg[t.Symbol]
		if !ok {
			c = &model.SymbolCost{Symbol: t.Symbol}
			agg[t.Symbol] = c
		}
		addTradeCost(t, &c.Commission, &c.StampTax, &c.Slippage, &c.Total, &c.NTrades)
	}
	out := make([]model.SymbolCost, 0, len(agg))
	for _, c := range agg {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ByMonth breaks costs down per calendar month, sorted chronologically.
func (a *CostAnalyzer) ByMonth() []model.BucketCost {
	agg := make(map[string]*model.BucketCost)
	for i := range a.trades {
		t := &a.trades[i]
		key := t.Date.Format("2006-01")
		c, ok := agg[key]
		if !ok {
			c = &model.BucketCost{Bucket: key}
			agg[key] = c
		}
		addTradeCost(t, &c.Commission, &c.StampTax, &c.Slippage, &c.Total, &c.NTrades)
	}
	out := make([]model.BucketCost, 0, len(agg))
	for _, c := range agg {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

func addTradeCost(t *model.Trade, commission, stampTax, slippage, total *float64, n *int) {
	c, _ := t.Commission.Float64()
	s, _ := t.StampTax.Float64()
	sl, _ := t.Slippage.Float64()
	*commission += c
	*stampTax += s
	*slippage += sl
	*total += c + s + sl
	*n++
}

// Scenario recomputes total cost and the resulting return under an arbitrary
// cost multiplier, holding the trade schedule fixed. It answers "what if
// frictions were k× what the run assumed" for sensitivity analysis; it never
// alters the recorded backtest.
func (a *CostAnalyzer) Scenario(multiplier float64, finalValue decimal.Decimal) (scenarioCost, scenarioReturn float64) {
	baseCost, _ := a.TotalCost().Float64()
	scenarioCost = baseCost * multiplier
	initial, _ := a.initialCapital.Float64()
	if initial <= 0 {
		return scenarioCost, 0
	}
	final, _ := finalValue.Float64()
	scenarioReturn = (final+baseCost-scenarioCost)/initial - 1
	return scenarioCost, scenarioReturn
}
