package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sujun1972/stock-analysis-sub007/internal/infrastructure"
	"github.com/sujun1972/stock-analysis-sub007/internal/model"
	"github.com/sujun1972/stock-analysis-sub007/internal/strategy"
)

// symbolForgetter is implemented by entry strategies holding per-symbol
// state that must be dropped when a symbol leaves the selection set.
type symbolForgetter interface {
	Forget(symbol string)
}

// Backtester replays a price panel through one composed strategy, day by
// day, in strict calendar order. Each day goes through the same states:
// rebalance check, entry evaluation for unheld candidates, exit evaluation
// for held positions, then mark-to-market. A single run is strictly
// sequential; parallelism lives at the run level in Runner.
type Backtester struct {
	cfg      model.StrategyConfig
	composer *strategy.Composer
	prices   *model.PricePanel
	signals  *model.SignalPanel
	logger   *zap.Logger

	portfolio *Portfolio
	costs     *CostAnalyzer
	costModel CostModel

	active        []strategy.Candidate
	activeSet     map[string]struct{}
	leaving       map[string]struct{} // held but dropped from the candidate set
	lastRebalance time.Time

	equity  []model.SeriesPoint
	returns []model.SeriesPoint

	// running sum of daily equity, used for average portfolio value
	equitySum decimal.Decimal
}

// NewBacktester validates the configuration, composes the strategy and
// prepares a fresh ledger. The market-neutral mode is rejected here with
// UnsupportedOperationError: short-selling frictions in this market are not
// modeled, and a loud failure beats a silently wrong simulation.
func NewBacktester(cfg model.StrategyConfig, prices *model.PricePanel, signals *model.SignalPanel, logger *zap.Logger) (*Backtester, error) {
	cfg.ApplyDefaults()
	if cfg.Mode == model.ModeMarketNeutral {
		return nil, &UnsupportedOperationError{
			Op:     "market_neutral",
			Reason: "short book simulation is not modeled for this market",
		}
	}
	composer, err := strategy.NewComposer(cfg)
	if err != nil {
		return nil, err
	}
	if prices == nil || prices.Len() == 0 {
		return nil, &model.DataAlignmentError{Reason: "price panel is empty"}
	}
	if err := prices.CheckAligned(signals); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backtester{
		cfg:       cfg,
		composer:  composer,
		prices:    prices,
		signals:   signals,
		logger:    logger,
		portfolio: NewPortfolio(cfg.InitialCapital, cfg.LotSize, cfg.MaxPositionPct),
		costs:     NewCostAnalyzer(cfg.InitialCapital),
		costModel: NewCostModel(cfg),
		activeSet: make(map[string]struct{}),
		leaving:   make(map[string]struct{}),
	}, nil
}

// Run walks the full date range and assembles the result. When the loop
// fails mid-run, the result accumulated up to the last fully processed date
// is returned with Incomplete set, alongside the error.
func (b *Backtester) Run() (result *model.BacktestResult, err error) {
	dates := b.prices.Dates()
	result = &model.BacktestResult{
		RunID:        uuid.New().String(),
		StrategyName: b.cfg.Name,
		Config:       b.cfg,
		StartDate:    dates[0],
		EndDate:      dates[len(dates)-1],
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backtest day loop panicked: %v", r)
			b.logger.Error("backtest aborted", zap.Any("panic", r))
		}
		b.finalize(result, err)
	}()

	for i, date := range dates {
		if dayErr := b.processDay(date, i == len(dates)-1); dayErr != nil {
			return result, dayErr
		}
	}
	return result, nil
}

// finalize stamps the accumulated series and the cost summary onto the
// result. It runs on both clean completion and mid-run failure.
func (b *Backtester) finalize(result *model.BacktestResult, err error) {
	result.PortfolioValue = b.equity
	result.DailyReturns = b.returns
	result.Trades = b.costs.Trades()
	if err != nil {
		result.Incomplete = true
		result.Err = err.Error()
	}
	if len(b.equity) > 0 {
		result.EndDate = b.equity[len(b.equity)-1].Date
	}

	finalValue := b.cfg.InitialCapital
	if len(b.equity) > 0 {
		finalValue = decimal.NewFromFloat(b.equity[len(b.equity)-1].Value)
	}
	avg := 0.0
	if n := len(b.equity); n > 0 {
		s, _ := b.equitySum.Float64()
		avg = s / float64(n)
	}
	result.CostAnalysis = b.costs.Summary(finalValue, avg, len(b.equity))
}

// processDay runs the per-day state machine. Recoverable per-symbol issues
// (missing bars, unaffordable fills) are logged and skipped; only structural
// failures propagate.
func (b *Backtester) processDay(date time.Time, last bool) error {
	if b.composer.RebalanceDue(date, b.lastRebalance) {
		b.rebalance(date)
	}
	// No entries on the final date: T+1 forbids selling before the next bar,
	// so anything opened now could only be force-liquidated the same day.
	if !last {
		b.evaluateEntries(date)
	}
	b.evaluateExits(date)
	if last {
		b.liquidate(date)
	}
	b.markToMarket(date)
	return nil
}

// rebalance re-runs selection and applies the rebuild policy: held symbols
// still in the candidate set are kept as-is, held symbols that dropped out
// are queued for exit once their minimum holding period allows.
func (b *Backtester) rebalance(date time.Time) {
	cands := b.composer.Selector.Select(date, b.prices, b.signals)
	if len(cands) > b.cfg.TopN {
		cands = cands[:b.cfg.TopN]
	}
	next := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		next[c.Symbol] = struct{}{}
	}

	// entry state is scoped to the selection window: symbols that dropped
	// out must not carry armed triggers into a later re-selection
	if f, ok := b.composer.Entry.(symbolForgetter); ok {
		for sym := range b.activeSet {
			if _, still := next[sym]; !still {
				f.Forget(sym)
			}
		}
	}

	b.active = cands
	b.activeSet = next

	for _, sym := range b.portfolio.Symbols() {
		if _, still := b.activeSet[sym]; still {
			delete(b.leaving, sym)
		} else {
			b.leaving[sym] = struct{}{}
		}
	}
	b.lastRebalance = model.Day(date)

	b.logger.Debug("rebalanced",
		zap.Time("date", date),
		zap.String("selector", b.composer.Selector.Name()),
		zap.Int("candidates", len(cands)),
		zap.Int("leaving", len(b.leaving)),
	)
}

// evaluateEntries walks the active candidates in rank order and opens the
// ones whose entry strategy triggers today.
func (b *Backtester) evaluateEntries(date time.Time) {
	for _, cand := range b.active {
		if _, held := b.portfolio.Position(cand.Symbol); held {
			continue
		}
		if !b.composer.Entry.ShouldEnter(cand.Symbol, date, b.prices) {
			continue
		}
		b.tryOpen(cand.Symbol, date)
	}
}

// tryOpen sizes an order equally across open slots, caps it at the position
// limit, and fills it if cash allows. An unaffordable fill is a per-day
// no-op, not a run failure.
func (b *Backtester) tryOpen(symbol string, date time.Time) {
	slots := b.cfg.TopN - b.portfolio.Count()
	if slots <= 0 {
		return
	}
	quote, ok := b.prices.Close(symbol, date)
	if !ok || !quote.IsPositive() {
		return
	}
	execPrice := b.costModel.ExecutionPrice(model.SideBuy, quote)

	alloc := b.portfolio.Cash().Div(decimal.NewFromInt(int64(slots)))
	shares := b.portfolio.AlignLot(alloc.Div(execPrice).IntPart())
	total := b.portfolio.MarkToMarket(date, b.prices)
	shares = b.portfolio.CapShares(shares, execPrice, total)
	if shares <= 0 {
		b.logger.Debug("order size rounded to zero", zap.String("symbol", symbol), zap.Time("date", date))
		return
	}

	notional := execPrice.Mul(decimal.NewFromInt(shares))
	commission := b.costModel.Commission(notional)
	slippage := b.costModel.SlippageCost(quote.Mul(decimal.NewFromInt(shares)))

	if _, err := b.portfolio.Open(symbol, shares, execPrice, date, commission); err != nil {
		var insufficient *InsufficientCapitalError
		if errors.As(err, &insufficient) {
			infrastructure.InsufficientCapitalSkips.Inc()
			b.logger.Warn("buy skipped", zap.String("symbol", symbol), zap.Time("date", date), zap.Error(err))
			return
		}
		b.logger.Warn("buy rejected", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	b.costs.Record(model.Trade{
		Symbol:     symbol,
		Side:       model.SideBuy,
		Shares:     shares,
		Price:      execPrice,
		Date:       model.Day(date),
		Commission: commission,
		Slippage:   slippage,
	})
}

// evaluateExits runs the exit strategy at most once per open position per
// day, never before the minimum holding period. Positions queued by the
// rebalance policy close as soon as the holding constraint allows, without
// consulting the strategy.
func (b *Backtester) evaluateExits(date time.Time) {
	now, ok := b.prices.IndexOf(date)
	if !ok {
		return
	}
	for _, sym := range b.portfolio.Symbols() {
		pos, _ := b.portfolio.Position(sym)
		entryIdx, ok := b.prices.IndexOf(pos.EntryDate)
		if !ok {
			continue
		}
		if now-entryIdx < b.cfg.HoldingPeriodMin {
			continue
		}
		if _, queued := b.leaving[sym]; !queued {
			if !b.composer.Exit.ShouldExit(pos, date, b.prices) {
				continue
			}
		}
		b.closePosition(sym, date)
	}
}

// liquidate force-closes every remaining position at the final date so the
// run's results are fully realized. These closes are exempt from the
// minimum-holding rule.
func (b *Backtester) liquidate(date time.Time) {
	for _, sym := range b.portfolio.Symbols() {
		b.closePosition(sym, date)
	}
}

// closePosition fully closes one position at today's quote. A symbol with no
// bar today (suspension) simply stays open until it trades again.
func (b *Backtester) closePosition(symbol string, date time.Time) {
	pos, ok := b.portfolio.Position(symbol)
	if !ok {
		return
	}
	quote, ok := b.prices.Close(symbol, date)
	if !ok || !quote.IsPositive() {
		b.logger.Debug("sell deferred, no quote", zap.String("symbol", symbol), zap.Time("date", date))
		return
	}
	shares := pos.Shares
	execPrice := b.costModel.ExecutionPrice(model.SideSell, quote)
	notional := execPrice.Mul(decimal.NewFromInt(shares))
	commission := b.costModel.Commission(notional)
	stampTax := b.costModel.StampTax(model.SideSell, notional)
	slippage := b.costModel.SlippageCost(quote.Mul(decimal.NewFromInt(shares)))

	realized, err := b.portfolio.Close(symbol, shares, execPrice, date, commission.Add(stampTax))
	if err != nil {
		b.logger.Warn("sell rejected", zap.String("symbol", symbol), zap.Error(err))
		return
	}
	delete(b.leaving, symbol)

	b.costs.Record(model.Trade{
		Symbol:     symbol,
		Side:       model.SideSell,
		Shares:     shares,
		Price:      execPrice,
		Date:       model.Day(date),
		Commission: commission,
		StampTax:   stampTax,
		Slippage:   slippage,
	})

	b.logger.Debug("closed position",
		zap.String("symbol", symbol),
		zap.Time("date", date),
		zap.String("realized_pnl", realized.String()),
	)
}

// markToMarket appends today's equity point and daily return.
func (b *Backtester) markToMarket(date time.Time) {
	total := b.portfolio.MarkToMarket(date, b.prices)
	b.equitySum = b.equitySum.Add(total)

	prev := b.cfg.InitialCapital
	if len(b.equity) > 0 {
		prev = decimal.NewFromFloat(b.equity[len(b.equity)-1].Value)
	}
	totalF, _ := total.Float64()
	b.equity = append(b.equity, model.SeriesPoint{Date: model.Day(date), Value: totalF})

	ret := 0.0
	if prev.IsPositive() {
		r, _ := total.Sub(prev).Div(prev).Float64()
		ret = r
	}
	b.returns = append(b.returns, model.SeriesPoint{Date: model.Day(date), Value: ret})
}
