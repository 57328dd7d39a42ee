package strategy

import (
	"math"
	"time"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// FixedPeriodExit closes a position once it has been held for N trading days.
type FixedPeriodExit struct {
	days int
}

// NewFixedPeriodExit creates a fixed holding-period exit.
func NewFixedPeriodExit(days int) *FixedPeriodExit {
	return &FixedPeriodExit{days: days}
}

func (e *FixedPeriodExit) Name() string { return "fixed_period" }

func (e *FixedPeriodExit) ShouldExit(pos *model.Position, date time.Time, prices *model.PricePanel) bool {
	now, ok := prices.IndexOf(date)
	if !ok {
		return false
	}
	entry, ok := prices.IndexOf(pos.EntryDate)
	if !ok {
		return false
	}
	return now-entry >= e.days
}

// StopLossExit closes a position once its loss from entry reaches the
// configured percentage.
type StopLossExit struct {
	stopLossPct float64
}

// NewStopLossExit creates a fixed percentage stop-loss exit.
func NewStopLossExit(stopLossPct float64) *StopLossExit {
	return &StopLossExit{stopLossPct: stopLossPct}
}

func (e *StopLossExit) Name() string { return "stop_loss" }

func (e *StopLossExit) ShouldExit(pos *model.Position, date time.Time, prices *model.PricePanel) bool {
	price, ok := prices.Close(pos.Symbol, date)
	if !ok {
		return false
	}
	entry, _ := pos.EntryPrice.Float64()
	if entry == 0 {
		return false
	}
	p, _ := price.Float64()
	return (p-entry)/entry <= -e.stopLossPct
}

// ATRStopExit maintains a trailing stop at highest-high-since-entry minus
// k × ATR(N). Both the high and the stop level persist on the position and
// only ever ratchet upward: an ATR expansion widens the band but never
// lowers a stop already set.
type ATRStopExit struct {
	period     int
	multiplier float64
}

// NewATRStopExit creates an ATR-based trailing stop exit.
func NewATRStopExit(period int, multiplier float64) *ATRStopExit {
	return &ATRStopExit{period: period, multiplier: multiplier}
}

func (e *ATRStopExit) Name() string { return "atr_stop" }

func (e *ATRStopExit) ShouldExit(pos *model.Position, date time.Time, prices *model.PricePanel) bool {
	bar, ok := prices.Bar(pos.Symbol, date)
	if !ok {
		return false
	}
	if pos.HighSinceEntry == 0 {
		entry, _ := pos.EntryPrice.Float64()
		pos.HighSinceEntry = entry
	}
	if h := bar.HighF(); h > pos.HighSinceEntry {
		pos.HighSinceEntry = h
	}

	atr := ATR(prices.History(pos.Symbol, date, e.period+1), e.period)
	if math.IsNaN(atr) {
		return false
	}
	if stop := pos.HighSinceEntry - e.multiplier*atr; stop > pos.TrailingStop {
		pos.TrailingStop = stop
	}
	if pos.TrailingStop == 0 {
		return false
	}
	return bar.CloseF() < pos.TrailingStop
}

// TrendExit closes a position when the trend flips from positive to
// negative: the fast moving average was at or above the slow one yesterday
// and falls below it today. A position whose trend was never positive does
// not trigger; it is left to the rebalance policy or the final liquidation.
type TrendExit struct {
	fastPeriod int
	slowPeriod int
}

// NewTrendExit creates a trend-reversal exit.
func NewTrendExit(fastPeriod, slowPeriod int) *TrendExit {
	return &TrendExit{fastPeriod: fastPeriod, slowPeriod: slowPeriod}
}

func (e *TrendExit) Name() string { return "trend_exit" }

func (e *TrendExit) ShouldExit(pos *model.Position, date time.Time, prices *model.PricePanel) bool {
	hist := closes(prices.History(pos.Symbol, date, e.slowPeriod+1))
	if len(hist) < e.slowPeriod+1 {
		return false
	}
	fast := SMA(hist, e.fastPeriod)
	slow := SMA(hist, e.slowPeriod)
	prevFast := SMA(hist[:len(hist)-1], e.fastPeriod)
	prevSlow := SMA(hist[:len(hist)-1], e.slowPeriod)
	if math.IsNaN(fast) || math.IsNaN(slow) || math.IsNaN(prevFast) || math.IsNaN(prevSlow) {
		return false
	}
	return prevFast >= prevSlow && fast < slow
}
