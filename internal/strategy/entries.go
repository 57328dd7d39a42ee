package strategy

import (
	"math"
	"time"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// ImmediateEntry opens on the first evaluation after selection.
type ImmediateEntry struct{}

// NewImmediateEntry creates an entry that always triggers.
func NewImmediateEntry() *ImmediateEntry { return &ImmediateEntry{} }

func (e *ImmediateEntry) Name() string { return "immediate" }

func (e *ImmediateEntry) ShouldEnter(symbol string, date time.Time, prices *model.PricePanel) bool {
	_, ok := prices.Close(symbol, date)
	return ok
}

// MABreakoutEntry triggers when the close crosses above its N-day moving
// average: below or on the average yesterday, above it today.
type MABreakoutEntry struct {
	period int
}

// NewMABreakoutEntry creates a moving-average breakout entry.
func NewMABreakoutEntry(period int) *MABreakoutEntry {
	return &MABreakoutEntry{period: period}
}

func (e *MABreakoutEntry) Name() string { return "ma_breakout" }

func (e *MABreakoutEntry) ShouldEnter(symbol string, date time.Time, prices *model.PricePanel) bool {
	hist := closes(prices.History(symbol, date, e.period+1))
	if len(hist) < e.period+1 {
		return false
	}
	today := hist[len(hist)-1]
	yesterday := hist[len(hist)-2]
	ma := SMA(hist, e.period)
	prevMA := SMA(hist[:len(hist)-1], e.period)
	if math.IsNaN(ma) || math.IsNaN(prevMA) {
		return false
	}
	return yesterday <= prevMA && today > ma
}

// RSIReboundEntry waits for RSI to dip below the oversold threshold (armed)
// and then cross back above it (triggered). The armed flag is tracked per
// symbol; triggering disarms it.
type RSIReboundEntry struct {
	period    int
	threshold float64
	armed     map[string]bool
}

// NewRSIReboundEntry creates an oversold-rebound entry.
func NewRSIReboundEntry(period int, threshold float64) *RSIReboundEntry {
	return &RSIReboundEntry{
		period:    period,
		threshold: threshold,
		armed:     make(map[string]bool),
	}
}

func (e *RSIReboundEntry) Name() string { return "rsi_rebound" }

// Forget drops the armed state for a symbol that left the selection set, so
// a stale oversold episode cannot trigger a later re-selection.
func (e *RSIReboundEntry) Forget(symbol string) {
	delete(e.armed, symbol)
}

func (e *RSIReboundEntry) ShouldEnter(symbol string, date time.Time, prices *model.PricePanel) bool {
	hist := closes(prices.History(symbol, date, e.period+1))
	rsi := RSI(hist, e.period)
	if math.IsNaN(rsi) {
		return false
	}
	if rsi < e.threshold {
		e.armed[symbol] = true
		return false
	}
	if e.armed[symbol] {
		delete(e.armed, symbol)
		return true
	}
	return false
}
