// Package model holds the domain types shared by the backtest engine and the
// strategy layer: price/signal panels, trades, positions and run results.
package model

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bar 代表一根日K线
type Bar struct {
	Symbol    string          `json:"symbol" db:"symbol"`
	Open      decimal.Decimal `json:"o" db:"open"`
	High      decimal.Decimal `json:"h" db:"high"`
	Low       decimal.Decimal `json:"l" db:"low"`
	Close     decimal.Decimal `json:"c" db:"close"`
	Volume    decimal.Decimal `json:"v" db:"volume"`
	Timestamp time.Time       `json:"t" db:"time"`
}

// CloseF returns the close as a float64 for indicator math.
func (b *Bar) CloseF() float64 {
	f, _ := b.Close.Float64()
	return f
}

// HighF returns the high as a float64.
func (b *Bar) HighF() float64 {
	f, _ := b.High.Float64()
	return f
}

// LowF returns the low as a float64.
func (b *Bar) LowF() float64 {
	f, _ := b.Low.Float64()
	return f
}

// DataAlignmentError reports price/signal panels whose date or symbol indices
// do not line up. It is always raised before the simulation loop starts.
type DataAlignmentError struct {
	Reason string
}

func (e *DataAlignmentError) Error() string {
	return "data alignment: " + e.Reason
}

// PricePanel is a read-only date × symbol grid of daily bars. Dates are
// strictly increasing and each (date, symbol) cell appears at most once.
type PricePanel struct {
	dates   []time.Time
	index   map[int64]int // unix day -> position in dates
	symbols []string
	bars    map[string][]*Bar // aligned with dates, nil where missing
}

// Day normalizes a timestamp to midnight UTC so that dates compare cleanly
// regardless of the source timezone.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewPricePanel builds a panel from a flat bar slice. Bars may arrive in any
// order; duplicate (date, symbol) cells are rejected.
func NewPricePanel(bars []Bar) (*PricePanel, error) {
	dateSet := make(map[int64]time.Time)
	symbolSet := make(map[string]struct{})
	for i := range bars {
		d := Day(bars[i].Timestamp)
		dateSet[d.Unix()] = d
		symbolSet[bars[i].Symbol] = struct{}{}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	index := make(map[int64]int, len(dates))
	for i, d := range dates {
		index[d.Unix()] = i
	}

	grid := make(map[string][]*Bar, len(symbols))
	for _, s := range symbols {
		grid[s] = make([]*Bar, len(dates))
	}
	for i := range bars {
		b := bars[i]
		b.Timestamp = Day(b.Timestamp)
		pos := index[b.Timestamp.Unix()]
		if grid[b.Symbol][pos] != nil {
			return nil, &DataAlignmentError{
				Reason: fmt.Sprintf("duplicate bar for %s on %s", b.Symbol, b.Timestamp.Format("2006-01-02")),
			}
		}
		grid[b.Symbol][pos] = &b
	}

	return &PricePanel{dates: dates, index: index, symbols: symbols, bars: grid}, nil
}

// Dates returns the trading dates in ascending order.
func (p *PricePanel) Dates() []time.Time { return p.dates }

// Symbols returns the symbol universe in sorted order.
func (p *PricePanel) Symbols() []string { return p.symbols }

// Len returns the number of trading dates.
func (p *PricePanel) Len() int { return len(p.dates) }

// IndexOf returns the position of date in the panel calendar.
func (p *PricePanel) IndexOf(date time.Time) (int, bool) {
	i, ok := p.index[Day(date).Unix()]
	return i, ok
}

// Bar returns the bar for symbol at date, if present.
func (p *PricePanel) Bar(symbol string, date time.Time) (*Bar, bool) {
	i, ok := p.IndexOf(date)
	if !ok {
		return nil, false
	}
	row, ok := p.bars[symbol]
	if !ok || row[i] == nil {
		return nil, false
	}
	return row[i], true
}

// Close returns the close price for symbol at date, if present.
func (p *PricePanel) Close(symbol string, date time.Time) (decimal.Decimal, bool) {
	b, ok := p.Bar(symbol, date)
	if !ok {
		return decimal.Zero, false
	}
	return b.Close, true
}

// History returns up to n trailing bars for symbol ending at date (inclusive).
// Missing cells inside the window are skipped, so the result may be shorter
// than n even deep into the panel.
func (p *PricePanel) History(symbol string, date time.Time, n int) []*Bar {
	end, ok := p.IndexOf(date)
	if !ok {
		return nil
	}
	row, ok := p.bars[symbol]
	if !ok {
		return nil
	}
	out := make([]*Bar, 0, n)
	for i := end; i >= 0 && len(out) < n; i-- {
		if row[i] != nil {
			out = append(out, row[i])
		}
	}
	// collected newest-first, reverse into chronological order
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// SignalPanel carries externally computed scores on the same date × symbol
// grid as a PricePanel. Higher scores rank higher. Missing cells are NaN.
type SignalPanel struct {
	dates  []time.Time
	index  map[int64]int
	scores map[string][]float64
}

// SignalCell is one (date, symbol, score) observation used to build a panel.
type SignalCell struct {
	Symbol    string
	Score     float64
	Timestamp time.Time
}

// NewSignalPanel builds a signal panel from flat observations.
func NewSignalPanel(cells []SignalCell) (*SignalPanel, error) {
	dateSet := make(map[int64]time.Time)
	for i := range cells {
		d := Day(cells[i].Timestamp)
		dateSet[d.Unix()] = d
	}
	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[int64]int, len(dates))
	for i, d := range dates {
		index[d.Unix()] = i
	}

	scores := make(map[string][]float64)
	for i := range cells {
		c := cells[i]
		row, ok := scores[c.Symbol]
		if !ok {
			row = make([]float64, len(dates))
			for j := range row {
				row[j] = math.NaN()
			}
			scores[c.Symbol] = row
		}
		pos := index[Day(c.Timestamp).Unix()]
		if !math.IsNaN(row[pos]) {
			return nil, &DataAlignmentError{
				Reason: fmt.Sprintf("duplicate signal for %s on %s", c.Symbol, Day(c.Timestamp).Format("2006-01-02")),
			}
		}
		row[pos] = c.Score
	}

	return &SignalPanel{dates: dates, index: index, scores: scores}, nil
}

// Score returns the score for symbol at date. The second return value is
// false for missing cells and NaN scores.
func (p *SignalPanel) Score(symbol string, date time.Time) (float64, bool) {
	i, ok := p.index[Day(date).Unix()]
	if !ok {
		return math.NaN(), false
	}
	row, ok := p.scores[symbol]
	if !ok {
		return math.NaN(), false
	}
	v := row[i]
	if math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}

// CheckAligned verifies that every signal date exists in the price panel
// calendar. A signal panel sparser than the price panel is fine; dates the
// price panel has never seen are not.
func (p *PricePanel) CheckAligned(signals *SignalPanel) error {
	if signals == nil {
		return nil
	}
	for _, d := range signals.dates {
		if _, ok := p.index[d.Unix()]; !ok {
			return &DataAlignmentError{
				Reason: fmt.Sprintf("signal date %s not in price panel", d.Format("2006-01-02")),
			}
		}
	}
	return nil
}
