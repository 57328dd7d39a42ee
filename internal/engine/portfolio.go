package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// Portfolio is the ledger of cash and open positions for a single run. All
// mutations happen synchronously in trade-execution order, which is what
// keeps cash + Σ(shares × price) equal to total value at every step.
type Portfolio struct {
	cash           decimal.Decimal
	positions      map[string]*model.Position
	lotSize        int64
	maxPositionPct float64
}

// NewPortfolio creates a ledger seeded with the initial capital.
func NewPortfolio(initialCapital decimal.Decimal, lotSize int64, maxPositionPct float64) *Portfolio {
	return &Portfolio{
		cash:           initialCapital,
		positions:      make(map[string]*model.Position),
		lotSize:        lotSize,
		maxPositionPct: maxPositionPct,
	}
}

// Cash returns the current free cash.
func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// Count returns the number of open positions.
func (p *Portfolio) Count() int { return len(p.positions) }

// Position returns the open position for symbol, if any.
func (p *Portfolio) Position(symbol string) (*model.Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// Symbols returns the held symbols in sorted order, so that callers iterate
// positions deterministically.
func (p *Portfolio) Symbols() []string {
	out := make([]string, 0, len(p.positions))
	for s := range p.positions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AlignLot rounds shares down to a whole number of board lots.
func (p *Portfolio) AlignLot(shares int64) int64 {
	return shares / p.lotSize * p.lotSize
}

// CapShares limits a requested share count so that the post-trade position
// value stays within maxPositionPct of total portfolio value, lot-aligned.
func (p *Portfolio) CapShares(shares int64, price, totalValue decimal.Decimal) int64 {
	if !price.IsPositive() {
		return 0
	}
	limit := totalValue.Mul(decimal.NewFromFloat(p.maxPositionPct))
	maxShares := limit.Div(price).IntPart()
	if shares > maxShares {
		shares = maxShares
	}
	return p.AlignLot(shares)
}

// Open creates a position of shares at price, debiting notional plus cost
// from cash. It fails with InsufficientCapitalError when cash cannot cover
// the fill and with a plain error when the symbol is already held.
func (p *Portfolio) Open(symbol string, shares int64, price decimal.Decimal, date time.Time, cost decimal.Decimal) (*model.Position, error) {
	if _, held := p.positions[symbol]; held {
		return nil, fmt.Errorf("position already open for %s", symbol)
	}
	if shares <= 0 {
		return nil, fmt.Errorf("cannot open %d shares of %s", shares, symbol)
	}
	need := price.Mul(decimal.NewFromInt(shares)).Add(cost)
	if need.GreaterThan(p.cash) {
		return nil, &InsufficientCapitalError{Symbol: symbol, Required: need, Available: p.cash}
	}
	pos := &model.Position{
		Symbol:     symbol,
		Shares:     shares,
		EntryPrice: price,
		EntryDate:  model.Day(date),
		EntryCost:  cost,
	}
	p.cash = p.cash.Sub(need)
	p.positions[symbol] = pos
	return pos, nil
}

// Close sells shares of symbol at price, crediting the proceeds net of cost,
// and returns the realized P&L against the entry price. Partial closes keep
// the position open with reduced shares; a full close removes it.
func (p *Portfolio) Close(symbol string, shares int64, price decimal.Decimal, _ time.Time, cost decimal.Decimal) (decimal.Decimal, error) {
	pos, ok := p.positions[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no open position for %s", symbol)
	}
	if shares <= 0 || shares > pos.Shares {
		return decimal.Zero, fmt.Errorf("cannot close %d of %d shares of %s", shares, pos.Shares, symbol)
	}
	qty := decimal.NewFromInt(shares)
	proceeds := price.Mul(qty).Sub(cost)
	p.cash = p.cash.Add(proceeds)

	realized := price.Sub(pos.EntryPrice).Mul(qty).Sub(cost)

	pos.Shares -= shares
	if pos.Shares == 0 {
		delete(p.positions, symbol)
	}
	return realized, nil
}

// lastClose finds the most recent close at or before date, so that suspended
// symbols keep their last traded valuation.
func lastClose(prices *model.PricePanel, symbol string, date time.Time) (decimal.Decimal, bool) {
	hist := prices.History(symbol, date, 1)
	if len(hist) == 0 {
		return decimal.Zero, false
	}
	return hist[0].Close, true
}

// MarkToMarket values the portfolio at the given date's closes.
func (p *Portfolio) MarkToMarket(date time.Time, prices *model.PricePanel) decimal.Decimal {
	total := p.cash
	for _, sym := range p.Symbols() {
		pos := p.positions[sym]
		price, ok := lastClose(prices, sym, date)
		if !ok {
			price = pos.EntryPrice
		}
		total = total.Add(pos.MarketValue(price))
	}
	return total
}

// Weights returns each held symbol's share of total portfolio value at the
// given date's closes.
func (p *Portfolio) Weights(date time.Time, prices *model.PricePanel) map[string]float64 {
	total := p.MarkToMarket(date, prices)
	weights := make(map[string]float64, len(p.positions))
	if total.IsZero() {
		return weights
	}
	for _, sym := range p.Symbols() {
		pos := p.positions[sym]
		price, ok := lastClose(prices, sym, date)
		if !ok {
			price = pos.EntryPrice
		}
		w, _ := pos.MarketValue(price).Div(total).Float64()
		weights[sym] = w
	}
	return weights
}
