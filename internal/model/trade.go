package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side 交易方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade 回测中的单笔成交记录. Records are append-only; the cost analyzer owns
// the log and nothing mutates a trade after it is recorded.
type Trade struct {
	Symbol     string          `json:"symbol"`
	Side       Side            `json:"side"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"` // execution price, slippage included
	Date       time.Time       `json:"date"`
	Commission decimal.Decimal `json:"commission"`
	StampTax   decimal.Decimal `json:"stamp_tax"`
	Slippage   decimal.Decimal `json:"slippage"`
}

// Notional returns shares × price.
func (t *Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}

// Cost returns commission + stamp tax + slippage for this trade.
func (t *Trade) Cost() decimal.Decimal {
	return t.Commission.Add(t.StampTax).Add(t.Slippage)
}

// Position 持仓. Owned exclusively by the portfolio ledger: created on a buy
// fill, shrunk on partial sells, removed when shares reach zero.
type Position struct {
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"` // lot-aligned, never negative
	EntryPrice decimal.Decimal `json:"entry_price"`
	EntryDate  time.Time       `json:"entry_date"`
	EntryCost  decimal.Decimal `json:"entry_cost"`

	// HighSinceEntry and TrailingStop are trailing-stop state maintained by
	// the ATR exit strategy. Zero until the first exit evaluation; the stop
	// level only ever rises.
	HighSinceEntry float64 `json:"high_since_entry,omitempty"`
	TrailingStop   float64 `json:"trailing_stop,omitempty"`
}

// MarketValue returns shares × price.
func (p *Position) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(p.Shares))
}
