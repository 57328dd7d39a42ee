package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

func day(offset int) time.Time {
	return time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func bar(symbol string, offset int, close float64) model.Bar {
	c := decimal.NewFromFloat(close)
	return model.Bar{
		Symbol: symbol, Open: c, High: c, Low: c, Close: c,
		Volume: decimal.NewFromInt(1), Timestamp: day(offset),
	}
}

func newPanel(t *testing.T, bars []model.Bar) *model.PricePanel {
	t.Helper()
	panel, err := model.NewPricePanel(bars)
	require.NoError(t, err)
	return panel
}

func TestPortfolioOpenDebitsCash(t *testing.T) {
	p := NewPortfolio(dec(100000), 100, 1.0)

	pos, err := p.Open("600519", 1000, dec(10), day(0), dec(5))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), pos.Shares)
	assert.True(t, p.Cash().Equal(dec(89995)), "cash %s", p.Cash())
	assert.Equal(t, 1, p.Count())
}

func TestPortfolioOpenRejectsDuplicateAndZero(t *testing.T) {
	p := NewPortfolio(dec(100000), 100, 1.0)
	_, err := p.Open("600519", 100, dec(10), day(0), decimal.Zero)
	require.NoError(t, err)

	_, err = p.Open("600519", 100, dec(10), day(1), decimal.Zero)
	assert.Error(t, err)
	_, err = p.Open("000001", 0, dec(10), day(1), decimal.Zero)
	assert.Error(t, err)
}

func TestPortfolioOpenInsufficientCapital(t *testing.T) {
	p := NewPortfolio(dec(9999), 100, 1.0)

	_, err := p.Open("600519", 1000, dec(10), day(0), decimal.Zero)
	var capErr *InsufficientCapitalError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, "600519", capErr.Symbol)
	assert.True(t, capErr.Required.Equal(dec(10000)))
	assert.True(t, capErr.Available.Equal(dec(9999)))
	// a failed open leaves the ledger untouched
	assert.Equal(t, 0, p.Count())
	assert.True(t, p.Cash().Equal(dec(9999)))
}

func TestPortfolioCloseFullAndPartial(t *testing.T) {
	p := NewPortfolio(dec(100000), 100, 1.0)
	_, err := p.Open("600519", 1000, dec(10), day(0), decimal.Zero)
	require.NoError(t, err)

	// sell 400 at 11 with 4 cost: realized = (11-10)*400 - 4 = 396
	realized, err := p.Close("600519", 400, dec(11), day(1), dec(4))
	require.NoError(t, err)
	assert.True(t, realized.Equal(dec(396)), "realized %s", realized)
	pos, ok := p.Position("600519")
	require.True(t, ok)
	assert.Equal(t, int64(600), pos.Shares)

	realized, err = p.Close("600519", 600, dec(9), day(2), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, realized.Equal(dec(-600)))
	assert.Equal(t, 0, p.Count())

	// cash = 100000 - 10000 + (4400-4) + 5400 = 99796
	assert.True(t, p.Cash().Equal(dec(99796)), "cash %s", p.Cash())
}

func TestPortfolioCloseRejectsOverAndUnknown(t *testing.T) {
	p := NewPortfolio(dec(100000), 100, 1.0)
	_, err := p.Open("600519", 100, dec(10), day(0), decimal.Zero)
	require.NoError(t, err)

	_, err = p.Close("600519", 200, dec(10), day(1), decimal.Zero)
	assert.Error(t, err)
	_, err = p.Close("000001", 100, dec(10), day(1), decimal.Zero)
	assert.Error(t, err)
}

func TestPortfolioAlignLot(t *testing.T) {
	p := NewPortfolio(dec(100000), 100, 1.0)
	assert.Equal(t, int64(0), p.AlignLot(99))
	assert.Equal(t, int64(100), p.AlignLot(100))
	assert.Equal(t, int64(100), p.AlignLot(199))
	assert.Equal(t, int64(1200), p.AlignLot(1234))
}

func TestPortfolioCapShares(t *testing.T) {
	p := NewPortfolio(dec(100000), 100, 0.2)

	// 20% of 100000 at price 10 allows 2000 shares
	assert.Equal(t, int64(1000), p.CapShares(1000, dec(10), dec(100000)))
	assert.Equal(t, int64(2000), p.CapShares(5000, dec(10), dec(100000)))
	// cap result is lot-aligned: 20% at price 13 is 1538 -> 1500
	assert.Equal(t, int64(1500), p.CapShares(5000, dec(13), dec(100000)))
	assert.Equal(t, int64(0), p.CapShares(1000, decimal.Zero, dec(100000)))
}

func TestPortfolioMarkToMarketAndWeights(t *testing.T) {
	panel := newPanel(t, []model.Bar{
		bar("600519", 0, 10),
		bar("600519", 1, 12),
		bar("000001", 0, 20),
		// 000001 suspended on day 1: valued at its last close
	})
	p := NewPortfolio(dec(100000), 100, 1.0)
	_, err := p.Open("600519", 1000, dec(10), day(0), decimal.Zero)
	require.NoError(t, err)
	_, err = p.Open("000001", 500, dec(20), day(0), decimal.Zero)
	require.NoError(t, err)

	// cash 80000 + 1000×12 + 500×20 = 102000
	total := p.MarkToMarket(day(1), panel)
	assert.True(t, total.Equal(dec(102000)), "total %s", total)

	w := p.Weights(day(1), panel)
	assert.InDelta(t, 12000.0/102000, w["600519"], 1e-9)
	assert.InDelta(t, 10000.0/102000, w["000001"], 1e-9)

	assert.Equal(t, []string{"000001", "600519"}, p.Symbols())
}
