package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

func testDay(offset int) time.Time {
	return time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func closeBar(symbol string, offset int, close float64) model.Bar {
	c := decimal.NewFromFloat(close)
	return model.Bar{
		Symbol: symbol, Open: c, High: c, Low: c, Close: c,
		Volume: decimal.NewFromInt(1), Timestamp: testDay(offset),
	}
}

func ohlcBar(symbol string, offset int, high, low, close float64) model.Bar {
	return model.Bar{
		Symbol:    symbol,
		Open:      decimal.NewFromFloat(close),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(close),
		Volume:    decimal.NewFromInt(1),
		Timestamp: testDay(offset),
	}
}

func mustPanel(t *testing.T, bars []model.Bar) *model.PricePanel {
	t.Helper()
	panel, err := model.NewPricePanel(bars)
	if err != nil {
		t.Fatalf("NewPricePanel: %v", err)
	}
	return panel
}

func TestSMA(t *testing.T) {
	assert.InDelta(t, 11.5, SMA([]float64{10, 11, 12, 13}, 2), 1e-9)
	assert.InDelta(t, 11.5, SMA([]float64{10, 11, 12, 13}, 4), 1e-9)
	assert.True(t, math.IsNaN(SMA([]float64{10, 11}, 3)))
	assert.True(t, math.IsNaN(SMA(nil, 1)))
}

func TestTrailingReturn(t *testing.T) {
	assert.InDelta(t, 0.2, TrailingReturn([]float64{10, 11, 12}, 2), 1e-9)
	assert.True(t, math.IsNaN(TrailingReturn([]float64{10, 11}, 2)))
	assert.True(t, math.IsNaN(TrailingReturn([]float64{0, 11, 12}, 2)))
}

func TestRSI(t *testing.T) {
	// monotonic rise: no losses, RSI pegged at 100
	assert.InDelta(t, 100, RSI([]float64{1, 2, 3, 4, 5}, 4), 1e-9)
	// monotonic fall: no gains, RSI at 0
	assert.InDelta(t, 0, RSI([]float64{5, 4, 3, 2, 1}, 4), 1e-9)
	// equal gain and loss: RSI 50
	assert.InDelta(t, 50, RSI([]float64{10, 12, 10}, 2), 1e-9)
	// flat series has no movement at all
	assert.InDelta(t, 50, RSI([]float64{10, 10, 10}, 2), 1e-9)
	assert.True(t, math.IsNaN(RSI([]float64{10, 11}, 2)))
}

func TestATR(t *testing.T) {
	bars := []model.Bar{
		ohlcBar("s", 0, 10, 9, 10),
		ohlcBar("s", 1, 12, 10, 12),   // TR = max(2, 2, 0) = 2
		ohlcBar("s", 2, 11.5, 11, 11), // TR = max(0.5, 0.5, 1) = 1
	}
	panel := mustPanel(t, bars)
	hist := panel.History("s", testDay(2), 3)

	assert.InDelta(t, 1.5, ATR(hist, 2), 1e-9)
	assert.True(t, math.IsNaN(ATR(hist, 3)))
}
