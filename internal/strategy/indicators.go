package strategy

import (
	"math"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// closes extracts close prices from a bar window in chronological order.
func closes(bars []*model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.CloseF()
	}
	return out
}

// SMA returns the simple moving average of the trailing period values.
// NaN when there is not enough data.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// TrailingReturn returns the n-period simple return ending at the last value.
func TrailingReturn(values []float64, n int) float64 {
	if n <= 0 || len(values) < n+1 {
		return math.NaN()
	}
	base := values[len(values)-1-n]
	if base == 0 {
		return math.NaN()
	}
	return values[len(values)-1]/base - 1
}

// RSI computes Wilder's relative strength index over the trailing period.
// Requires period+1 values; NaN otherwise.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return math.NaN()
	}
	window := values[len(values)-period-1:]
	var gain, loss float64
	for i := 1; i < len(window); i++ {
		d := window[i] - window[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if gain+loss == 0 {
		return 50
	}
	if loss == 0 {
		return 100
	}
	rs := (gain / float64(period)) / (loss / float64(period))
	return 100 - 100/(1+rs)
}

// ATR computes the average true range over the trailing period. Requires
// period+1 bars so that every true range has a previous close.
func ATR(bars []*model.Bar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return math.NaN()
	}
	window := bars[len(bars)-period-1:]
	sum := 0.0
	for i := 1; i < len(window); i++ {
		prevClose := window[i-1].CloseF()
		high, low := window[i].HighF(), window[i].LowF()
		tr := high - low
		if d := math.Abs(high - prevClose); d > tr {
			tr = d
		}
		if d := math.Abs(low - prevClose); d > tr {
			tr = d
		}
		sum += tr
	}
	return sum / float64(period)
}

// meanStd returns the mean and population standard deviation of values.
func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
