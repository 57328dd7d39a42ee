package engine

import (
	"fmt"
	"math"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// tradingDaysPerYear is the annualization factor for daily series in the
// target market.
const tradingDaysPerYear = 252.0

// PerformanceReport is the risk/return profile of one daily return series.
// Ratios whose denominator is zero are NaN rather than an error; callers
// deciding how to present "undefined" is not this package's concern.
type PerformanceReport struct {
	TotalReturn       float64
	AnnualizedReturn  float64
	AnnualizedVol     float64
	MaxDrawdown       float64
	MaxDrawdownDays   int
	DownsideDeviation float64
	SharpeRatio       float64
	SortinoRatio      float64
	CalmarRatio       float64

	WinRate      float64
	ProfitFactor float64

	// benchmark-relative; NaN when no benchmark was supplied
	Beta             float64
	Alpha            float64
	InformationRatio float64
}

// PerformanceAnalyzer converts daily return series into risk/return
// analytics. It is a pure function of its inputs: no state survives a call.
type PerformanceAnalyzer struct {
	PeriodsPerYear float64
	RiskFreeRate   float64 // annualized
}

// NewPerformanceAnalyzer creates an analyzer with daily annualization and a
// zero risk-free rate.
func NewPerformanceAnalyzer() *PerformanceAnalyzer {
	return &PerformanceAnalyzer{PeriodsPerYear: tradingDaysPerYear}
}

// Analyze computes the report for a daily return series without a benchmark.
func (a *PerformanceAnalyzer) Analyze(returns []float64) PerformanceReport {
	r := PerformanceReport{
		Beta:             math.NaN(),
		Alpha:            math.NaN(),
		InformationRatio: math.NaN(),
		WinRate:          math.NaN(),
		ProfitFactor:     math.NaN(),
	}
	n := len(returns)
	if n == 0 {
		r.TotalReturn = 0
		r.AnnualizedReturn = 0
		r.AnnualizedVol = math.NaN()
		r.SharpeRatio = math.NaN()
		r.SortinoRatio = math.NaN()
		r.CalmarRatio = math.NaN()
		r.DownsideDeviation = math.NaN()
		return r
	}

	cum := 1.0
	for _, v := range returns {
		cum *= 1 + v
	}
	r.TotalReturn = cum - 1
	r.AnnualizedReturn = math.Pow(cum, a.PeriodsPerYear/float64(n)) - 1

	mean, std := meanStd(returns)
	r.AnnualizedVol = std * math.Sqrt(a.PeriodsPerYear)

	rfDaily := a.RiskFreeRate / a.PeriodsPerYear
	meanExcess := mean - rfDaily
	r.SharpeRatio = guardDiv(meanExcess*a.PeriodsPerYear, r.AnnualizedVol)

	r.DownsideDeviation = downsideDeviation(returns) * math.Sqrt(a.PeriodsPerYear)
	r.SortinoRatio = guardDiv(meanExcess*a.PeriodsPerYear, r.DownsideDeviation)

	r.MaxDrawdown, r.MaxDrawdownDays = maxDrawdown(returns)
	r.CalmarRatio = guardDiv(r.AnnualizedReturn, math.Abs(r.MaxDrawdown))

	return r
}

// AnalyzeWithBenchmark computes the full report including beta, alpha and the
// information ratio against a benchmark return series of equal length.
func (a *PerformanceAnalyzer) AnalyzeWithBenchmark(returns, benchmark []float64) (PerformanceReport, error) {
	if len(returns) != len(benchmark) {
		return PerformanceReport{}, fmt.Errorf(
			"benchmark length %d does not match return series length %d", len(benchmark), len(returns))
	}
	r := a.Analyze(returns)
	if len(returns) < 2 {
		return r, nil
	}

	meanR, _ := meanStd(returns)
	meanB, stdB := meanStd(benchmark)
	cov := 0.0
	for i := range returns {
		cov += (returns[i] - meanR) * (benchmark[i] - meanB)
	}
	cov /= float64(len(returns))
	varB := stdB * stdB

	r.Beta = guardDiv(cov, varB)
	if !math.IsNaN(r.Beta) {
		r.Alpha = (meanR - r.Beta*meanB) * a.PeriodsPerYear
	}

	active := make([]float64, len(returns))
	for i := range returns {
		active[i] = returns[i] - benchmark[i]
	}
	meanA, stdA := meanStd(active)
	r.InformationRatio = guardDiv(meanA*a.PeriodsPerYear, stdA*math.Sqrt(a.PeriodsPerYear))

	return r, nil
}

// TradeStats computes the win rate and profit factor over discrete
// round-trip P&L reconstructed from the trade log. Buys accumulate a cost
// basis per symbol (fills plus buy-side costs); each sell realizes against
// the average basis.
func (a *PerformanceAnalyzer) TradeStats(trades []model.Trade) (winRate, profitFactor float64) {
	type basis struct {
		shares int64
		cost   float64 // total cost of the open shares, fees included
	}
	open := make(map[string]*basis)

	var wins, losses int
	var grossWin, grossLoss float64
	for i := range trades {
		t := &trades[i]
		price, _ := t.Price.Float64()
		fees, _ := t.Cost().Float64()
		switch t.Side {
		case model.SideBuy:
			b, ok := open[t.Symbol]
			if !ok {
				b = &basis{}
				open[t.Symbol] = b
			}
			b.shares += t.Shares
			b.cost += price*float64(t.Shares) + fees
		case model.SideSell:
			b, ok := open[t.Symbol]
			if !ok || b.shares == 0 {
				continue
			}
			avg := b.cost / float64(b.shares)
			pnl := (price-avg)*float64(t.Shares) - fees
			b.cost -= avg * float64(t.Shares)
			b.shares -= t.Shares
			if b.shares <= 0 {
				delete(open, t.Symbol)
			}
			if pnl > 0 {
				wins++
				grossWin += pnl
			} else {
				losses++
				grossLoss -= pnl
			}
		}
	}

	closed := wins + losses
	winRate = guardDiv(float64(wins), float64(closed))
	profitFactor = guardDiv(grossWin, grossLoss)
	return winRate, profitFactor
}

func guardDiv(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) {
		return math.NaN()
	}
	return num / den
}

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

func downsideDeviation(returns []float64) float64 {
	sq := 0.0
	for _, v := range returns {
		if v < 0 {
			sq += v * v
		}
	}
	return math.Sqrt(sq / float64(len(returns)))
}

// maxDrawdown walks the compounded equity path tracking the running peak. It
// returns the worst peak-to-trough decline as a negative-free magnitude and
// the duration of that decline's underwater episode: the periods spent below
// the peak that preceded the deepest trough, until recovery or series end.
func maxDrawdown(returns []float64) (float64, int) {
	equity := 1.0
	peak := 1.0
	maxDD := 0.0
	underwater := 0
	ddDays := 0
	inMaxEpisode := false
	for _, v := range returns {
		equity *= 1 + v
		if equity > peak {
			peak = equity
			underwater = 0
			inMaxEpisode = false
			continue
		}
		underwater++
		if dd := (peak - equity) / peak; dd > maxDD {
			maxDD = dd
			inMaxEpisode = true
		}
		if inMaxEpisode {
			ddDays = underwater
		}
	}
	return maxDD, ddDays
}
