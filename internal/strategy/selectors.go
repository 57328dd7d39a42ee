package strategy

import (
	"math"
	"sort"
	"time"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// rankCandidates sorts candidates by score descending, ties broken by symbol,
// so that identical inputs always produce identical rankings.
func rankCandidates(cands []Candidate) []Candidate {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Symbol < cands[j].Symbol
	})
	return cands
}

// MomentumSelector ranks by trailing N-day return: recent winners first.
type MomentumSelector struct {
	lookback int
}

// NewMomentumSelector creates a momentum selector with the given lookback in
// trading days.
func NewMomentumSelector(lookback int) *MomentumSelector {
	return &MomentumSelector{lookback: lookback}
}

func (s *MomentumSelector) Name() string { return "momentum" }

func (s *MomentumSelector) Select(date time.Time, prices *model.PricePanel, _ *model.SignalPanel) []Candidate {
	cands := make([]Candidate, 0, len(prices.Symbols()))
	for _, sym := range prices.Symbols() {
		hist := prices.History(sym, date, s.lookback+1)
		score := TrailingReturn(closes(hist), s.lookback)
		if math.IsNaN(score) {
			continue
		}
		cands = append(cands, Candidate{Symbol: sym, Score: score})
	}
	return rankCandidates(cands)
}

// ReversalSelector ranks by a mean-reversion z-score: the further the close
// sits below its trailing mean, the higher the score.
type ReversalSelector struct {
	lookback int
}

// NewReversalSelector creates a reversal selector with the given lookback.
func NewReversalSelector(lookback int) *ReversalSelector {
	return &ReversalSelector{lookback: lookback}
}

func (s *ReversalSelector) Name() string { return "reversal" }

func (s *ReversalSelector) Select(date time.Time, prices *model.PricePanel, _ *model.SignalPanel) []Candidate {
	cands := make([]Candidate, 0, len(prices.Symbols()))
	for _, sym := range prices.Symbols() {
		hist := closes(prices.History(sym, date, s.lookback))
		if len(hist) < s.lookback {
			continue
		}
		mean, std := meanStd(hist)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		score := (mean - hist[len(hist)-1]) / std
		cands = append(cands, Candidate{Symbol: sym, Score: score})
	}
	return rankCandidates(cands)
}

// MLRankSelector scores each symbol with a weighted sum of cross-sectionally
// normalized factors (momentum, reversal, low volatility). It stands in for a
// trained ranking model's inference output: the factor weights are the model.
type MLRankSelector struct {
	lookback       int
	momentumWeight float64
	reversalWeight float64
	volWeight      float64
}

// NewMLRankSelector creates a multi-factor ranking selector.
func NewMLRankSelector(lookback int, momentumW, reversalW, volW float64) *MLRankSelector {
	return &MLRankSelector{
		lookback:       lookback,
		momentumWeight: momentumW,
		reversalWeight: reversalW,
		volWeight:      volW,
	}
}

func (s *MLRankSelector) Name() string { return "ml_rank" }

func (s *MLRankSelector) Select(date time.Time, prices *model.PricePanel, _ *model.SignalPanel) []Candidate {
	type factors struct {
		symbol   string
		momentum float64
		reversal float64
		lowVol   float64
	}
	rows := make([]factors, 0, len(prices.Symbols()))
	for _, sym := range prices.Symbols() {
		hist := closes(prices.History(sym, date, s.lookback+1))
		if len(hist) < s.lookback+1 {
			continue
		}
		mom := TrailingReturn(hist, s.lookback)
		mean, std := meanStd(hist)
		if std == 0 || math.IsNaN(std) || math.IsNaN(mom) {
			continue
		}
		rets := make([]float64, 0, len(hist)-1)
		for i := 1; i < len(hist); i++ {
			if hist[i-1] != 0 {
				rets = append(rets, hist[i]/hist[i-1]-1)
			}
		}
		_, retVol := meanStd(rets)
		rows = append(rows, factors{
			symbol:   sym,
			momentum: mom,
			reversal: (mean - hist[len(hist)-1]) / std,
			lowVol:   -retVol,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	// z-score each factor across the cross-section before weighting, so no
	// single factor dominates on raw scale.
	normalize := func(get func(factors) float64) func(factors) float64 {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = get(r)
		}
		mean, std := meanStd(vals)
		if std == 0 || math.IsNaN(std) {
			return func(factors) float64 { return 0 }
		}
		return func(r factors) float64 { return (get(r) - mean) / std }
	}
	momZ := normalize(func(r factors) float64 { return r.momentum })
	revZ := normalize(func(r factors) float64 { return r.reversal })
	volZ := normalize(func(r factors) float64 { return r.lowVol })

	cands := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		score := s.momentumWeight*momZ(r) + s.reversalWeight*revZ(r) + s.volWeight*volZ(r)
		cands = append(cands, Candidate{Symbol: r.symbol, Score: score})
	}
	return rankCandidates(cands)
}

// SignalSelector ranks by externally supplied scores from a SignalPanel.
type SignalSelector struct{}

// NewSignalSelector creates a selector driven by the external signal panel.
func NewSignalSelector() *SignalSelector { return &SignalSelector{} }

func (s *SignalSelector) Name() string { return "signal" }

func (s *SignalSelector) Select(date time.Time, prices *model.PricePanel, signals *model.SignalPanel) []Candidate {
	if signals == nil {
		return nil
	}
	cands := make([]Candidate, 0, len(prices.Symbols()))
	for _, sym := range prices.Symbols() {
		score, ok := signals.Score(sym, date)
		if !ok {
			continue
		}
		cands = append(cands, Candidate{Symbol: sym, Score: score})
	}
	return rankCandidates(cands)
}
