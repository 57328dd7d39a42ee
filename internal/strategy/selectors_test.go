package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

func trendPanel(t *testing.T) *model.PricePanel {
	t.Helper()
	var bars []model.Bar
	for i := 0; i < 6; i++ {
		// riser gains 10% a day, faller loses, drifter is flat
		bars = append(bars,
			closeBar("riser", i, 10*pow(1.1, i)),
			closeBar("faller", i, 10*pow(0.9, i)),
			closeBar("drifter", i, 10),
		)
	}
	return mustPanel(t, bars)
}

func pow(base float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= base
	}
	return out
}

func TestMomentumSelectorRanksWinnersFirst(t *testing.T) {
	panel := trendPanel(t)
	sel := NewMomentumSelector(5)

	cands := sel.Select(testDay(5), panel, nil)
	assert.Len(t, cands, 3)
	assert.Equal(t, "riser", cands[0].Symbol)
	assert.Equal(t, "drifter", cands[1].Symbol)
	assert.Equal(t, "faller", cands[2].Symbol)
	assert.Greater(t, cands[0].Score, cands[2].Score)
}

func TestMomentumSelectorSkipsShortHistory(t *testing.T) {
	panel := trendPanel(t)
	sel := NewMomentumSelector(20)

	// nobody has 20 days of history; valid subset is empty, not an error
	cands := sel.Select(testDay(5), panel, nil)
	assert.Empty(t, cands)
}

func TestReversalSelectorPrefersOversold(t *testing.T) {
	var bars []model.Bar
	for i := 0; i < 5; i++ {
		bars = append(bars, closeBar("steady", i, 10))
		bars = append(bars, closeBar("dipped", i, 10))
	}
	// dipped closes well below its mean on the last day
	bars[len(bars)-1] = closeBar("dipped", 4, 7)
	panel := mustPanel(t, bars)

	sel := NewReversalSelector(5)
	cands := sel.Select(testDay(4), panel, nil)

	// steady has zero variance and is excluded; dipped ranks
	assert.Len(t, cands, 1)
	assert.Equal(t, "dipped", cands[0].Symbol)
	assert.Greater(t, cands[0].Score, 0.0)
}

func TestMLRankSelectorBlendsFactors(t *testing.T) {
	panel := trendPanel(t)

	// drifter has zero close variance and cannot be z-scored, so two symbols
	// survive; pure momentum weighting orders like the momentum selector.
	sel := NewMLRankSelector(4, 1, 0, 0)
	cands := sel.Select(testDay(5), panel, nil)
	assert.Len(t, cands, 2)
	assert.Equal(t, "riser", cands[0].Symbol)

	// pure reversal weighting flips the ranking
	sel = NewMLRankSelector(4, 0, 1, 0)
	cands = sel.Select(testDay(5), panel, nil)
	assert.Len(t, cands, 2)
	assert.Equal(t, "faller", cands[0].Symbol)
}

func TestSignalSelectorUsesExternalScores(t *testing.T) {
	panel := trendPanel(t)
	signals, err := model.NewSignalPanel([]model.SignalCell{
		{Symbol: "faller", Score: 9, Timestamp: testDay(5)},
		{Symbol: "riser", Score: 1, Timestamp: testDay(5)},
	})
	assert.NoError(t, err)

	sel := NewSignalSelector()
	cands := sel.Select(testDay(5), panel, signals)

	// drifter has no score and is excluded; external ranking wins
	assert.Len(t, cands, 2)
	assert.Equal(t, "faller", cands[0].Symbol)
	assert.Equal(t, "riser", cands[1].Symbol)

	assert.Empty(t, sel.Select(testDay(5), panel, nil))
}
