// Package strategy implements the three-layer strategy composition model:
// stock selection, entry timing and exit management. Each layer is a small
// interface with a string-keyed registry, so a strategy is assembled from
// configuration ids rather than inheritance.
package strategy

import (
	"time"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// Candidate is one ranked selection result.
type Candidate struct {
	Symbol string
	Score  float64
}

// Selector ranks the universe on rebalance dates. Implementations return
// candidates ordered best-first; symbols without a valid score on the given
// date are simply left out, never reported as errors.
type Selector interface {
	Name() string
	Select(date time.Time, prices *model.PricePanel, signals *model.SignalPanel) []Candidate
}

// Entry decides, daily, whether a selected-but-unheld candidate should be
// opened today. Implementations hold no side effects beyond internal state;
// placing the order is the engine's job.
type Entry interface {
	Name() string
	ShouldEnter(symbol string, date time.Time, prices *model.PricePanel) bool
}

// Exit decides, daily, whether an open position should be closed today. The
// engine never calls it before the minimum holding period has elapsed.
type Exit interface {
	Name() string
	ShouldExit(pos *model.Position, date time.Time, prices *model.PricePanel) bool
}
