// Package engine contains the backtest simulation core: the portfolio
// ledger, trading-cost accounting, the day-by-day simulation loop, the
// performance analytics and the run-level batch coordinator.
package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InsufficientCapitalError signals that a sized order cannot be filled with
// the cash on hand. The engine treats it as a no-op for that candidate on
// that day; it is never fatal to a run.
type InsufficientCapitalError struct {
	Symbol    string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientCapitalError) Error() string {
	return fmt.Sprintf("insufficient capital for %s: need %s, have %s",
		e.Symbol, e.Required, e.Available)
}

// UnsupportedOperationError is raised for explicitly out-of-scope modes such
// as market-neutral long/short execution. It is always fatal and must never
// be downgraded to a warning.
type UnsupportedOperationError struct {
	Op     string
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation %q: %s", e.Op, e.Reason)
}
