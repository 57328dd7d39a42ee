package strategy

import (
	"time"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// Composer binds one selector, one entry and one exit strategy plus the
// rebalance frequency into a single executable strategy. It is pure
// configuration: the only behavior it adds is the rebalance calendar.
type Composer struct {
	Selector Selector
	Entry    Entry
	Exit     Exit

	freq model.RebalanceFreq
}

// NewComposer resolves the ids in cfg against the registries and fails fast
// with InvalidConfigError when any of them is unknown or mis-parameterized.
func NewComposer(cfg model.StrategyConfig) (*Composer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &InvalidConfigError{Reason: err.Error()}
	}

	sel, err := NewSelector(cfg.SelectorID, Params(cfg.SelectorParams))
	if err != nil {
		return nil, err
	}
	entry, err := NewEntry(cfg.EntryID, Params(cfg.EntryParams))
	if err != nil {
		return nil, err
	}

	exitParams := Params(cfg.ExitParams)
	// max_single_loss_pct is an advisory trigger consumed by the exit layer:
	// it becomes the stop-loss default when no explicit threshold is given.
	if cfg.ExitID == "stop_loss" && cfg.MaxSingleLossPct > 0 {
		if _, ok := exitParams["stop_loss_pct"]; !ok {
			merged := Params{}
			for k, v := range exitParams {
				merged[k] = v
			}
			merged["stop_loss_pct"] = cfg.MaxSingleLossPct
			exitParams = merged
		}
	}
	exit, err := NewExit(cfg.ExitID, exitParams)
	if err != nil {
		return nil, err
	}

	return &Composer{
		Selector: sel,
		Entry:    entry,
		Exit:     exit,
		freq:     cfg.RebalanceFreq,
	}, nil
}

// RebalanceDue reports whether selection should re-run on current, given the
// date of the previous rebalance. The first trading day is always due.
func (c *Composer) RebalanceDue(current, last time.Time) bool {
	if last.IsZero() {
		return true
	}
	switch c.freq {
	case model.RebalanceDaily:
		return true
	case model.RebalanceWeekly:
		cy, cw := current.ISOWeek()
		ly, lw := last.ISOWeek()
		return cy != ly || cw != lw
	case model.RebalanceMonthly:
		return current.Year() != last.Year() || current.Month() != last.Month()
	default:
		return false
	}
}

// NextRebalanceDate returns the first calendar date strictly after date on
// which a rebalance can occur. For weekly and monthly cadences this is the
// start of the next period; actual execution lands on the first trading day
// at or after it.
func (c *Composer) NextRebalanceDate(date time.Time) time.Time {
	d := model.Day(date)
	switch c.freq {
	case model.RebalanceDaily:
		return d.AddDate(0, 0, 1)
	case model.RebalanceWeekly:
		// advance to next Monday
		days := int(time.Monday - d.Weekday())
		if days <= 0 {
			days += 7
		}
		return d.AddDate(0, 0, days)
	case model.RebalanceMonthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	default:
		return d.AddDate(0, 0, 1)
	}
}
