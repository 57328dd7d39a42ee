package strategy

import (
	"fmt"
	"sort"
)

// InvalidConfigError reports a strategy configuration that cannot be built:
// an unregistered id or a parameter outside its valid range. It is raised at
// composition time, never mid-run.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return "invalid strategy configuration: " + e.Reason
}

func invalidConfigf(format string, args ...interface{}) *InvalidConfigError {
	return &InvalidConfigError{Reason: fmt.Sprintf(format, args...)}
}

// Params is the loosely-typed parameter bag attached to each strategy id in
// a StrategyConfig. Numeric values may arrive as float64 (JSON) or int
// (YAML/viper), so lookups normalize both.
type Params map[string]interface{}

func (p Params) float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, invalidConfigf("param %q must be numeric, got %T", key, v)
	}
}

func (p Params) int(key string, def int) (int, error) {
	f, err := p.float(key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, invalidConfigf("param %q must be an integer, got %v", key, f)
	}
	return int(f), nil
}

// SelectorBuilder constructs a Selector from its parameter bag.
type SelectorBuilder func(Params) (Selector, error)

// EntryBuilder constructs an Entry from its parameter bag.
type EntryBuilder func(Params) (Entry, error)

// ExitBuilder constructs an Exit from its parameter bag.
type ExitBuilder func(Params) (Exit, error)

var (
	selectorBuilders = map[string]SelectorBuilder{}
	entryBuilders    = map[string]EntryBuilder{}
	exitBuilders     = map[string]ExitBuilder{}
)

// RegisterSelector adds a selector builder under the given id, replacing any
// previous registration.
func RegisterSelector(id string, b SelectorBuilder) { selectorBuilders[id] = b }

// RegisterEntry adds an entry builder under the given id.
func RegisterEntry(id string, b EntryBuilder) { entryBuilders[id] = b }

// RegisterExit adds an exit builder under the given id.
func RegisterExit(id string, b ExitBuilder) { exitBuilders[id] = b }

// Selectors returns the registered selector ids, sorted.
func Selectors() []string { return sortedKeysSel(selectorBuilders) }

// Entries returns the registered entry ids, sorted.
func Entries() []string { return sortedKeysEntry(entryBuilders) }

// Exits returns the registered exit ids, sorted.
func Exits() []string { return sortedKeysExit(exitBuilders) }

func sortedKeysSel(m map[string]SelectorBuilder) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysEntry(m map[string]EntryBuilder) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeysExit(m map[string]ExitBuilder) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NewSelector builds the selector registered under id.
func NewSelector(id string, params Params) (Selector, error) {
	b, ok := selectorBuilders[id]
	if !ok {
		return nil, invalidConfigf("unknown selector id: %q", id)
	}
	return b(params)
}

// NewEntry builds the entry strategy registered under id.
func NewEntry(id string, params Params) (Entry, error) {
	b, ok := entryBuilders[id]
	if !ok {
		return nil, invalidConfigf("unknown entry id: %q", id)
	}
	return b(params)
}

// NewExit builds the exit strategy registered under id.
func NewExit(id string, params Params) (Exit, error) {
	b, ok := exitBuilders[id]
	if !ok {
		return nil, invalidConfigf("unknown exit id: %q", id)
	}
	return b(params)
}

func init() {
	RegisterSelector("momentum", func(p Params) (Selector, error) {
		lookback, err := p.int("lookback", 20)
		if err != nil {
			return nil, err
		}
		if lookback < 1 {
			return nil, invalidConfigf("momentum lookback must be positive, got %d", lookback)
		}
		return NewMomentumSelector(lookback), nil
	})
	RegisterSelector("reversal", func(p Params) (Selector, error) {
		lookback, err := p.int("lookback", 20)
		if err != nil {
			return nil, err
		}
		if lookback < 2 {
			return nil, invalidConfigf("reversal lookback must be at least 2, got %d", lookback)
		}
		return NewReversalSelector(lookback), nil
	})
	RegisterSelector("ml_rank", func(p Params) (Selector, error) {
		lookback, err := p.int("lookback", 20)
		if err != nil {
			return nil, err
		}
		momW, err := p.float("momentum_weight", 0.5)
		if err != nil {
			return nil, err
		}
		revW, err := p.float("reversal_weight", 0.3)
		if err != nil {
			return nil, err
		}
		volW, err := p.float("volatility_weight", 0.2)
		if err != nil {
			return nil, err
		}
		if lookback < 2 {
			return nil, invalidConfigf("ml_rank lookback must be at least 2, got %d", lookback)
		}
		return NewMLRankSelector(lookback, momW, revW, volW), nil
	})
	RegisterSelector("signal", func(Params) (Selector, error) {
		return NewSignalSelector(), nil
	})

	RegisterEntry("immediate", func(Params) (Entry, error) {
		return NewImmediateEntry(), nil
	})
	RegisterEntry("ma_breakout", func(p Params) (Entry, error) {
		period, err := p.int("period", 20)
		if err != nil {
			return nil, err
		}
		if period < 1 {
			return nil, invalidConfigf("ma_breakout period must be positive, got %d", period)
		}
		return NewMABreakoutEntry(period), nil
	})
	RegisterEntry("rsi_rebound", func(p Params) (Entry, error) {
		period, err := p.int("period", 14)
		if err != nil {
			return nil, err
		}
		threshold, err := p.float("threshold", 30)
		if err != nil {
			return nil, err
		}
		if period < 1 {
			return nil, invalidConfigf("rsi_rebound period must be positive, got %d", period)
		}
		if threshold <= 0 || threshold >= 100 {
			return nil, invalidConfigf("rsi_rebound threshold must be in (0,100), got %v", threshold)
		}
		return NewRSIReboundEntry(period, threshold), nil
	})

	RegisterExit("fixed_period", func(p Params) (Exit, error) {
		days, err := p.int("days", 10)
		if err != nil {
			return nil, err
		}
		if days < 1 {
			return nil, invalidConfigf("fixed_period days must be positive, got %d", days)
		}
		return NewFixedPeriodExit(days), nil
	})
	RegisterExit("stop_loss", func(p Params) (Exit, error) {
		pct, err := p.float("stop_loss_pct", 0.05)
		if err != nil {
			return nil, err
		}
		if pct <= 0 || pct >= 1 {
			return nil, invalidConfigf("stop_loss_pct must be in (0,1), got %v", pct)
		}
		return NewStopLossExit(pct), nil
	})
	RegisterExit("atr_stop", func(p Params) (Exit, error) {
		period, err := p.int("period", 14)
		if err != nil {
			return nil, err
		}
		k, err := p.float("multiplier", 2.0)
		if err != nil {
			return nil, err
		}
		if period < 1 {
			return nil, invalidConfigf("atr_stop period must be positive, got %d", period)
		}
		if k <= 0 {
			return nil, invalidConfigf("atr_stop multiplier must be positive, got %v", k)
		}
		return NewATRStopExit(period, k), nil
	})
	RegisterExit("trend_exit", func(p Params) (Exit, error) {
		fast, err := p.int("fast_period", 5)
		if err != nil {
			return nil, err
		}
		slow, err := p.int("slow_period", 20)
		if err != nil {
			return nil, err
		}
		if fast < 1 || slow <= fast {
			return nil, invalidConfigf("trend_exit needs 0 < fast_period < slow_period, got %d/%d", fast, slow)
		}
		return NewTrendExit(fast, slow), nil
	})
}
