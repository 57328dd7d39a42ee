package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sujun1972/stock-analysis-sub007/internal/infrastructure"
	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// Runner fans independent backtest configurations out over a worker pool and
// fans their results back in. Workers share only the read-only panels; every
// run constructs its own ledger, cost analyzer and strategy instances, so no
// locking is needed inside a run.
type Runner struct {
	workers int
	prices  *model.PricePanel
	signals *model.SignalPanel
	logger  *zap.Logger
}

// NewRunner creates a batch coordinator over the given read-only panels.
func NewRunner(workers int, prices *model.PricePanel, signals *model.SignalPanel, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{workers: workers, prices: prices, signals: signals, logger: logger}
}

// RunAll executes every configuration and returns results in input order.
// Cancellation is coarse-grained: once ctx is done no further configurations
// are dispatched, but runs already in flight complete; their slots hold
// finished results, undispatched slots stay nil.
func (r *Runner) RunAll(ctx context.Context, configs []model.StrategyConfig) []*model.BacktestResult {
	jobs := make(chan int)
	results := make([]*model.BacktestResult, len(configs))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = r.runOne(id, configs[idx])
			}
		}(w)
	}

	for i := range configs {
		if ctx.Err() != nil {
			r.logger.Warn("batch cancelled, skipping remaining runs",
				zap.Int("dispatched", i), zap.Int("total", len(configs)))
			break
		}
		jobs <- i
		infrastructure.RunsStarted.Inc()
	}
	close(jobs)
	wg.Wait()

	return results
}

// runOne executes a single configuration and converts every failure mode
// into a result object, so one bad configuration never sinks the batch.
func (r *Runner) runOne(worker int, cfg model.StrategyConfig) *model.BacktestResult {
	start := time.Now()

	bt, err := NewBacktester(cfg, r.prices, r.signals, r.logger)
	if err != nil {
		r.logger.Error("backtest setup failed",
			zap.Int("worker", worker),
			zap.String("strategy", cfg.Name),
			zap.Error(err),
		)
		infrastructure.RunsCompleted.WithLabelValues("setup_error").Inc()
		return &model.BacktestResult{
			StrategyName: cfg.Name,
			Config:       cfg,
			Incomplete:   true,
			Err:          err.Error(),
		}
	}

	result, err := bt.Run()
	infrastructure.RunDuration.Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "incomplete"
		r.logger.Error("backtest run failed mid-loop",
			zap.Int("worker", worker),
			zap.String("strategy", cfg.Name),
			zap.Error(err),
		)
	}
	infrastructure.RunsCompleted.WithLabelValues(status).Inc()
	for i := range result.Trades {
		infrastructure.TradesSimulated.WithLabelValues(string(result.Trades[i].Side)).Inc()
	}

	r.logger.Info("backtest run finished",
		zap.Int("worker", worker),
		zap.String("strategy", cfg.Name),
		zap.String("run_id", result.RunID),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("final_value", result.FinalValue()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}
