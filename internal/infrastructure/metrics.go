package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtest_runs_started_total",
		Help: "Total number of backtest runs dispatched",
	})

	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtest_runs_completed_total",
		Help: "Total number of backtest runs finished, by outcome",
	}, []string{"status"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "backtest_run_duration_seconds",
		Help:    "Wall-clock duration of a single backtest run",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	TradesSimulated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backtest_trades_simulated_total",
		Help: "Total number of simulated trades recorded",
	}, []string{"side"})

	InsufficientCapitalSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backtest_insufficient_capital_skips_total",
		Help: "Buy orders skipped because cash could not cover the fill",
	})
)
