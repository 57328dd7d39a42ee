// Package app wires the backtest engine to its process-level collaborators:
// configuration, logging, the price store and the operational HTTP listener.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sujun1972/stock-analysis-sub007/internal/config"
	"github.com/sujun1972/stock-analysis-sub007/internal/engine"
	"github.com/sujun1972/stock-analysis-sub007/internal/infrastructure"
	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// App holds the application's dependencies.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	DB         *pgxpool.Pool
	HTTPServer *http.Server
}

// BatchFile is the on-disk shape of a backtest batch: one or more strategy
// configurations plus the data window they run over.
type BatchFile struct {
	Symbols    []string               `json:"symbols"`
	Start      string                 `json:"start"` // YYYY-MM-DD
	End        string                 `json:"end"`
	SignalName string                 `json:"signal_name,omitempty"`
	Benchmark  string                 `json:"benchmark,omitempty"`
	Strategies []model.StrategyConfig `json:"strategies"`
}

// NewApp loads configuration and initializes logging.
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	infrastructure.Init(cfg.LogLevel)

	return &App{
		Config: &cfg,
		Logger: infrastructure.Logger,
	}, nil
}

// ConnectDB opens the pgx pool. Only needed when bars come from Postgres
// rather than a CSV panel.
func (a *App) ConnectDB(ctx context.Context) error {
	pool, err := pgxpool.Connect(ctx, a.Config.DB_DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = pool
	return nil
}

// LoadBatchFile parses a JSON batch description from disk.
func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	var batch BatchFile
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(batch.Strategies) == 0 {
		return nil, fmt.Errorf("batch file %s names no strategies", path)
	}
	return &batch, nil
}

// Window parses the batch's date range.
func (b *BatchFile) Window() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", b.Start)
	if err != nil {
		return start, end, fmt.Errorf("bad start date %q: %w", b.Start, err)
	}
	end, err = time.Parse("2006-01-02", b.End)
	if err != nil {
		return start, end, fmt.Errorf("bad end date %q: %w", b.End, err)
	}
	return start, end, nil
}

// LoadPanels produces the price and signal panels for a batch, either from
// the given CSV file or from Postgres.
func (a *App) LoadPanels(ctx context.Context, batch *BatchFile, csvPath string) (*model.PricePanel, *model.SignalPanel, error) {
	if csvPath != "" {
		panel, err := model.ReadPanelCSV(csvPath)
		if err != nil {
			return nil, nil, err
		}
		return panel, nil, nil
	}

	if a.DB == nil {
		if err := a.ConnectDB(ctx); err != nil {
			return nil, nil, err
		}
	}
	start, end, err := batch.Window()
	if err != nil {
		return nil, nil, err
	}
	loader := engine.NewDataLoader(a.DB)
	panel, err := loader.LoadPanel(ctx, batch.Symbols, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load price panel: %w", err)
	}
	var signals *model.SignalPanel
	if batch.SignalName != "" {
		signals, err = loader.LoadSignals(ctx, batch.SignalName, batch.Symbols, start, end)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load signal panel: %w", err)
		}
	}
	return panel, signals, nil
}

// RunBatch fans the batch's strategies out over the worker pool and reports
// each result, with performance analytics, through the logger. The raw
// results are returned for serialization by the caller.
func (a *App) RunBatch(ctx context.Context, batch *BatchFile, prices *model.PricePanel, signals *model.SignalPanel) []*model.BacktestResult {
	runner := engine.NewRunner(a.Config.Workers, prices, signals, a.Logger)
	results := runner.RunAll(ctx, batch.Strategies)

	perf := engine.NewPerformanceAnalyzer()
	var benchmark []float64
	if batch.Benchmark != "" {
		benchmark = benchmarkReturns(prices, batch.Benchmark)
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		report := perf.Analyze(res.ReturnSeries())
		if benchmark != nil && len(benchmark) == len(res.DailyReturns) {
			if withBench, err := perf.AnalyzeWithBenchmark(res.ReturnSeries(), benchmark); err == nil {
				report = withBench
			}
		}
		winRate, profitFactor := perf.TradeStats(res.Trades)

		a.Logger.Info("backtest summary",
			zap.String("strategy", res.StrategyName),
			zap.String("run_id", res.RunID),
			zap.Bool("incomplete", res.Incomplete),
			zap.Float64("total_return", report.TotalReturn),
			zap.Float64("annualized_return", report.AnnualizedReturn),
			zap.Float64("max_drawdown", report.MaxDrawdown),
			zap.Float64("sharpe", report.SharpeRatio),
			zap.Float64("sortino", report.SortinoRatio),
			zap.Float64("calmar", report.CalmarRatio),
			zap.Float64("win_rate", winRate),
			zap.Float64("profit_factor", profitFactor),
			zap.Float64("cost_drag", res.CostAnalysis.CostDrag),
			zap.Float64("annual_turnover", res.CostAnalysis.AnnualTurnoverRate),
			zap.Int("trades", res.CostAnalysis.NTrades),
		)
	}
	return results
}

// benchmarkReturns derives a daily return series from one symbol's closes
// over the full panel calendar.
func benchmarkReturns(prices *model.PricePanel, symbol string) []float64 {
	dates := prices.Dates()
	out := make([]float64, len(dates))
	var prev float64
	for i, d := range dates {
		hist := prices.History(symbol, d, 1)
		if len(hist) == 0 {
			out[i] = 0
			continue
		}
		cur := hist[0].CloseF()
		if i > 0 && prev > 0 {
			out[i] = cur/prev - 1
		}
		prev = cur
	}
	return out
}

// StartHTTP exposes /metrics and /health while a batch runs.
func (a *App) StartHTTP() {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	a.HTTPServer = &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: r,
	}

	go func() {
		a.Logger.Info("starting http server", zap.String("port", a.Config.Port))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("http server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops the HTTP listener and closes the database pool.
func (a *App) Shutdown() {
	if a.HTTPServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Warn("http shutdown failed", zap.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// WriteResults serializes the batch results to a JSON file.
func WriteResults(path string, results []*model.BacktestResult) error {
	out := make([]*model.BacktestResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
