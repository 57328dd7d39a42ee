package engine

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

// DataLoader is the Postgres-backed price provider: it reads daily bars and
// precomputed signal scores into the read-only panels the engine consumes.
type DataLoader struct {
	pool *pgxpool.Pool
}

// NewDataLoader wraps a pgx connection pool.
func NewDataLoader(pool *pgxpool.Pool) *DataLoader {
	return &DataLoader{pool: pool}
}

// LoadPanel reads daily bars for the given symbols and date range and builds
// a PricePanel. An empty symbols slice loads the whole universe.
func (l *DataLoader) LoadPanel(ctx context.Context, symbols []string, start, end time.Time) (*model.PricePanel, error) {
	const q = `
		SELECT time, symbol, open, high, low, close, volume
		FROM daily_bars
		WHERE time >= $1 AND time <= $2
		  AND (cardinality($3::text[]) = 0 OR symbol = ANY($3))
		ORDER BY time ASC, symbol ASC`

	rows, err := l.pool.Query(ctx, q, start, end, symbols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Timestamp, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return model.NewPricePanel(bars)
}

// LoadSignals reads the named precomputed signal for the given symbols and
// date range into a SignalPanel. Returns nil when no rows match, which the
// engine treats as "no external signals".
func (l *DataLoader) LoadSignals(ctx context.Context, name string, symbols []string, start, end time.Time) (*model.SignalPanel, error) {
	const q = `
		SELECT time, symbol, score
		FROM signal_scores
		WHERE name = $1 AND time >= $2 AND time <= $3
		  AND (cardinality($4::text[]) = 0 OR symbol = ANY($4))
		ORDER BY time ASC, symbol ASC`

	rows, err := l.pool.Query(ctx, q, name, start, end, symbols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []model.SignalCell
	for rows.Next() {
		var c model.SignalCell
		if err := rows.Scan(&c.Timestamp, &c.Symbol, &c.Score); err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return nil, nil
	}
	return model.NewSignalPanel(cells)
}
