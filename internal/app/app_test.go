package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

func TestLoadBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	content := `{
		"symbols": ["600519", "000001"],
		"start": "2024-01-02",
		"end": "2024-06-28",
		"benchmark": "000300",
		"strategies": [
			{
				"name": "momentum-top3",
				"selector_id": "momentum",
				"selector_params": {"lookback": 20},
				"entry_id": "immediate",
				"exit_id": "stop_loss",
				"top_n": 3,
				"initial_capital": "1000000",
				"commission_rate": "0.0003",
				"stamp_tax_rate": "0.001",
				"min_commission": "5"
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	batch, err := LoadBatchFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"600519", "000001"}, batch.Symbols)
	assert.Equal(t, "000300", batch.Benchmark)

	require.Len(t, batch.Strategies, 1)
	cfg := batch.Strategies[0]
	assert.Equal(t, "momentum-top3", cfg.Name)
	// decimal fields arrive as exact strings, not floats
	assert.Equal(t, "1000000", cfg.InitialCapital.String())
	assert.Equal(t, "0.0003", cfg.CommissionRate.String())

	start, end, err := batch.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), end)
}

func TestLoadBatchFileErrors(t *testing.T) {
	_, err := LoadBatchFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"strategies": []}`), 0o644))
	_, err = LoadBatchFile(empty)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o644))
	_, err = LoadBatchFile(bad)
	assert.Error(t, err)
}

func TestBatchFileWindowErrors(t *testing.T) {
	b := &BatchFile{Start: "02/01/2024", End: "2024-06-28"}
	_, _, err := b.Window()
	assert.Error(t, err)

	b = &BatchFile{Start: "2024-01-02", End: "late june"}
	_, _, err = b.Window()
	assert.Error(t, err)
}

func TestWriteResultsSkipsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	results := []*model.BacktestResult{
		{RunID: "r1", StrategyName: "a"},
		nil,
		{RunID: "r2", StrategyName: "b", Incomplete: true, Err: "boom"},
	}
	require.NoError(t, WriteResults(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []model.BacktestResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "r1", decoded[0].RunID)
	assert.True(t, decoded[1].Incomplete)
}
