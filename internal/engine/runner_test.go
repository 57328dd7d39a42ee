package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujun1972/stock-analysis-sub007/internal/model"
)

func batchConfigs(n int) []model.StrategyConfig {
	configs := make([]model.StrategyConfig, n)
	for i := range configs {
		cfg := frictionlessConfig()
		cfg.Name = fmt.Sprintf("variant-%02d", i)
		cfg.SelectorParams = map[string]interface{}{"lookback": i + 1}
		configs[i] = cfg
	}
	return configs
}

func TestRunnerParallelMatchesSerial(t *testing.T) {
	panel := newPanel(t, []model.Bar{
		bar("aaa", 0, 10), bar("bbb", 0, 20),
		bar("aaa", 1, 11), bar("bbb", 1, 19),
		bar("aaa", 2, 12), bar("bbb", 2, 21),
		bar("aaa", 3, 11), bar("bbb", 3, 22),
		bar("aaa", 4, 13), bar("bbb", 4, 20),
	})
	configs := batchConfigs(6)

	serial := NewRunner(1, panel, nil, nil).RunAll(context.Background(), configs)
	parallel := NewRunner(4, panel, nil, nil).RunAll(context.Background(), configs)

	require.Len(t, parallel, len(configs))
	for i := range configs {
		require.NotNil(t, serial[i])
		require.NotNil(t, parallel[i])
		// results land in input order and are independent of worker count
		assert.Equal(t, configs[i].Name, parallel[i].StrategyName)
		assert.Equal(t, serial[i].Trades, parallel[i].Trades)
		assert.Equal(t, serial[i].PortfolioValue, parallel[i].PortfolioValue)
	}
}

func TestRunnerBadConfigDoesNotSinkBatch(t *testing.T) {
	panel := flatPanel(t, 4, 10)
	configs := batchConfigs(3)
	configs[1].SelectorID = "astrology"

	results := NewRunner(2, panel, nil, nil).RunAll(context.Background(), configs)

	require.NotNil(t, results[1])
	assert.True(t, results[1].Incomplete)
	assert.Contains(t, results[1].Err, "astrology")
	assert.False(t, results[0].Incomplete)
	assert.False(t, results[2].Incomplete)
}

func TestRunnerCancelledContextDispatchesNothing(t *testing.T) {
	panel := flatPanel(t, 4, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewRunner(2, panel, nil, nil).RunAll(ctx, batchConfigs(3))

	require.Len(t, results, 3)
	for _, res := range results {
		assert.Nil(t, res)
	}
}

func TestRunnerEmptyBatch(t *testing.T) {
	panel := flatPanel(t, 4, 10)
	results := NewRunner(2, panel, nil, nil).RunAll(context.Background(), nil)
	assert.Empty(t, results)
}
