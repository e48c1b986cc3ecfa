package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/internal/marketdata"
	"github.com/wonny/trishul/internal/store"
	"github.com/wonny/trishul/internal/strategyconfig"
	"github.com/wonny/trishul/internal/universe"
	"github.com/wonny/trishul/pkg/logger"
)

func testStrategy() *strategyconfig.Config {
	return &strategyconfig.Config{
		Meta:     strategyconfig.Meta{StrategyID: "test_v1", Version: "1.0.0"},
		Universe: strategyconfig.Universe{IndexSymbol: "NIFTY50", MinHistoryBars: 50},
		Backtest: strategyconfig.Backtest{InitialCapital: 1_000_000, MaxRiskPct: 1, MaxPositions: 5, RandomSeed: 42},
		Entry:    strategyconfig.Entry{MinTrendStrength: 0.6, MinBreakoutQuality: 0.5, MinLiquidity: 0.4, MaxRisk: 0.5, LookbackBars: 250},
		Exit:     strategyconfig.Exit{StopATRMultiple: 2, RewardRiskMultiple: 2},
		Ranking:  strategyconfig.Ranking{TopN: 20},
	}
}

// writeSeries writes n rising daily bars for a symbol.
func writeSeries(t *testing.T, dir, symbol string, n int, startPrice float64) {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("date,open,high,low,close,volume\n")
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	price := startPrice
	for i := 0; i < n; {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			fmt.Fprintf(&sb, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
				day.Format("2006-01-02"), price, price+1, price-1, price+0.5, 1_000_000+int64(i)*1000)
			price += 0.5
			i++
		}
		day = day.AddDate(0, 0, 1)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, symbol+".csv"), []byte(sb.String()), 0o644))
}

func TestRunWritesOutputs(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()

	writeSeries(t, dataDir, "NIFTY50", 260, 100)
	writeSeries(t, dataDir, "RELIANCE", 260, 200)
	writeSeries(t, dataDir, "TCS", 260, 300)

	p := New(Options{
		Strategy:   testStrategy(),
		ConfigHash: "deadbeef",
		Universe:   universe.New([]string{"RELIANCE", "TCS", "MISSING"}, "NIFTY50"),
		Bars:       marketdata.NewStore(dataDir, logger.NewNop()),
		Writer:     store.NewWriter(outDir, logger.NewNop()),
		Workers:    2,
		Logger:     logger.NewNop(),
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	// Only symbols with data are scored.
	assert.Equal(t, 3, result.Universe)
	assert.Equal(t, 2, result.Scored)
	require.Len(t, result.Scores, 2)
	assert.Equal(t, 1, result.Scores[0].Rank)
	assert.Equal(t, 2, result.Scores[1].Rank)

	dateDir := filepath.Join(outDir, result.Date.Format("2006-01-02"))
	for _, name := range []string{"stock_scores.json", "stock_scores.parquet", "market_regime.json"} {
		_, err := os.Stat(filepath.Join(dateDir, name))
		assert.NoError(t, err, name)
	}

	// The regime came from the full index history.
	data, err := os.ReadFile(filepath.Join(dateDir, "market_regime.json"))
	require.NoError(t, err)
	var doc struct {
		Date   string `json:"date"`
		Regime string `json:"regime"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, result.Date.Format("2006-01-02"), doc.Date)
	assert.Equal(t, "BULL", doc.Regime)
}

func TestRunTruncatesToTopN(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()

	strategy := testStrategy()
	strategy.Ranking.TopN = 1

	writeSeries(t, dataDir, "NIFTY50", 260, 100)
	writeSeries(t, dataDir, "RELIANCE", 260, 200)
	writeSeries(t, dataDir, "TCS", 260, 300)

	p := New(Options{
		Strategy:   strategy,
		ConfigHash: "deadbeef",
		Universe:   universe.New([]string{"RELIANCE", "TCS"}, "NIFTY50"),
		Bars:       marketdata.NewStore(dataDir, logger.NewNop()),
		Writer:     store.NewWriter(outDir, logger.NewNop()),
		Workers:    1,
		Logger:     logger.NewNop(),
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Scores, 1)
}

func TestRunFailsWithoutData(t *testing.T) {
	p := New(Options{
		Strategy:   testStrategy(),
		ConfigHash: "deadbeef",
		Universe:   universe.New([]string{"RELIANCE"}, "NIFTY50"),
		Bars:       marketdata.NewStore(t.TempDir(), logger.NewNop()),
		Writer:     store.NewWriter(t.TempDir(), logger.NewNop()),
		Workers:    1,
		Logger:     logger.NewNop(),
	})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no market data")
}
