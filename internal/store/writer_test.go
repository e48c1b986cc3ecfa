package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

func sampleScores() []contracts.ScoreRecord {
	return []contracts.ScoreRecord{
		{
			Symbol:          "RELIANCE",
			TrendStrength:   0.85,
			BreakoutQuality: 0.75,
			Volatility:      0.9,
			Risk:            0.3,
			Liquidity:       0.7,
			Composite:       0.7725,
			Rank:            1,
		},
		{
			Symbol:          "TCS",
			TrendStrength:   0.6,
			BreakoutQuality: 0.5,
			Volatility:      0.8,
			Risk:            0.2,
			Liquidity:       0.6,
			Composite:       0.625,
			Rank:            2,
		},
	}
}

func TestWriteScores(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.NewNop())
	date := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, w.WriteScores(date, "nse_swing_v1", "abc123", sampleScores()))

	// JSON artifact.
	data, err := os.ReadFile(filepath.Join(dir, "2024-06-14", "stock_scores.json"))
	require.NoError(t, err)

	var doc scoresDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-06-14", doc.Date)
	assert.Equal(t, "nse_swing_v1", doc.StrategyID)
	assert.Equal(t, "abc123", doc.ConfigHash)
	require.Len(t, doc.Scores, 2)
	assert.Equal(t, "RELIANCE", doc.Scores[0].Symbol)
	assert.Equal(t, 1, doc.Scores[0].Rank)

	// Parquet artifact round-trips.
	records, readDate, err := ReadScoresParquet(filepath.Join(dir, "2024-06-14", "stock_scores.parquet"))
	require.NoError(t, err)
	assert.Equal(t, sampleScores(), records)
	assert.Equal(t, date, readDate)
}

func TestWriteRegime(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.NewNop())

	rec := contracts.RegimeRecord{
		Date:       time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		Regime:     contracts.RegimeBull,
		Confidence: 0.85,
	}
	require.NoError(t, w.WriteRegime(rec))

	data, err := os.ReadFile(filepath.Join(dir, "2024-06-14", "market_regime.json"))
	require.NoError(t, err)

	var doc regimeDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-06-14", doc.Date)
	assert.Equal(t, "BULL", doc.Regime)
	assert.Equal(t, 0.85, doc.Confidence)
}

func TestWriteBacktest(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, logger.NewNop())

	entry := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	result := &contracts.BacktestResult{
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC),
		InitialCapital: 1_000_000,
		FinalCapital:   1_020_000,
		MaxRiskPct:     1.0,
		MaxPositions:   5,
		Seed:           42,
		TotalReturnPct: 2.0,
		TotalTrades:    1,
		WinningTrades:  1,
		WinRatePct:     100.0,
		Trades: []contracts.Trade{
			{
				Position: contracts.Position{
					Symbol:     "RELIANCE",
					EntryDate:  entry,
					EntryPrice: 100,
					StopLoss:   96,
					Target:     108,
					Quantity:   250,
				},
				ExitDate:   entry.AddDate(0, 0, 5),
				ExitPrice:  108,
				ExitReason: contracts.ExitTarget,
				PnL:        2000,
			},
		},
		Equity: []contracts.EquityPoint{
			{Date: entry, Equity: 1_000_000},
			{Date: entry.AddDate(0, 0, 5), Equity: 1_020_000},
		},
	}

	path, err := w.WriteBacktest(result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backtest_2024-01-01_to_2024-03-29.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc backtestDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-01-01", doc.StartDate)
	assert.Equal(t, int64(42), doc.Seed)
	require.Len(t, doc.Trades, 1)
	assert.Equal(t, "2024-01-10", doc.Trades[0].EntryDate)
	assert.Equal(t, "target", doc.Trades[0].ExitReason)
	assert.Equal(t, 2000.0, doc.Trades[0].PnL)
	require.Len(t, doc.Equity, 2)
	assert.Equal(t, 1_020_000.0, doc.Equity[1].Equity)
}
