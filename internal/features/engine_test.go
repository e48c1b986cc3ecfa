package features

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

func risingCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return closes
}

func TestComputeRowPerBar(t *testing.T) {
	bars := barsFromCloses(risingCloses(250, 100, 0.5))
	rows := Compute("RELIANCE", bars)

	require.Len(t, rows, 250)
	for i, row := range rows {
		assert.Equal(t, "RELIANCE", row.Symbol)
		assert.Equal(t, bars[i].Date, row.Date)
		assert.Equal(t, bars[i].Close, row.Close)
	}

	last := rows[249]
	assert.True(t, last.SMA200.Valid)
	assert.True(t, last.RSI14.Valid)
	assert.True(t, last.ATR14.Valid)
	assert.True(t, last.MACDHist.Valid)

	// 199 bars is one short of the 200 SMA window.
	assert.False(t, rows[198].SMA200.Valid)
	assert.True(t, rows[199].SMA200.Valid)
}

// Truncating the series must not change rows already computed for
// earlier dates.
func TestComputeNoLookAhead(t *testing.T) {
	bars := barsFromCloses(risingCloses(260, 100, 0.5))

	full := Compute("TCS", bars)
	truncated := Compute("TCS", bars[:230])

	assert.Equal(t, full[229], truncated[229])
	assert.Equal(t, full[100], truncated[100])
}

func TestLatestEmptySeries(t *testing.T) {
	_, ok := Latest("TCS", nil)
	assert.False(t, ok)
}

func TestEngineLatestAllPreservesOrder(t *testing.T) {
	data := map[string][]contracts.Bar{
		"AAA": barsFromCloses(risingCloses(60, 100, 0.5)),
		"BBB": barsFromCloses(risingCloses(60, 200, 1.0)),
		"CCC": barsFromCloses(risingCloses(60, 300, 0.25)),
	}
	symbols := []string{"CCC", "AAA", "EMPTY", "BBB"}

	e := NewEngine(8, logger.NewNop())
	rows := e.LatestAll(context.Background(), symbols, data)

	require.Len(t, rows, 3)
	assert.Equal(t, "CCC", rows[0].Symbol)
	assert.Equal(t, "AAA", rows[1].Symbol)
	assert.Equal(t, "BBB", rows[2].Symbol)
}

func TestEngineLatestAllMatchesSequential(t *testing.T) {
	data := map[string][]contracts.Bar{
		"AAA": barsFromCloses(risingCloses(120, 100, 0.5)),
		"BBB": barsFromCloses(risingCloses(120, 50, 0.2)),
	}
	symbols := []string{"AAA", "BBB"}

	parallel := NewEngine(4, logger.NewNop()).LatestAll(context.Background(), symbols, data)
	serial := NewEngine(1, logger.NewNop()).LatestAll(context.Background(), symbols, data)

	assert.Equal(t, serial, parallel)
}
