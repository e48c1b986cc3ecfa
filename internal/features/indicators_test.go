package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/internal/contracts"
)

func barsFromCloses(closes []float64) []contracts.Bar {
	bars := make([]contracts.Bar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.Bar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1_000_000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4, 5}, 3)

	assert.False(t, out[0].Valid)
	assert.False(t, out[1].Valid)
	assert.Equal(t, contracts.F(2), out[2])
	assert.Equal(t, contracts.F(3), out[3])
	assert.Equal(t, contracts.F(4), out[4])
}

func TestSMAInvalidPeriod(t *testing.T) {
	out := SMA([]float64{1, 2, 3}, 0)
	for _, v := range out {
		assert.False(t, v.Valid)
	}
}

func TestEMA(t *testing.T) {
	// span 3 gives alpha 0.5, seeded by the first value.
	out := EMA([]float64{2, 4, 6}, 3)

	require.Len(t, out, 3)
	assert.Equal(t, contracts.F(2), out[0])
	assert.Equal(t, contracts.F(3), out[1])
	assert.Equal(t, contracts.F(4.5), out[2])
}

func TestRSI(t *testing.T) {
	// Alternating +1/-1 moves give equal gains and losses.
	out := RSI([]float64{10, 11, 10, 11, 10}, 2)

	assert.False(t, out[0].Valid)
	assert.False(t, out[1].Valid)
	for i := 2; i < len(out); i++ {
		require.True(t, out[i].Valid, "index %d", i)
		assert.InDelta(t, 50.0, out[i].Val, 1e-9)
	}
}

func TestRSIAllGains(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, 14)

	assert.False(t, out[13].Valid)
	require.True(t, out[14].Valid)
	assert.Equal(t, 100.0, out[14].Val)
	assert.Equal(t, 100.0, out[19].Val)
}

func TestRSIFlatSeriesUndefined(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	for _, v := range RSI(closes, 14) {
		assert.False(t, v.Valid)
	}
}

func TestTrueRange(t *testing.T) {
	bars := []contracts.Bar{
		{High: 105, Low: 100, Close: 102},
		{High: 104, Low: 101, Close: 103}, // hl=3, hc=2, lc=1
		{High: 112, Low: 108, Close: 110}, // gap up: hl=4, hc=9, lc=5
	}
	tr := TrueRange(bars)

	assert.Equal(t, []float64{5, 3, 9}, tr)
}

func TestATR(t *testing.T) {
	bars := []contracts.Bar{
		{High: 105, Low: 100, Close: 102},
		{High: 104, Low: 101, Close: 103},
		{High: 106, Low: 102, Close: 105},
	}
	out := ATR(bars, 3)

	assert.False(t, out[1].Valid)
	require.True(t, out[2].Valid)
	// TR = 5, 3, 4
	assert.InDelta(t, 4.0, out[2].Val, 1e-9)
}

func TestBollingerBands(t *testing.T) {
	upper, middle, lower := BollingerBands([]float64{1, 2, 3}, 3, 2)

	assert.False(t, middle[1].Valid)
	require.True(t, middle[2].Valid)
	assert.InDelta(t, 2.0, middle[2].Val, 1e-9)
	// Sample std of {1,2,3} is 1.
	assert.InDelta(t, 4.0, upper[2].Val, 1e-9)
	assert.InDelta(t, 0.0, lower[2].Val, 1e-9)
}

func TestMACDFlatSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	line, signal, hist := MACD(closes, 12, 26, 9)

	last := len(closes) - 1
	require.True(t, line[last].Valid)
	assert.InDelta(t, 0.0, line[last].Val, 1e-9)
	assert.InDelta(t, 0.0, signal[last].Val, 1e-9)
	assert.InDelta(t, 0.0, hist[last].Val, 1e-9)
}

func TestADXTrendingSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := ADX(barsFromCloses(closes), 14)

	last := out[len(out)-1]
	require.True(t, last.Valid)
	// A one-directional series drives the directional index toward 100.
	assert.Greater(t, last.Val, 25.0)
	assert.LessOrEqual(t, last.Val, 100.0)
}

func TestADXFlatSeriesUndefined(t *testing.T) {
	bars := make([]contracts.Bar, 60)
	for i := range bars {
		bars[i] = contracts.Bar{High: 100, Low: 100, Close: 100}
	}
	for _, v := range ADX(bars, 14) {
		assert.False(t, v.Valid)
	}
}

func TestOBV(t *testing.T) {
	bars := []contracts.Bar{
		{Close: 100, Volume: 10},
		{Close: 101, Volume: 20}, // up: +20
		{Close: 100, Volume: 5},  // down: -5
		{Close: 100, Volume: 7},  // flat: unchanged
	}
	out := OBV(bars)

	assert.False(t, out[0].Valid)
	assert.Equal(t, contracts.F(20), out[1])
	assert.Equal(t, contracts.F(15), out[2])
	assert.Equal(t, contracts.F(15), out[3])
}
