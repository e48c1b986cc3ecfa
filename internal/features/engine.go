package features

import (
	"context"
	"sync"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

// Fixed indicator windows used across the pipeline.
const (
	smaShort  = 20
	smaMid    = 50
	smaLong   = 200
	emaFast   = 9
	emaSlow   = 21
	rsiPeriod = 14
	atrPeriod = 14
	adxPeriod = 14
	bbPeriod  = 20
	bbStd     = 2.0
	macdFast  = 12
	macdSlow  = 26
	macdSig   = 9
	volSMA    = 20
)

// Compute derives one FeatureRow per input bar for a single symbol.
// The row at index i depends only on bars [0..i]; truncating the input
// never changes values already computed for earlier dates.
func Compute(symbol string, bars []contracts.Bar) []contracts.FeatureRow {
	n := len(bars)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	sma20 := SMA(closes, smaShort)
	sma50 := SMA(closes, smaMid)
	sma200 := SMA(closes, smaLong)
	ema9 := EMA(closes, emaFast)
	ema21 := EMA(closes, emaSlow)
	rsi := RSI(closes, rsiPeriod)
	atr := ATR(bars, atrPeriod)
	bbUpper, bbMiddle, bbLower := BollingerBands(closes, bbPeriod, bbStd)
	macd, macdSignal, macdHist := MACD(closes, macdFast, macdSlow, macdSig)
	adx := ADX(bars, adxPeriod)
	obv := OBV(bars)
	volSMA20 := SMA(volumes, volSMA)

	rows := make([]contracts.FeatureRow, n)
	for i, b := range bars {
		rows[i] = contracts.FeatureRow{
			Symbol: symbol,
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,

			SMA20:  sma20[i],
			SMA50:  sma50[i],
			SMA200: sma200[i],
			EMA9:   ema9[i],
			EMA21:  ema21[i],

			RSI14: rsi[i],

			ATR14:    atr[i],
			BBUpper:  bbUpper[i],
			BBMiddle: bbMiddle[i],
			BBLower:  bbLower[i],

			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			MACDHist:   macdHist[i],
			ADX14:      adx[i],

			OBV:         obv[i],
			VolumeSMA20: volSMA20[i],
		}
	}
	return rows
}

// Latest returns the most recent FeatureRow for a symbol, or false when
// the series is empty.
func Latest(symbol string, bars []contracts.Bar) (contracts.FeatureRow, bool) {
	rows := Compute(symbol, bars)
	if len(rows) == 0 {
		return contracts.FeatureRow{}, false
	}
	return rows[len(rows)-1], true
}

// Engine fans feature computation out over a bounded worker pool.
// Per-symbol computation shares no mutable state, so symbols are
// processed concurrently; results are merged back in input order to
// keep output independent of completion order.
type Engine struct {
	workers int
	logger  *logger.Logger
}

// NewEngine creates a feature engine with the given worker count.
func NewEngine(workers int, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{workers: workers, logger: log}
}

// LatestAll computes the latest FeatureRow for every symbol in order.
// Symbols with empty series produce no row and are skipped.
func (e *Engine) LatestAll(ctx context.Context, symbols []string, data map[string][]contracts.Bar) []contracts.FeatureRow {
	results := make([]*contracts.FeatureRow, len(symbols))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				symbol := symbols[i]
				if row, ok := Latest(symbol, data[symbol]); ok {
					results[i] = &row
				}
			}
		}()
	}

	for i := range symbols {
		select {
		case <-ctx.Done():
			// Stop feeding; workers drain and exit.
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	rows := make([]contracts.FeatureRow, 0, len(symbols))
	for i, r := range results {
		if r == nil {
			e.logger.WithField("symbol", symbols[i]).Debug("No feature row computed")
			continue
		}
		rows = append(rows, *r)
	}
	return rows
}
