// Package regime classifies the market state of the reference index
// into BULL, SIDEWAYS or BEAR using a weighted-factor vote over
// technical indicators.
package regime

import (
	"math"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/internal/features"
	"github.com/wonny/trishul/pkg/logger"
)

// minHistory is the bar count below which no regime is computed and
// the detector falls back to SIDEWAYS with confidence 0.5.
const minHistory = 200

// Factor weights. Their relative sizes decide the bull/bear vote.
const (
	weightPriceVsSMA200 = 0.25
	weightSMACross      = 0.20
	weightPriceVsEMA21  = 0.15
	weightRSIZone       = 0.15
	weightReturn20D     = 0.15
	weightADX           = 0.10
)

// Detector computes regime records from reference-index history.
type Detector struct {
	logger *logger.Logger
}

// NewDetector creates a regime detector.
func NewDetector(log *logger.Logger) *Detector {
	return &Detector{logger: log}
}

// Detect classifies the regime on the last bar of the given
// reference-index history. The record's date is that bar's date.
// Fewer than 200 bars yields the SIDEWAYS/0.5 fallback, an explicit
// default rather than a computed result.
func (d *Detector) Detect(bars []contracts.Bar) contracts.RegimeRecord {
	rec := contracts.RegimeRecord{
		Regime:     contracts.RegimeSideways,
		Confidence: 0.5,
	}
	if len(bars) > 0 {
		rec.Date = bars[len(bars)-1].Date
	}
	if len(bars) < minHistory {
		return rec
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	last := len(bars) - 1
	latestClose := closes[last]
	sma50 := features.SMA(closes, 50)[last]
	sma200 := features.SMA(closes, 200)[last]
	ema21 := features.EMA(closes, 21)[last]
	rsi := features.RSI(closes, 14)[last]
	// ADX falls back to a weak-trend reading when undefined.
	adx := features.ADX(bars, 14)[last].Or(20)

	var bullScore, bearScore float64

	// Factor 1: price vs long-term MA.
	if sma200.Valid && latestClose > sma200.Val {
		bullScore += weightPriceVsSMA200
	} else {
		bearScore += weightPriceVsSMA200
	}

	// Factor 2: 50/200 golden or death cross.
	if sma50.Valid && sma200.Valid {
		if sma50.Val > sma200.Val {
			bullScore += weightSMACross
		} else {
			bearScore += weightSMACross
		}
	}

	// Factor 3: price vs 21 EMA, the short-term trend.
	if ema21.Valid {
		if latestClose > ema21.Val {
			bullScore += weightPriceVsEMA21
		} else {
			bearScore += weightPriceVsEMA21
		}
	}

	// Factor 4: RSI zone. The 45-55 neutral band contributes nothing.
	if rsi.Valid {
		if rsi.Val > 55 {
			bullScore += weightRSIZone
		} else if rsi.Val < 45 {
			bearScore += weightRSIZone
		}
	}

	// Factor 5: 20-day price change beyond +/-2%.
	if len(bars) >= 20 {
		base := closes[len(closes)-20]
		change := (latestClose - base) / base
		if change > 0.02 {
			bullScore += weightReturn20D
		} else if change < -0.02 {
			bearScore += weightReturn20D
		}
	}

	// Factor 6: strong ADX amplifies whichever side already leads.
	if adx > 25 {
		if bullScore > bearScore {
			bullScore += weightADX
		} else if bearScore > bullScore {
			bearScore += weightADX
		}
	}

	if bullScore+bearScore == 0 {
		return rec
	}

	rec.Regime, rec.Confidence = classify(bullScore / (bullScore + bearScore))

	d.logger.WithFields(map[string]interface{}{
		"date":       rec.Date.Format("2006-01-02"),
		"regime":     rec.Regime,
		"confidence": rec.Confidence,
		"bull_score": bullScore,
		"bear_score": bearScore,
	}).Debug("Detected market regime")

	return rec
}

// classify maps the bull ratio to a regime and confidence. The 0.65
// and 0.35 boundaries are inclusive on the BULL and BEAR side.
func classify(bullRatio float64) (contracts.Regime, float64) {
	switch {
	case bullRatio >= 0.65:
		return contracts.RegimeBull, round4(math.Min(bullRatio, 0.95))
	case bullRatio <= 0.35:
		return contracts.RegimeBear, round4(math.Min(1.0-bullRatio, 0.95))
	default:
		// The closer the ratio sits to 0.5, the more sideways the market.
		return contracts.RegimeSideways, round4(1.0 - 2.0*math.Abs(bullRatio-0.5))
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
