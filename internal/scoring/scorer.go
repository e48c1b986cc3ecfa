// Package scoring converts feature rows into bounded sub-scores and
// composite ranks for the stock universe.
package scoring

import (
	"math"

	"github.com/wonny/trishul/internal/contracts"
)

// Composite weights for universe ranking.
const (
	weightTrend     = 0.30
	weightBreakout  = 0.25
	weightLiquidity = 0.20
	weightVol       = 0.15
	weightRisk      = 0.10
)

// ScoreStock maps one feature row to the five sub-scores plus the
// composite used for ranking. Every sub-score is clamped to [0, 1] and
// rounded to 4 decimals; the calculation is a pure function of the row.
func ScoreStock(row contracts.FeatureRow) contracts.ScoreRecord {
	rec := contracts.ScoreRecord{
		Symbol:          row.Symbol,
		TrendStrength:   round4(scoreTrendStrength(row)),
		BreakoutQuality: round4(scoreBreakoutQuality(row)),
		Volatility:      round4(scoreVolatility(row)),
		Risk:            round4(scoreRisk(row)),
		Liquidity:       round4(scoreLiquidity(row)),
	}
	rec.Composite = round4(Composite(rec))
	return rec
}

// Composite combines the sub-scores: trend > breakout > liquidity >
// volatility > inverse risk.
func Composite(r contracts.ScoreRecord) float64 {
	return weightTrend*r.TrendStrength +
		weightBreakout*r.BreakoutQuality +
		weightLiquidity*r.Liquidity +
		weightVol*r.Volatility +
		weightRisk*(1.0-r.Risk)
}

// scoreTrendStrength rewards moving-average alignment, bullish MACD,
// an RSI in the bullish zone and a strong ADX. The raw sum is
// normalized by the weights whose inputs were defined.
func scoreTrendStrength(row contracts.FeatureRow) float64 {
	var score, weightsTotal float64

	// Price above SMAs.
	maChecks := []struct {
		ma     contracts.Float
		weight float64
	}{
		{row.SMA20, 0.05},
		{row.SMA50, 0.10},
		{row.SMA200, 0.15},
	}
	for _, check := range maChecks {
		weightsTotal += check.weight
		if check.ma.Valid && row.Close > check.ma.Val {
			score += check.weight
		}
	}

	// MA alignment in bullish order: EMA9 > EMA21 > SMA50.
	weightsTotal += 0.20
	if row.EMA9.Valid && row.EMA21.Valid && row.SMA50.Valid {
		if row.EMA9.Val > row.EMA21.Val && row.EMA21.Val > row.SMA50.Val {
			score += 0.20
		}
	}

	// MACD bullish.
	weightsTotal += 0.15
	if row.MACDHist.GreaterThan(0) {
		score += 0.15
	}

	// RSI in the 50-70 bullish zone, half credit for 40-50.
	weightsTotal += 0.15
	if row.RSI14.Valid {
		rsi := row.RSI14.Val
		if rsi >= 50 && rsi <= 70 {
			score += 0.15
		} else if rsi >= 40 && rsi < 50 {
			score += 0.07
		}
	}

	// ADX strength, scaled up to a ceiling at 50.
	weightsTotal += 0.20
	if row.ADX14.Valid && row.ADX14.Val > 25 {
		score += 0.20 * math.Min(row.ADX14.Val/50.0, 1.0)
	}

	if weightsTotal == 0 {
		return 0.0
	}
	return math.Min(score/weightsTotal, 1.0)
}

// scoreBreakoutQuality rewards a close near the upper Bollinger band
// with volume confirmation and a rising MACD. Additive with a 1.0 cap,
// no normalization.
func scoreBreakoutQuality(row contracts.FeatureRow) float64 {
	var score float64

	// Position within the Bollinger Bands.
	if row.BBUpper.Valid && row.BBLower.Valid {
		bbRange := row.BBUpper.Val - row.BBLower.Val
		if bbRange > 0 {
			position := (row.Close - row.BBLower.Val) / bbRange
			if position > 0.8 {
				score += 0.4
			} else if position > 0.6 {
				score += 0.2
			}
		}
	}

	// Volume confirmation against the 20-day average.
	if row.VolumeSMA20.GreaterThan(0) {
		volRatio := float64(row.Volume) / row.VolumeSMA20.Val
		switch {
		case volRatio > 1.5:
			score += 0.35
		case volRatio > 1.2:
			score += 0.2
		case volRatio > 1.0:
			score += 0.1
		}
	}

	// MACD histogram positive, line above signal.
	if row.MACDHist.GreaterThan(0) {
		score += 0.15
	}
	if row.MACD.Valid && row.MACDSignal.Valid && row.MACD.Val > row.MACDSignal.Val {
		score += 0.10
	}

	return math.Min(score, 1.0)
}

// scoreVolatility prefers a 1-3% daily ATR range for swing entries.
// Too quiet means no opportunity, too wild means too risky.
func scoreVolatility(row contracts.FeatureRow) float64 {
	if !row.ATR14.Valid || row.Close == 0 {
		return 0.5
	}

	atrPct := row.ATR14.Val / row.Close
	switch {
	case atrPct >= 0.01 && atrPct <= 0.03:
		return 0.8 + 0.2*(1.0-math.Abs(atrPct-0.02)/0.01)
	case atrPct < 0.01:
		return math.Max(0.3, atrPct/0.01)
	default:
		return math.Max(0.1, 1.0-(atrPct-0.03)/0.05)
	}
}

// scoreRisk accumulates penalties; LOWER is better for this score.
func scoreRisk(row contracts.FeatureRow) float64 {
	var risk float64

	// RSI extremes.
	if row.RSI14.Valid {
		if row.RSI14.Val > 80 {
			risk += 0.3 // overbought
		} else if row.RSI14.Val < 20 {
			risk += 0.2 // oversold, risky for longs
		}
	}

	// Wide ATR relative to price.
	if row.ATR14.Valid && row.Close > 0 {
		atrPct := row.ATR14.Val / row.Close
		if atrPct > 0.04 {
			risk += 0.3
		} else if atrPct > 0.03 {
			risk += 0.15
		}
	}

	// Price below the 200 SMA.
	if row.SMA200.Valid && row.Close < row.SMA200.Val {
		risk += 0.2
	}

	// No clear trend.
	if row.ADX14.LessThan(15) {
		risk += 0.1
	}

	// MACD bearish.
	if row.MACDHist.LessThan(0) {
		risk += 0.1
	}

	return math.Min(risk, 1.0)
}

// scoreLiquidity blends volume relative to the 20-day average with an
// absolute share-count threshold.
func scoreLiquidity(row contracts.FeatureRow) float64 {
	if !row.VolumeSMA20.Valid || row.VolumeSMA20.Val <= 0 {
		return 0.0
	}

	volRatio := float64(row.Volume) / row.VolumeSMA20.Val
	relative := math.Min(volRatio/2.0, 1.0)          // 2x average = fully liquid
	absolute := math.Min(float64(row.Volume)/500_000, 1.0) // 500k shares = fully liquid

	return 0.6*relative + 0.4*absolute
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
