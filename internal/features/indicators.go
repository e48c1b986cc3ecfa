package features

import (
	"math"

	"github.com/wonny/trishul/internal/contracts"
)

// Indicator functions are pure: identical input produces bit-identical
// output. A value is undefined until the indicator's window is full.

// SMA computes a simple moving average over the given period.
func SMA(values []float64, period int) []contracts.Float {
	out := make([]contracts.Float, len(values))
	if period <= 0 {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = contracts.F(sum / float64(period))
		}
	}
	return out
}

// EMA computes an exponential moving average with smoothing factor
// 2/(span+1), seeded by the first value. No warm-up bias correction.
func EMA(values []float64, span int) []contracts.Float {
	out := make([]contracts.Float, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	ema := values[0]
	out[0] = contracts.F(ema)
	for i := 1; i < len(values); i++ {
		ema = alpha*values[i] + (1-alpha)*ema
		out[i] = contracts.F(ema)
	}
	return out
}

// emaFloat smooths a series that may begin with (or contain) undefined
// values. The average seeds at the first defined value; undefined inputs
// leave the running average unchanged and produce undefined outputs.
func emaFloat(values []contracts.Float, span int) []contracts.Float {
	out := make([]contracts.Float, len(values))
	alpha := 2.0 / (float64(span) + 1.0)

	var ema float64
	seeded := false
	for i, v := range values {
		if !v.Valid {
			continue
		}
		if !seeded {
			ema = v.Val
			seeded = true
		} else {
			ema = alpha*v.Val + (1-alpha)*ema
		}
		out[i] = contracts.F(ema)
	}
	return out
}

// RSI computes the Relative Strength Index from rolling averages of
// gains and losses. When the average loss is 0 the ratio diverges: RSI
// is 100 if any gain exists, undefined when the window is flat.
func RSI(closes []float64, period int) []contracts.Float {
	out := make([]contracts.Float, len(closes))
	if len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	// The first delta exists at index 1, so the first full window of
	// `period` deltas ends at index `period`.
	for i := period; i < len(closes); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		if avgLoss == 0 {
			if avgGain > 0 {
				out[i] = contracts.F(100.0)
			}
			continue
		}

		rs := avgGain / avgLoss
		out[i] = contracts.F(100.0 - 100.0/(1.0+rs))
	}
	return out
}

// TrueRange computes the daily true range series. The first bar has no
// previous close, so its range is simply high-low.
func TrueRange(bars []contracts.Bar) []float64 {
	tr := make([]float64, len(bars))
	for i, b := range bars {
		hl := b.High - b.Low
		if i == 0 {
			tr[i] = hl
			continue
		}
		prevClose := bars[i-1].Close
		hc := math.Abs(b.High - prevClose)
		lc := math.Abs(b.Low - prevClose)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// ATR computes the Average True Range as a rolling mean of true range.
func ATR(bars []contracts.Bar, period int) []contracts.Float {
	return SMA(TrueRange(bars), period)
}

// BollingerBands computes (upper, middle, lower) as the period SMA plus
// and minus numStd rolling sample standard deviations.
func BollingerBands(closes []float64, period int, numStd float64) (upper, middle, lower []contracts.Float) {
	n := len(closes)
	upper = make([]contracts.Float, n)
	lower = make([]contracts.Float, n)
	middle = SMA(closes, period)

	for i := period - 1; i < n; i++ {
		mean := middle[i].Val
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			variance += d * d
		}
		// Sample variance, matching a rolling std with ddof=1.
		std := math.Sqrt(variance / float64(period-1))
		upper[i] = contracts.F(mean + numStd*std)
		lower[i] = contracts.F(mean - numStd*std)
	}
	return upper, middle, lower
}

// MACD computes (macd line, signal line, histogram) from fast/slow EMAs
// and a signal EMA of the MACD line.
func MACD(closes []float64, fast, slow, signal int) (line, signalLine, histogram []contracts.Float) {
	n := len(closes)
	line = make([]contracts.Float, n)
	histogram = make([]contracts.Float, n)

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	for i := 0; i < n; i++ {
		if fastEMA[i].Valid && slowEMA[i].Valid {
			line[i] = contracts.F(fastEMA[i].Val - slowEMA[i].Val)
		}
	}

	signalLine = emaFloat(line, signal)
	for i := 0; i < n; i++ {
		if line[i].Valid && signalLine[i].Valid {
			histogram[i] = contracts.F(line[i].Val - signalLine[i].Val)
		}
	}
	return line, signalLine, histogram
}

// ADX computes the Average Directional Index: EMA-smoothed directional
// movement divided by ATR. Undefined while ATR is undefined or 0, and
// while both directional indices are 0.
func ADX(bars []contracts.Bar, period int) []contracts.Float {
	n := len(bars)
	out := make([]contracts.Float, n)
	if n == 0 {
		return out
	}

	plusDM := make([]contracts.Float, n)
	minusDM := make([]contracts.Float, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low

		var plus, minus float64
		if up > down && up > 0 {
			plus = up
		}
		if down > up && down > 0 {
			minus = down
		}
		plusDM[i] = contracts.F(plus)
		minusDM[i] = contracts.F(minus)
	}

	plusEMA := emaFloat(plusDM, period)
	minusEMA := emaFloat(minusDM, period)
	atr := ATR(bars, period)

	dx := make([]contracts.Float, n)
	for i := 0; i < n; i++ {
		if !atr[i].Valid || atr[i].Val == 0 || !plusEMA[i].Valid || !minusEMA[i].Valid {
			continue
		}
		plusDI := 100.0 * plusEMA[i].Val / atr[i].Val
		minusDI := 100.0 * minusEMA[i].Val / atr[i].Val
		if plusDI+minusDI == 0 {
			continue
		}
		dx[i] = contracts.F(100.0 * math.Abs(plusDI-minusDI) / (plusDI + minusDI))
	}

	return emaFloat(dx, period)
}

// OBV computes On-Balance Volume: cumulative volume signed by the
// close-to-close change. Undefined on the first bar.
func OBV(bars []contracts.Bar) []contracts.Float {
	out := make([]contracts.Float, len(bars))
	var obv float64
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += float64(bars[i].Volume)
		case bars[i].Close < bars[i-1].Close:
			obv -= float64(bars[i].Volume)
		}
		out[i] = contracts.F(obv)
	}
	return out
}
