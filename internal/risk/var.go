// Package risk computes tail-risk statistics over daily return series.
package risk

import (
	"math"
	"sort"
)

// VaRResult is a historical Value-at-Risk estimate. Losses are
// expressed as positive fractions: VaR 0.05 means a 5% one-day loss at
// the given confidence.
type VaRResult struct {
	Confidence float64
	VaR        float64
	CVaR       float64
}

// HistoricalVaR estimates VaR and CVaR (expected shortfall) from an
// observed daily return series. Empty input yields a zero result.
func HistoricalVaR(returns []float64, confidence float64) VaRResult {
	result := VaRResult{Confidence: confidence}
	if len(returns) == 0 {
		return result
	}

	// Ascending sort puts the worst days first.
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	if sorted[idx] < 0 {
		result.VaR = -sorted[idx]
	}

	// CVaR is the mean of the tail at and below the VaR cutoff.
	var sum float64
	for i := 0; i <= idx; i++ {
		sum += sorted[i]
	}
	if tail := sum / float64(idx+1); tail < 0 {
		result.CVaR = -tail
	}

	return result
}

// DailyReturns converts an equity sequence into day-over-day returns.
// Zero-equity points are skipped as a base.
func DailyReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
	}
	return returns
}
