package backtest

import (
	"math"

	"github.com/wonny/trishul/internal/contracts"
)

// tradingDaysPerYear annualizes the Sharpe ratio from daily returns.
const tradingDaysPerYear = 252

// CalculateMetrics fills the summary metrics of a result from its
// trade ledger and equity curve. Percentages and money amounts are
// rounded to 2 decimals.
func CalculateMetrics(result *contracts.BacktestResult) {
	if result.InitialCapital > 0 {
		result.TotalReturnPct = round2(
			(result.FinalCapital - result.InitialCapital) / result.InitialCapital * 100)
	}

	result.TotalTrades = len(result.Trades)
	var totalPnL float64
	for _, t := range result.Trades {
		totalPnL += t.PnL
		if t.PnL > 0 {
			result.WinningTrades++
		} else {
			result.LosingTrades++
		}
	}

	if result.TotalTrades > 0 {
		result.WinRatePct = round2(float64(result.WinningTrades) / float64(result.TotalTrades) * 100)
		result.AvgTradePnL = round2(totalPnL / float64(result.TotalTrades))
	}

	result.MaxDrawdownPct = round2(maxDrawdown(result.Equity) * 100)
	result.SharpeRatio = round2(sharpeRatio(result.Equity))
}

// maxDrawdown returns the largest peak-to-trough equity decline as a
// fraction of the peak.
func maxDrawdown(curve []contracts.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	maxDD := 0.0
	peak := curve[0].Equity

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - point.Equity) / peak
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}

	return maxDD
}

// sharpeRatio annualizes mean daily return over its standard
// deviation, at a 0% risk-free rate. Fewer than two equity points or
// zero variance yields 0.
func sharpeRatio(curve []contracts.EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}
