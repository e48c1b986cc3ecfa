package contracts

import "time"

// EquityPoint is the end-of-day mark of cash plus open position value.
type EquityPoint struct {
	Date   time.Time
	Equity float64
}

// BacktestResult aggregates one simulation run: the parameter set, the
// summary metrics and the complete trade ledger. The ledger is
// append-only during a run and never truncated or reordered.
type BacktestResult struct {
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	FinalCapital   float64

	MaxRiskPct   float64
	MaxPositions int
	Seed         int64

	TotalReturnPct float64
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRatePct     float64
	MaxDrawdownPct float64
	AvgTradePnL    float64
	SharpeRatio    float64

	Trades []Trade
	Equity []EquityPoint
}
