package contracts

import "time"

// Regime is the classified market state of the reference index.
type Regime string

const (
	RegimeBull     Regime = "BULL"
	RegimeSideways Regime = "SIDEWAYS"
	RegimeBear     Regime = "BEAR"
)

// RegimeRecord is the market regime for one date, derived solely from
// reference-index history up to and including that date.
type RegimeRecord struct {
	Date       time.Time
	Regime     Regime
	Confidence float64
}
