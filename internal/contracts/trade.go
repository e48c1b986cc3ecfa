package contracts

import "time"

// ExitReason is why a position was closed. Every Trade has exactly one.
type ExitReason string

const (
	ExitStopLoss ExitReason = "stop_loss"
	ExitTarget   ExitReason = "target"
	ExitTimeExit ExitReason = "time_exit"
)

// Position is an open trade owned exclusively by the simulator until an
// exit event converts it into a Trade. Quantity is always >= 1.
type Position struct {
	Symbol     string
	EntryDate  time.Time
	EntryPrice float64
	StopLoss   float64
	Target     float64
	Quantity   int64
}

// Trade is a closed Position. Positions move into the trade ledger by
// value; a Trade is never re-opened.
type Trade struct {
	Position

	ExitDate   time.Time
	ExitPrice  float64
	ExitReason ExitReason
	PnL        float64
}

// Close converts an open position into a closed trade.
func (p Position) Close(date time.Time, price float64, reason ExitReason) Trade {
	return Trade{
		Position:   p,
		ExitDate:   date,
		ExitPrice:  price,
		ExitReason: reason,
		PnL:        (price - p.EntryPrice) * float64(p.Quantity),
	}
}
