package contracts

import "time"

// Bar is one daily OHLCV candle for a single symbol.
// Series are ordered ascending by date with unique dates.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Day normalizes a timestamp to midnight UTC so bars fetched with
// different time components compare equal on the same trading day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
