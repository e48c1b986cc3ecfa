package contracts

import "time"

// FeatureRow is a Bar extended with derived technical indicators.
// Immutable once computed; keyed by (symbol, date). Indicator fields
// are undefined until enough prior bars exist; there is no forward fill.
type FeatureRow struct {
	Symbol string
	Date   time.Time

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64

	// Moving averages
	SMA20  Float
	SMA50  Float
	SMA200 Float
	EMA9   Float
	EMA21  Float

	// Momentum
	RSI14 Float

	// Volatility
	ATR14    Float
	BBUpper  Float
	BBMiddle Float
	BBLower  Float

	// Trend
	MACD       Float
	MACDSignal Float
	MACDHist   Float
	ADX14      Float

	// Volume
	OBV         Float
	VolumeSMA20 Float
}
