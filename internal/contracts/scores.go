package contracts

// ScoreRecord holds the five sub-scores and composite rank for one
// symbol on one scoring date. Sub-scores are clamped to [0, 1] and
// rounded to 4 decimals. Rank is dense, 1-based, best first; produced
// fresh per scoring date and never mutated afterwards.
type ScoreRecord struct {
	Symbol          string  `json:"symbol"`
	TrendStrength   float64 `json:"trend_strength_score"`
	BreakoutQuality float64 `json:"breakout_quality_score"`
	Volatility      float64 `json:"volatility_score"`
	Risk            float64 `json:"risk_score"`
	Liquidity       float64 `json:"liquidity_score"`
	Composite       float64 `json:"composite_score"`
	Rank            int     `json:"rank"`
}
