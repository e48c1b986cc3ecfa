// Package strategyconfig loads and validates the swing strategy's
// YAML parameter file. The loaded config is hashed so every scoring
// run and backtest can be tied to the exact parameter set it used.
package strategyconfig

// Config is the full strategy parameter set.
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Universe Universe `yaml:"universe" json:"universe"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
	Entry    Entry    `yaml:"entry" json:"entry"`
	Exit     Exit     `yaml:"exit" json:"exit"`
	Ranking  Ranking  `yaml:"ranking" json:"ranking"`
}

// Meta identifies the strategy.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
	Timezone   string `yaml:"timezone" json:"timezone"`
}

// Universe selects the tradable pool and its reference index.
type Universe struct {
	IndexSymbol    string `yaml:"index_symbol" json:"index_symbol"`
	MinHistoryBars int    `yaml:"min_history_bars" json:"min_history_bars"`
}

// Backtest holds the simulation parameters.
type Backtest struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	MaxRiskPct     float64 `yaml:"max_risk_pct" json:"max_risk_pct"`
	MaxPositions   int     `yaml:"max_positions" json:"max_positions"`
	RandomSeed     int64   `yaml:"random_seed" json:"random_seed"`
}

// Entry holds the candidate filters.
type Entry struct {
	MinTrendStrength   float64 `yaml:"min_trend_strength" json:"min_trend_strength"`
	MinBreakoutQuality float64 `yaml:"min_breakout_quality" json:"min_breakout_quality"`
	MinLiquidity       float64 `yaml:"min_liquidity" json:"min_liquidity"`
	MaxRisk            float64 `yaml:"max_risk" json:"max_risk"`
	LookbackBars       int     `yaml:"lookback_bars" json:"lookback_bars"`
}

// Exit holds the stop and target geometry.
type Exit struct {
	StopATRMultiple    float64 `yaml:"stop_atr_multiple" json:"stop_atr_multiple"`
	RewardRiskMultiple float64 `yaml:"reward_risk_multiple" json:"reward_risk_multiple"`
}

// Ranking controls the published universe ranking.
type Ranking struct {
	TopN int `yaml:"top_n" json:"top_n"`
}
