package strategyconfig

import "fmt"

// ValidationError is a hard constraint violation. Loading stops.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a soft violation of recommended bounds. The run continues.
type Warning struct {
	Code    string
	Message string
}

// Validate checks every hard constraint of the parameter set.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Version == "" {
		return ValidationError{"meta.version", "required"}
	}

	if cfg.Universe.IndexSymbol == "" {
		return ValidationError{"universe.index_symbol", "required"}
	}
	if cfg.Universe.MinHistoryBars <= 0 {
		return ValidationError{"universe.min_history_bars", "must be > 0"}
	}

	if cfg.Backtest.InitialCapital <= 0 {
		return ValidationError{"backtest.initial_capital", "must be > 0"}
	}
	if cfg.Backtest.MaxRiskPct <= 0 || cfg.Backtest.MaxRiskPct > 100 {
		return ValidationError{"backtest.max_risk_pct", "must be in (0, 100]"}
	}
	if cfg.Backtest.MaxPositions <= 0 {
		return ValidationError{"backtest.max_positions", "must be > 0"}
	}

	for _, check := range []struct {
		field string
		value float64
	}{
		{"entry.min_trend_strength", cfg.Entry.MinTrendStrength},
		{"entry.min_breakout_quality", cfg.Entry.MinBreakoutQuality},
		{"entry.min_liquidity", cfg.Entry.MinLiquidity},
		{"entry.max_risk", cfg.Entry.MaxRisk},
	} {
		if check.value < 0 || check.value > 1 {
			return ValidationError{check.field, "must be in [0, 1]"}
		}
	}
	if cfg.Entry.LookbackBars < cfg.Universe.MinHistoryBars {
		return ValidationError{"entry.lookback_bars", "must be >= universe.min_history_bars"}
	}

	if cfg.Exit.StopATRMultiple <= 0 {
		return ValidationError{"exit.stop_atr_multiple", "must be > 0"}
	}
	if cfg.Exit.RewardRiskMultiple <= 0 {
		return ValidationError{"exit.reward_risk_multiple", "must be > 0"}
	}

	if cfg.Ranking.TopN <= 0 {
		return ValidationError{"ranking.top_n", "must be > 0"}
	}

	return nil
}

// Warn flags parameter choices outside recommended bounds.
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Backtest.MaxRiskPct > 5 {
		warnings = append(warnings, Warning{
			Code:    "W-RISK-PCT",
			Message: fmt.Sprintf("max_risk_pct %.1f%% is aggressive, recommended <= 5%%", cfg.Backtest.MaxRiskPct),
		})
	}
	if cfg.Backtest.MaxPositions > 20 {
		warnings = append(warnings, Warning{
			Code:    "W-POSITIONS",
			Message: fmt.Sprintf("max_positions %d spreads capital thin, recommended <= 20", cfg.Backtest.MaxPositions),
		})
	}
	if cfg.Exit.StopATRMultiple < 1 {
		warnings = append(warnings, Warning{
			Code:    "W-TIGHT-STOP",
			Message: fmt.Sprintf("stop_atr_multiple %.2f sits inside daily noise, recommended >= 1", cfg.Exit.StopATRMultiple),
		})
	}
	if cfg.Exit.RewardRiskMultiple < 1 {
		warnings = append(warnings, Warning{
			Code:    "W-REWARD-RISK",
			Message: fmt.Sprintf("reward_risk_multiple %.2f risks more than it targets", cfg.Exit.RewardRiskMultiple),
		})
	}

	return warnings
}
