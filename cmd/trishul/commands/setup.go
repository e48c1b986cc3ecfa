package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/wonny/trishul/internal/backtest"
	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/internal/marketdata"
	"github.com/wonny/trishul/internal/marketdata/dhan"
	"github.com/wonny/trishul/internal/strategyconfig"
	"github.com/wonny/trishul/internal/universe"
	"github.com/wonny/trishul/pkg/config"
	"github.com/wonny/trishul/pkg/httputil"
	"github.com/wonny/trishul/pkg/logger"
)

// app bundles the dependencies every command starts from.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	strategy   *strategyconfig.Config
	configHash string
}

// initApp loads config, logger and the strategy file.
func initApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return nil, fmt.Errorf("load strategy: %w", err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"hash":     hash[:12],
	}).Debug("Strategy loaded")

	return &app{cfg: cfg, log: log, strategy: strategy, configHash: hash}, nil
}

// loadUniverse reads the configured universe file.
func (a *app) loadUniverse() (*universe.Universe, error) {
	u, err := universe.Load(a.cfg.UniverseFile, a.strategy.Universe.IndexSymbol)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	return u, nil
}

// newUpdater wires the Dhan client and resolver against the bar store.
func (a *app) newUpdater() (*marketdata.Updater, error) {
	if a.cfg.Dhan.AccessToken == "" {
		return nil, fmt.Errorf("DHAN_ACCESS_TOKEN is not set")
	}

	httpClient := httputil.New(a.log).
		WithRetry(3, 1*time.Second).
		WithRateLimit(a.cfg.Dhan.RateLimit)

	client := dhan.NewClient(httpClient, a.log, a.cfg.Dhan.BaseURL, a.cfg.Dhan.AccessToken, a.cfg.Dhan.ClientID)
	resolver := dhan.NewResolver(httpClient, a.log, filepath.Join(a.cfg.DataDir, "api-scrip-master.csv"))
	store := marketdata.NewStore(a.cfg.DataDir, a.log)

	return marketdata.NewUpdater(client, resolver, store, a.log), nil
}

// entryRules maps strategy parameters onto simulator entry rules.
func entryRules(strategy *strategyconfig.Config) backtest.EntryRules {
	rules := backtest.DefaultEntryRules()
	rules.MinTrendStrength = strategy.Entry.MinTrendStrength
	rules.MinBreakoutQuality = strategy.Entry.MinBreakoutQuality
	rules.MinLiquidity = strategy.Entry.MinLiquidity
	rules.MaxRisk = strategy.Entry.MaxRisk
	rules.LookbackBars = strategy.Entry.LookbackBars
	rules.MinHistoryBars = strategy.Universe.MinHistoryBars
	rules.StopATRMultiple = strategy.Exit.StopATRMultiple
	rules.RewardRiskMultiple = strategy.Exit.RewardRiskMultiple
	return rules
}

// newSimulator loads the bar store and builds a simulator over the
// given window.
func (a *app) newSimulator(start, end time.Time) (*backtest.Simulator, error) {
	u, err := a.loadUniverse()
	if err != nil {
		return nil, err
	}

	store := marketdata.NewStore(a.cfg.DataDir, a.log)
	data, err := store.LoadAll(u.All())
	if err != nil {
		return nil, fmt.Errorf("load market data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no market data in %s, run fetch first", a.cfg.DataDir)
	}

	index := data[u.IndexSymbol]
	delete(data, u.IndexSymbol)

	simCfg := backtest.Config{
		StartDate:      start,
		EndDate:        end,
		InitialCapital: a.strategy.Backtest.InitialCapital,
		MaxRiskPct:     a.strategy.Backtest.MaxRiskPct,
		MaxPositions:   a.strategy.Backtest.MaxPositions,
		Seed:           a.strategy.Backtest.RandomSeed,
		Entry:          entryRules(a.strategy),
	}

	return backtest.NewSimulator(simCfg, u.Symbols, data, index, a.log)
}

// parseWindow parses --from/--to flags, defaulting the end to today.
func parseWindow(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}

	end := contracts.Day(time.Now())
	if to != "" {
		end, err = time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	return start, end, nil
}
