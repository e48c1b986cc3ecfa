// Package pipeline orchestrates the daily scoring run: load the
// universe and bar data, compute features, rank the universe, detect
// the market regime and persist the outputs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/internal/features"
	"github.com/wonny/trishul/internal/marketdata"
	"github.com/wonny/trishul/internal/regime"
	"github.com/wonny/trishul/internal/scoring"
	"github.com/wonny/trishul/internal/store"
	"github.com/wonny/trishul/internal/strategyconfig"
	"github.com/wonny/trishul/internal/universe"
	"github.com/wonny/trishul/pkg/logger"
)

// Pipeline runs the scoring stages in order. Construction wires the
// stages once; Run is safe to call repeatedly (the scheduler does).
type Pipeline struct {
	strategy   *strategyconfig.Config
	configHash string
	universe   *universe.Universe
	bars       *marketdata.Store
	engine     *features.Engine
	ranker     *scoring.Ranker
	detector   *regime.Detector
	writer     *store.Writer
	repo       *store.Repository // nil when no database is configured
	logger     *logger.Logger
}

// Options configures a pipeline.
type Options struct {
	Strategy   *strategyconfig.Config
	ConfigHash string
	Universe   *universe.Universe
	Bars       *marketdata.Store
	Writer     *store.Writer
	Repo       *store.Repository
	Workers    int
	Logger     *logger.Logger
}

// New wires a pipeline from its stages.
func New(opts Options) *Pipeline {
	return &Pipeline{
		strategy:   opts.Strategy,
		configHash: opts.ConfigHash,
		universe:   opts.Universe,
		bars:       opts.Bars,
		engine:     features.NewEngine(opts.Workers, opts.Logger),
		ranker:     scoring.NewRanker(opts.Logger),
		detector:   regime.NewDetector(opts.Logger),
		writer:     opts.Writer,
		repo:       opts.Repo,
		logger:     opts.Logger,
	}
}

// RunResult summarizes one scoring run.
type RunResult struct {
	Date     time.Time
	Regime   contracts.RegimeRecord
	Scores   []contracts.ScoreRecord
	Universe int
	Scored   int
	Duration time.Duration
}

// Run executes one full scoring pass over the universe.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()

	p.logger.WithFields(map[string]interface{}{
		"strategy": p.strategy.Meta.StrategyID,
		"universe": len(p.universe.Symbols),
		"index":    p.universe.IndexSymbol,
	}).Info("Starting scoring run")

	data, err := p.bars.LoadAll(p.universe.All())
	if err != nil {
		return nil, fmt.Errorf("load market data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no market data loaded for %d symbols", len(p.universe.All()))
	}

	indexBars := data[p.universe.IndexSymbol]
	date := scoringDate(data, indexBars)

	rows := p.engine.LatestAll(ctx, p.universe.Symbols, data)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring run aborted: %w", err)
	}

	records := p.ranker.Rank(rows)
	if topN := p.strategy.Ranking.TopN; len(records) > topN {
		records = records[:topN]
	}

	regimeRec := p.detector.Detect(indexBars)

	if err := p.writer.WriteScores(date, p.strategy.Meta.StrategyID, p.configHash, records); err != nil {
		return nil, fmt.Errorf("write scores: %w", err)
	}
	if err := p.writer.WriteRegime(regimeRec); err != nil {
		return nil, fmt.Errorf("write regime: %w", err)
	}

	if p.repo != nil {
		if err := p.repo.SaveScores(ctx, date, records); err != nil {
			return nil, fmt.Errorf("save scores to database: %w", err)
		}
		if err := p.repo.SaveRegime(ctx, regimeRec); err != nil {
			return nil, fmt.Errorf("save regime to database: %w", err)
		}
	}

	result := &RunResult{
		Date:     date,
		Regime:   regimeRec,
		Scores:   records,
		Universe: len(p.universe.Symbols),
		Scored:   len(rows),
		Duration: time.Since(started),
	}

	p.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"scored":   result.Scored,
		"regime":   regimeRec.Regime,
		"duration": result.Duration.Seconds(),
	}).Info("Scoring run completed")

	return result, nil
}

// scoringDate is the last bar date of the reference index, falling
// back to the latest date across the universe when the index series
// is missing.
func scoringDate(data map[string][]contracts.Bar, indexBars []contracts.Bar) time.Time {
	if len(indexBars) > 0 {
		return contracts.Day(indexBars[len(indexBars)-1].Date)
	}

	var latest time.Time
	for _, bars := range data {
		if len(bars) == 0 {
			continue
		}
		if d := bars[len(bars)-1].Date; d.After(latest) {
			latest = d
		}
	}
	return contracts.Day(latest)
}
