// Package backtest simulates the rule-based swing strategy against
// historical daily bars and reduces the outcome to summary metrics.
package backtest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/internal/features"
	"github.com/wonny/trishul/internal/regime"
	"github.com/wonny/trishul/internal/scoring"
	"github.com/wonny/trishul/pkg/logger"
)

// Entry-ranking weights. Deliberately narrower than the universe
// composite: volatility and risk already gated candidates out.
const (
	entryWeightTrend     = 0.30
	entryWeightBreakout  = 0.25
	entryWeightLiquidity = 0.20
)

// Config holds one simulation's full parameter set.
type Config struct {
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	MaxRiskPct     float64 // max risk per trade, percent of current capital
	MaxPositions   int
	// Seed is recorded in the result for audit. All decisions today are
	// rule-based; the seed bounds any stochastic extension.
	Seed    int64
	Entry   EntryRules
	Workers int // candidate-scoring fan-out, defaults to 4
}

// EntryRules are the candidate filters and exit geometry.
type EntryRules struct {
	MinTrendStrength   float64
	MinBreakoutQuality float64
	MinLiquidity       float64
	MaxRisk            float64
	LookbackBars       int
	MinHistoryBars     int
	StopATRMultiple    float64
	RewardRiskMultiple float64
}

// DefaultEntryRules returns the standard swing-entry rules.
func DefaultEntryRules() EntryRules {
	return EntryRules{
		MinTrendStrength:   0.6,
		MinBreakoutQuality: 0.5,
		MinLiquidity:       0.4,
		MaxRisk:            0.5,
		LookbackBars:       250,
		MinHistoryBars:     50,
		StopATRMultiple:    2.0,
		RewardRiskMultiple: 2.0,
	}
}

// Validate rejects parameter combinations that cannot produce a
// meaningful run. These are fatal before any simulation starts.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %.2f", c.InitialCapital)
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max positions must be positive, got %d", c.MaxPositions)
	}
	if c.MaxRiskPct <= 0 {
		return fmt.Errorf("max risk pct must be positive, got %.2f", c.MaxRiskPct)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end date %s is before start date %s",
			c.EndDate.Format("2006-01-02"), c.StartDate.Format("2006-01-02"))
	}
	if c.Entry.LookbackBars < c.Entry.MinHistoryBars {
		return fmt.Errorf("lookback bars %d below minimum history %d",
			c.Entry.LookbackBars, c.Entry.MinHistoryBars)
	}
	return nil
}

// Simulator owns the mutable simulation state: capital, the open
// position set and the append-only trade ledger. It is stepped day by
// day in strict order (exits, then entries, then the equity mark) and
// must not be shared across goroutines. All bar data is loaded before
// Run starts; no I/O happens inside the loop.
type Simulator struct {
	cfg      Config
	logger   *logger.Logger
	detector *regime.Detector
	engine   *features.Engine
	rng      *rand.Rand

	symbols []string // universe order drives candidate iteration and tie-breaks
	data    map[string][]contracts.Bar
	byDate  map[string]map[time.Time]contracts.Bar
	index   []contracts.Bar

	capital  float64
	open     []contracts.Position
	trades   []contracts.Trade
	equity   []contracts.EquityPoint
	progress func(contracts.EquityPoint)
}

// NewSimulator validates the config and prepares lookup tables.
// symbols is the stock universe (without the reference index); data
// maps each symbol to its ascending bar series; index is the
// reference-index series used for regime detection.
func NewSimulator(
	cfg Config,
	symbols []string,
	data map[string][]contracts.Bar,
	index []contracts.Bar,
	log *logger.Logger,
) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}

	byDate := make(map[string]map[time.Time]contracts.Bar, len(data))
	for symbol, bars := range data {
		m := make(map[time.Time]contracts.Bar, len(bars))
		for _, b := range bars {
			m[contracts.Day(b.Date)] = b
		}
		byDate[symbol] = m
	}

	return &Simulator{
		cfg:      cfg,
		logger:   log,
		detector: regime.NewDetector(log),
		engine:   features.NewEngine(cfg.Workers, log),
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		symbols:  symbols,
		data:     data,
		byDate:   byDate,
		index:    index,
	}, nil
}

// WithProgress registers a callback invoked after each day's equity
// mark. Used to stream live progress to the dashboard.
func (s *Simulator) WithProgress(fn func(contracts.EquityPoint)) *Simulator {
	s.progress = fn
	return s
}

// Run executes the simulation and returns the aggregated result.
// Identical inputs and parameters reproduce an identical ledger and
// equity sequence.
func (s *Simulator) Run(ctx context.Context) (*contracts.BacktestResult, error) {
	s.capital = s.cfg.InitialCapital
	s.open = nil
	s.trades = make([]contracts.Trade, 0)
	s.equity = make([]contracts.EquityPoint, 0)

	s.logger.WithFields(map[string]interface{}{
		"start_date":      s.cfg.StartDate.Format("2006-01-02"),
		"end_date":        s.cfg.EndDate.Format("2006-01-02"),
		"initial_capital": s.cfg.InitialCapital,
		"max_positions":   s.cfg.MaxPositions,
		"universe":        len(s.symbols),
	}).Info("Starting backtest")

	for d := contracts.Day(s.cfg.StartDate); !d.After(contracts.Day(s.cfg.EndDate)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest aborted: %w", err)
		}

		s.processExits(d)
		s.processEntries(ctx, d)
		s.markEquity(d)
	}

	s.closeRemaining()

	result := &contracts.BacktestResult{
		StartDate:      contracts.Day(s.cfg.StartDate),
		EndDate:        contracts.Day(s.cfg.EndDate),
		InitialCapital: s.cfg.InitialCapital,
		FinalCapital:   round2(s.capital),
		MaxRiskPct:     s.cfg.MaxRiskPct,
		MaxPositions:   s.cfg.MaxPositions,
		Seed:           s.cfg.Seed,
		Trades:         s.trades,
		Equity:         s.equity,
	}
	CalculateMetrics(result)

	s.logger.WithFields(map[string]interface{}{
		"final_capital": result.FinalCapital,
		"total_return":  fmt.Sprintf("%.2f%%", result.TotalReturnPct),
		"total_trades":  result.TotalTrades,
		"win_rate":      fmt.Sprintf("%.2f%%", result.WinRatePct),
		"max_drawdown":  fmt.Sprintf("%.2f%%", result.MaxDrawdownPct),
	}).Info("Backtest completed")

	return result, nil
}

// processExits checks every open position against the day's bar.
// Stop-loss takes priority over target when both trigger on the same
// bar. Positions without a bar that day stay open.
func (s *Simulator) processExits(day time.Time) {
	remaining := s.open[:0]
	for _, pos := range s.open {
		bar, ok := s.byDate[pos.Symbol][day]
		if !ok {
			remaining = append(remaining, pos)
			continue
		}

		switch {
		case bar.Low <= pos.StopLoss:
			s.closePosition(pos, day, pos.StopLoss, contracts.ExitStopLoss)
		case bar.High >= pos.Target:
			s.closePosition(pos, day, pos.Target, contracts.ExitTarget)
		default:
			remaining = append(remaining, pos)
		}
	}
	s.open = remaining
}

// closePosition credits capital and appends to the ledger.
func (s *Simulator) closePosition(pos contracts.Position, day time.Time, price float64, reason contracts.ExitReason) {
	trade := pos.Close(day, price, reason)
	s.capital += price * float64(pos.Quantity)
	s.trades = append(s.trades, trade)

	s.logger.WithFields(map[string]interface{}{
		"symbol":      trade.Symbol,
		"exit_date":   day.Format("2006-01-02"),
		"exit_price":  price,
		"exit_reason": string(reason),
		"pnl":         trade.PnL,
	}).Debug("Closed position")
}

// candidate is a symbol that passed the entry filters, with the
// inputs needed for sizing.
type candidate struct {
	scores contracts.ScoreRecord
	close  float64
	atr    contracts.Float
}

// entryScore ranks surviving candidates for slot filling.
func (c candidate) entryScore() float64 {
	return entryWeightTrend*c.scores.TrendStrength +
		entryWeightBreakout*c.scores.BreakoutQuality +
		entryWeightLiquidity*c.scores.Liquidity
}

// processEntries opens new positions when slots are free, the
// reference index carries at least 200 bars of history up to the day,
// and the regime is BULL.
func (s *Simulator) processEntries(ctx context.Context, day time.Time) {
	if len(s.open) >= s.cfg.MaxPositions {
		return
	}

	indexHistory := historyUpTo(s.index, day, len(s.index))
	if len(indexHistory) < 200 {
		return
	}
	if rec := s.detector.Detect(indexHistory); rec.Regime != contracts.RegimeBull {
		return
	}

	candidates := s.scoreCandidates(ctx, day)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].entryScore() > candidates[j].entryScore()
	})

	slots := s.cfg.MaxPositions - len(s.open)
	for _, cand := range candidates {
		if slots == 0 {
			break
		}
		pos, ok := s.sizePosition(cand, day)
		if !ok {
			continue
		}
		s.capital -= pos.EntryPrice * float64(pos.Quantity)
		s.open = append(s.open, pos)
		slots--

		s.logger.WithFields(map[string]interface{}{
			"symbol":      pos.Symbol,
			"entry_date":  day.Format("2006-01-02"),
			"entry_price": pos.EntryPrice,
			"stop_loss":   pos.StopLoss,
			"target":      pos.Target,
			"quantity":    pos.Quantity,
		}).Debug("Opened position")
	}
}

// scoreCandidates scores each symbol's trailing history in parallel
// and filters to those passing the entry rules. The result preserves
// universe order, so ranking ties are independent of completion order.
func (s *Simulator) scoreCandidates(ctx context.Context, day time.Time) []candidate {
	windows := make(map[string][]contracts.Bar, len(s.symbols))
	eligible := make([]string, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		history := historyUpTo(s.data[symbol], day, s.cfg.Entry.LookbackBars)
		if len(history) < s.cfg.Entry.MinHistoryBars {
			continue
		}
		windows[symbol] = history
		eligible = append(eligible, symbol)
	}

	rows := s.engine.LatestAll(ctx, eligible, windows)

	rules := s.cfg.Entry
	candidates := make([]candidate, 0, len(rows))
	for _, row := range rows {
		scores := scoring.ScoreStock(row)
		if scores.TrendStrength < rules.MinTrendStrength ||
			scores.BreakoutQuality < rules.MinBreakoutQuality ||
			scores.Liquidity < rules.MinLiquidity ||
			scores.Risk > rules.MaxRisk {
			continue
		}
		candidates = append(candidates, candidate{
			scores: scores,
			close:  row.Close,
			atr:    row.ATR14,
		})
	}
	return candidates
}

// sizePosition derives stop, target and quantity for a filled
// candidate. Quantity is risk-based, clamped so cost never exceeds
// available capital; a non-positive quantity skips the candidate.
func (s *Simulator) sizePosition(cand candidate, day time.Time) (contracts.Position, bool) {
	entryPrice := cand.close
	if entryPrice <= 0 {
		return contracts.Position{}, false
	}
	atr := cand.atr.Or(entryPrice * 0.02)

	stopLoss := entryPrice - s.cfg.Entry.StopATRMultiple*atr
	riskPerShare := entryPrice - stopLoss
	if riskPerShare <= 0 {
		return contracts.Position{}, false
	}
	target := entryPrice + s.cfg.Entry.RewardRiskMultiple*riskPerShare

	maxRisk := s.capital * (s.cfg.MaxRiskPct / 100.0)
	quantity := int64(maxRisk / riskPerShare)
	if quantity <= 0 {
		return contracts.Position{}, false
	}

	if entryPrice*float64(quantity) > s.capital {
		quantity = int64(s.capital / entryPrice)
	}
	if quantity <= 0 {
		return contracts.Position{}, false
	}

	return contracts.Position{
		Symbol:     cand.scores.Symbol,
		EntryDate:  day,
		EntryPrice: entryPrice,
		StopLoss:   stopLoss,
		Target:     target,
		Quantity:   quantity,
	}, true
}

// markEquity records capital plus open positions valued at the day's
// close, or entry price when the symbol has no bar that day.
func (s *Simulator) markEquity(day time.Time) {
	equity := s.capital
	for _, pos := range s.open {
		if bar, ok := s.byDate[pos.Symbol][day]; ok {
			equity += bar.Close * float64(pos.Quantity)
		} else {
			equity += pos.EntryPrice * float64(pos.Quantity)
		}
	}

	point := contracts.EquityPoint{Date: day, Equity: equity}
	s.equity = append(s.equity, point)
	if s.progress != nil {
		s.progress(point)
	}
}

// closeRemaining force-closes every still-open position at the
// symbol's last known close (entry price when the series is empty).
// This is the only exit path outside the daily loop.
func (s *Simulator) closeRemaining() {
	end := contracts.Day(s.cfg.EndDate)
	for _, pos := range s.open {
		price := pos.EntryPrice
		if bars := s.data[pos.Symbol]; len(bars) > 0 {
			price = bars[len(bars)-1].Close
		}
		s.closePosition(pos, end, price, contracts.ExitTimeExit)
	}
	s.open = nil
}

// historyUpTo returns the trailing window of at most maxBars bars with
// dates at or before day.
func historyUpTo(bars []contracts.Bar, day time.Time, maxBars int) []contracts.Bar {
	// First index strictly after day.
	hi := sort.Search(len(bars), func(i int) bool {
		return contracts.Day(bars[i].Date).After(day)
	})
	lo := hi - maxBars
	if lo < 0 {
		lo = 0
	}
	return bars[lo:hi]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
