package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

// Repository persists scoring and regime outputs to Postgres. It is
// optional: the pipeline runs file-only when no database is
// configured.
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewRepository creates a repository over an existing pool.
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{pool: pool, logger: log}
}

// EnsureSchema creates the output tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS stock_scores (
			symbol                 TEXT             NOT NULL,
			score_date             DATE             NOT NULL,
			trend_strength_score   DOUBLE PRECISION NOT NULL,
			breakout_quality_score DOUBLE PRECISION NOT NULL,
			volatility_score       DOUBLE PRECISION NOT NULL,
			risk_score             DOUBLE PRECISION NOT NULL,
			liquidity_score        DOUBLE PRECISION NOT NULL,
			composite_score        DOUBLE PRECISION NOT NULL,
			rank                   INTEGER          NOT NULL,
			updated_at             TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			PRIMARY KEY (symbol, score_date)
		)`,
		`CREATE TABLE IF NOT EXISTS market_regime (
			regime_date DATE             PRIMARY KEY,
			regime      TEXT             NOT NULL,
			confidence  DOUBLE PRECISION NOT NULL,
			updated_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id          BIGSERIAL        PRIMARY KEY,
			run_started DATE             NOT NULL,
			run_ended   DATE             NOT NULL,
			seed        BIGINT           NOT NULL,
			symbol      TEXT             NOT NULL,
			entry_date  DATE             NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			stop_loss   DOUBLE PRECISION NOT NULL,
			target      DOUBLE PRECISION NOT NULL,
			quantity    BIGINT           NOT NULL,
			exit_date   DATE             NOT NULL,
			exit_price  DOUBLE PRECISION NOT NULL,
			exit_reason TEXT             NOT NULL,
			pnl         DOUBLE PRECISION NOT NULL,
			created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range ddl {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveScores upserts the day's universe ranking in one transaction.
func (r *Repository) SaveScores(ctx context.Context, date time.Time, records []contracts.ScoreRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO stock_scores (
			symbol, score_date,
			trend_strength_score, breakout_quality_score, volatility_score,
			risk_score, liquidity_score, composite_score, rank
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol, score_date) DO UPDATE SET
			trend_strength_score = EXCLUDED.trend_strength_score,
			breakout_quality_score = EXCLUDED.breakout_quality_score,
			volatility_score = EXCLUDED.volatility_score,
			risk_score = EXCLUDED.risk_score,
			liquidity_score = EXCLUDED.liquidity_score,
			composite_score = EXCLUDED.composite_score,
			rank = EXCLUDED.rank,
			updated_at = NOW()
	`

	for _, rec := range records {
		_, err := tx.Exec(ctx, query,
			rec.Symbol, contracts.Day(date),
			rec.TrendStrength, rec.BreakoutQuality, rec.Volatility,
			rec.Risk, rec.Liquidity, rec.Composite, rec.Rank,
		)
		if err != nil {
			return fmt.Errorf("failed to save scores for %s: %w", rec.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"date":   date.Format("2006-01-02"),
		"scores": len(records),
	}).Debug("Saved scores to database")

	return nil
}

// SaveRegime upserts one regime record.
func (r *Repository) SaveRegime(ctx context.Context, rec contracts.RegimeRecord) error {
	query := `
		INSERT INTO market_regime (regime_date, regime, confidence)
		VALUES ($1, $2, $3)
		ON CONFLICT (regime_date) DO UPDATE SET
			regime = EXCLUDED.regime,
			confidence = EXCLUDED.confidence,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, contracts.Day(rec.Date), string(rec.Regime), rec.Confidence); err != nil {
		return fmt.Errorf("failed to save regime: %w", err)
	}
	return nil
}

// SaveTrades appends a completed run's trade ledger in one
// transaction. Runs are append-only; re-running the same window adds a
// new set of rows.
func (r *Repository) SaveTrades(ctx context.Context, result *contracts.BacktestResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO backtest_trades (
			run_started, run_ended, seed,
			symbol, entry_date, entry_price, stop_loss, target, quantity,
			exit_date, exit_price, exit_reason, pnl
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	for _, t := range result.Trades {
		_, err := tx.Exec(ctx, query,
			contracts.Day(result.StartDate), contracts.Day(result.EndDate), result.Seed,
			t.Symbol, contracts.Day(t.EntryDate), t.EntryPrice, t.StopLoss, t.Target, t.Quantity,
			contracts.Day(t.ExitDate), t.ExitPrice, string(t.ExitReason), t.PnL,
		)
		if err != nil {
			return fmt.Errorf("failed to save trade for %s: %w", t.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"start":  result.StartDate.Format("2006-01-02"),
		"end":    result.EndDate.Format("2006-01-02"),
		"trades": len(result.Trades),
	}).Debug("Saved backtest trades to database")

	return nil
}

// LatestScores returns the most recent ranking, ordered by rank.
func (r *Repository) LatestScores(ctx context.Context) ([]contracts.ScoreRecord, time.Time, error) {
	query := `
		SELECT symbol, score_date,
			trend_strength_score, breakout_quality_score, volatility_score,
			risk_score, liquidity_score, composite_score, rank
		FROM stock_scores
		WHERE score_date = (SELECT MAX(score_date) FROM stock_scores)
		ORDER BY rank
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var records []contracts.ScoreRecord
	var date time.Time
	for rows.Next() {
		var rec contracts.ScoreRecord
		if err := rows.Scan(
			&rec.Symbol, &date,
			&rec.TrendStrength, &rec.BreakoutQuality, &rec.Volatility,
			&rec.Risk, &rec.Liquidity, &rec.Composite, &rec.Rank,
		); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, date, nil
}
