package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/trishul/internal/marketdata"
	"github.com/wonny/trishul/internal/pipeline"
	"github.com/wonny/trishul/internal/store"
	"github.com/wonny/trishul/pkg/database"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run the daily scoring pipeline",
	Long: `Scores every stock in the universe on trend, breakout,
volatility, risk and liquidity factors, detects the market regime and
writes the ranked output.

Artifacts are written to OUTPUT_DIR/<date>/:
  stock_scores.json     - ranked scores
  stock_scores.parquet  - same table for analysis tooling
  market_regime.json    - regime snapshot

When DATABASE_URL is set the scores are also upserted into Postgres.

Example:
  go run ./cmd/trishul score`,
	RunE: runScore,
}

var scoreWorkers int

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().IntVar(&scoreWorkers, "workers", 4, "feature computation workers")
}

func runScore(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Trishul Scoring Pipeline ===")

	a, err := initApp()
	if err != nil {
		return err
	}

	u, err := a.loadUniverse()
	if err != nil {
		return err
	}

	// Optional Postgres persistence
	var repo *store.Repository
	if a.cfg.Database.URL != "" {
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo = store.NewRepository(db.Pool, a.log)
		if err := repo.EnsureSchema(cmd.Context()); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	p := pipeline.New(pipeline.Options{
		Strategy:   a.strategy,
		ConfigHash: a.configHash,
		Universe:   u,
		Bars:       marketdata.NewStore(a.cfg.DataDir, a.log),
		Writer:     store.NewWriter(a.cfg.OutputDir, a.log),
		Repo:       repo,
		Workers:    scoreWorkers,
		Logger:     a.log,
	})

	result, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	fmt.Printf("\n✅ Scoring completed in %.2fs\n", result.Duration.Seconds())
	fmt.Printf("📅 Date:   %s\n", result.Date.Format("2006-01-02"))
	fmt.Printf("🌐 Regime: %s (confidence %.2f)\n", result.Regime.Regime, result.Regime.Confidence)
	fmt.Printf("📊 Scored: %d of %d symbols\n\n", result.Scored, result.Universe)

	fmt.Printf("%-5s %-12s %10s %8s %8s %8s\n", "Rank", "Symbol", "Composite", "Trend", "Brkout", "Liq")
	printSeparator(56)
	limit := len(result.Scores)
	if limit > 10 {
		limit = 10
	}
	for _, rec := range result.Scores[:limit] {
		fmt.Printf("%-5d %-12s %10.4f %8.2f %8.2f %8.2f\n",
			rec.Rank, rec.Symbol, rec.Composite, rec.TrendStrength, rec.BreakoutQuality, rec.Liquidity)
	}
	fmt.Println()

	return nil
}
