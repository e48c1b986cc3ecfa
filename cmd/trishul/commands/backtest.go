package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/internal/risk"
	"github.com/wonny/trishul/internal/store"
	"github.com/wonny/trishul/pkg/database"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the swing strategy",
	Long: `Simulates the swing strategy day by day over historical bars.

Entries require a BULL regime, a free position slot and scores above
the strategy thresholds. Exits are stop-loss, target, or forced close
at the end of the window. The run is deterministic for a given data
set and parameter set.

When DATABASE_URL is set the trade ledger is also stored in Postgres.

Example:
  go run ./cmd/trishul backtest --from 2023-01-01 --to 2023-12-31
  go run ./cmd/trishul backtest --from 2023-01-01 --positions 10`,
	RunE: runBacktest,
}

var (
	backtestFrom      string
	backtestTo        string
	backtestCapital   float64
	backtestPositions int
	backtestRisk      float64
	backtestSeed      int64
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "start date (YYYY-MM-DD, required)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "initial capital (default: strategy file)")
	backtestCmd.Flags().IntVar(&backtestPositions, "positions", 0, "max concurrent positions (default: strategy file)")
	backtestCmd.Flags().Float64Var(&backtestRisk, "risk", 0, "max risk per trade in percent (default: strategy file)")
	backtestCmd.Flags().Int64Var(&backtestSeed, "seed", -1, "random seed (default: strategy file)")

	backtestCmd.MarkFlagRequired("from")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Trishul Backtest ===")

	a, err := initApp()
	if err != nil {
		return err
	}

	start, end, err := parseWindow(backtestFrom, backtestTo)
	if err != nil {
		return err
	}

	// Flag overrides
	if backtestCapital > 0 {
		a.strategy.Backtest.InitialCapital = backtestCapital
	}
	if backtestPositions > 0 {
		a.strategy.Backtest.MaxPositions = backtestPositions
	}
	if backtestRisk > 0 {
		a.strategy.Backtest.MaxRiskPct = backtestRisk
	}
	if backtestSeed >= 0 {
		a.strategy.Backtest.RandomSeed = backtestSeed
	}

	fmt.Printf("\n📅 Period: %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("💰 Initial Capital: ₹%s\n", formatNumber(a.strategy.Backtest.InitialCapital))
	fmt.Printf("🎯 Max Positions: %d, Risk/Trade: %.2f%%\n", a.strategy.Backtest.MaxPositions, a.strategy.Backtest.MaxRiskPct)
	fmt.Printf("🎲 Seed: %d\n\n", a.strategy.Backtest.RandomSeed)

	sim, err := a.newSimulator(start, end)
	if err != nil {
		return err
	}

	fmt.Println("🚀 Running simulation...")

	result, err := sim.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	path, err := store.NewWriter(a.cfg.OutputDir, a.log).WriteBacktest(result)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	// Optional Postgres persistence of the trade ledger
	if a.cfg.Database.URL != "" {
		db, err := database.New(a.cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		repo := store.NewRepository(db.Pool, a.log)
		if err := repo.EnsureSchema(cmd.Context()); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		if err := repo.SaveTrades(cmd.Context(), result); err != nil {
			return fmt.Errorf("save trades: %w", err)
		}
	}

	printBacktestResult(result)
	fmt.Printf("📄 Report: %s\n\n", path)

	return nil
}

func printBacktestResult(result *contracts.BacktestResult) {
	fmt.Println("\n✅ Backtest Completed")
	printSeparator(56)

	fmt.Println("\n💰 Performance")
	fmt.Printf("Initial Capital: ₹%s\n", formatNumber(result.InitialCapital))
	fmt.Printf("Final Capital:   ₹%s\n", formatNumber(result.FinalCapital))
	fmt.Printf("Total Return:    %+.2f%%\n", result.TotalReturnPct)

	fmt.Println("\n📉 Risk")
	fmt.Printf("Sharpe Ratio:    %.2f", result.SharpeRatio)
	switch {
	case result.SharpeRatio > 2.0:
		fmt.Print(" ✅ (Good)")
	case result.SharpeRatio > 1.0:
		fmt.Print(" ⚠️  (Fair)")
	default:
		fmt.Print(" ❌ (Poor)")
	}
	fmt.Println()
	fmt.Printf("Max Drawdown:    %.2f%%\n", result.MaxDrawdownPct)

	equity := make([]float64, len(result.Equity))
	for i, pt := range result.Equity {
		equity[i] = pt.Equity
	}
	tail := risk.HistoricalVaR(risk.DailyReturns(equity), 0.95)
	fmt.Printf("VaR (95%%):       %.2f%%\n", tail.VaR*100)
	fmt.Printf("CVaR (95%%):      %.2f%%\n", tail.CVaR*100)

	fmt.Println("\n💹 Trades")
	fmt.Printf("Total:   %d\n", result.TotalTrades)
	fmt.Printf("Winners: %d (%.2f%%)\n", result.WinningTrades, result.WinRatePct)
	fmt.Printf("Losers:  %d\n", result.LosingTrades)
	fmt.Printf("Avg PnL: ₹%s\n", formatNumber(result.AvgTradePnL))

	// Last equity points
	fmt.Println("\n📈 Equity (last 5 days)")
	startIdx := len(result.Equity) - 5
	if startIdx < 0 {
		startIdx = 0
	}
	for _, point := range result.Equity[startIdx:] {
		fmt.Printf("%s: ₹%s\n", point.Date.Format("2006-01-02"), formatNumber(point.Equity))
	}
	fmt.Println()
}
