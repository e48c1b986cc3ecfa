package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch daily candles from the Dhan API",
	Long: `Downloads daily OHLCV candles for every universe symbol and
the reference index, merging them into the local CSV store.

Requires DHAN_ACCESS_TOKEN. Ranges longer than 90 days are chunked
automatically.

Example:
  go run ./cmd/trishul fetch --days 400
  go run ./cmd/trishul fetch --from 2022-01-01 --to 2023-12-31`,
	RunE: runFetch,
}

var (
	fetchFrom string
	fetchTo   string
	fetchDays int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "start date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "end date (YYYY-MM-DD, default: today)")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 400, "calendar days to fetch when --from is not set")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Trishul Market Data Fetch ===")

	a, err := initApp()
	if err != nil {
		return err
	}

	u, err := a.loadUniverse()
	if err != nil {
		return err
	}

	updater, err := a.newUpdater()
	if err != nil {
		return err
	}

	var start, end time.Time
	if fetchFrom != "" {
		start, end, err = parseWindow(fetchFrom, fetchTo)
		if err != nil {
			return err
		}
	} else {
		end = time.Now()
		start = end.AddDate(0, 0, -fetchDays)
	}

	fmt.Printf("\n📅 Range: %s ~ %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("🌐 Symbols: %d (+ index %s)\n\n", len(u.Symbols), u.IndexSymbol)

	result, err := updater.Update(cmd.Context(), u.All(), start, end)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	fmt.Printf("✅ Updated %d symbols\n", len(result.Fetched))
	if len(result.Missing) > 0 {
		sort.Strings(result.Missing)
		fmt.Printf("⚠️  No security ID: %v\n", result.Missing)
	}
	for symbol, msg := range result.Failed {
		fmt.Printf("❌ %s: %s\n", symbol, msg)
	}
	fmt.Println()

	return nil
}
