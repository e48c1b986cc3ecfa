package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trishul",
	Short: "Trishul - NSE swing-trading research pipeline",
	Long: `Trishul Unified CLI

Daily-bar research pipeline for NSE equities: fetch candles from the
Dhan API, score the universe on trend and breakout factors, detect the
market regime and backtest the swing strategy.

Usage:
  go run ./cmd/trishul [command]

Examples:
  go run ./cmd/trishul fetch --days 400
  go run ./cmd/trishul score
  go run ./cmd/trishul backtest --from 2023-01-01 --to 2023-12-31
  go run ./cmd/trishul serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
