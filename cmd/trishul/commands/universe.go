package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/trishul/internal/universe"
	"github.com/wonny/trishul/pkg/httputil"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Manage the stock universe",
}

var universeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configured universe",
	RunE:  runUniverseShow,
}

var universeRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the universe from the NIFTY 50 constituent list",
	Long: `Scrapes the current NIFTY 50 constituents and rewrites the
universe file. Review the diff before committing it; constituent
changes shift every backtest that follows.

Example:
  go run ./cmd/trishul universe refresh`,
	RunE: runUniverseRefresh,
}

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeShowCmd)
	universeCmd.AddCommand(universeRefreshCmd)
}

func runUniverseShow(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}

	u, err := a.loadUniverse()
	if err != nil {
		return err
	}

	fmt.Printf("Index: %s\n", u.IndexSymbol)
	fmt.Printf("Symbols (%d):\n", len(u.Symbols))
	for _, s := range u.Symbols {
		fmt.Printf("  • %s\n", s)
	}

	return nil
}

func runUniverseRefresh(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Trishul Universe Refresh ===")

	a, err := initApp()
	if err != nil {
		return err
	}

	scraper := universe.NewScraper(httputil.New(a.log), a.log)
	symbols, err := scraper.FetchConstituents(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch constituents: %w", err)
	}

	if err := universe.Save(a.cfg.UniverseFile, "NIFTY 50 constituents", symbols); err != nil {
		return fmt.Errorf("save universe: %w", err)
	}

	fmt.Printf("✅ Saved %d symbols to %s\n", len(symbols), a.cfg.UniverseFile)
	return nil
}
