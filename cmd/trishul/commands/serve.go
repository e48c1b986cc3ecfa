package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/trishul/internal/api"
	"github.com/wonny/trishul/internal/api/handlers"
	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/internal/marketdata"
	"github.com/wonny/trishul/internal/pipeline"
	"github.com/wonny/trishul/internal/scheduler"
	"github.com/wonny/trishul/internal/scheduler/jobs"
	"github.com/wonny/trishul/internal/store"
	"github.com/wonny/trishul/pkg/database"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and nightly scheduler",
	Long: `Starts the dashboard API and the nightly jobs.

Endpoints:
  GET  /health                 - Health check
  GET  /api/scores/{date}      - Daily scores (date or "latest")
  GET  /api/regime/{date}      - Regime snapshot
  GET  /api/backtests          - Completed backtest reports
  GET  /api/backtests/{name}   - One backtest report
  POST /api/backtest/run       - Run a backtest
  WS   /ws/backtest            - Live backtest equity stream

Scheduled jobs:
  market_data_fetch  6 PM daily (when DHAN_ACCESS_TOKEN is set)
  daily_scoring      7 PM daily

Example:
  go run ./cmd/trishul serve
  go run ./cmd/trishul serve --port 8090`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default: PORT env)")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Trishul Server ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	if servePort != "" {
		a.cfg.Port = servePort
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
		a.log.Info("Connected to database")
	}

	writer := store.NewWriter(a.cfg.OutputDir, a.log)

	p := pipeline.New(pipeline.Options{
		Strategy:   a.strategy,
		ConfigHash: a.configHash,
		Universe:   u,
		Bars:       marketdata.NewStore(a.cfg.DataDir, a.log),
		Writer:     writer,
		Repo:       repo,
		Workers:    4,
		Logger:     a.log,
	})

	// Nightly jobs
	sched := scheduler.New(a.log)
	if a.cfg.Dhan.AccessToken != "" {
		updater, err := a.newUpdater()
		if err != nil {
			return err
		}
		fetchJob := jobs.NewFetchJob(updater, a.cfg, a.strategy.Universe.IndexSymbol, a.log)
		if err := sched.AddJob(fetchJob); err != nil {
			return err
		}
	} else {
		a.log.Warn("DHAN_ACCESS_TOKEN not set, market data fetch job disabled")
	}
	if err := sched.AddJob(jobs.NewScoringJob(p, a.log)); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// HTTP API
	hub := api.NewHub(a.log)
	runFn := func(ctx context.Context, start, end time.Time, progress func(contracts.EquityPoint)) (*contracts.BacktestResult, error) {
		sim, err := a.newSimulator(start, end)
		if err != nil {
			return nil, err
		}
		result, err := sim.WithProgress(progress).Run(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := writer.WriteBacktest(result); err != nil {
			return nil, err
		}
		return result, nil
	}

	router := api.NewRouter(
		handlers.NewResultsHandler(a.cfg.OutputDir, a.log),
		handlers.NewBacktestHandler(runFn, hub, a.log),
		hub,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
