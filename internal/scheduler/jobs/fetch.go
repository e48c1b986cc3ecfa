// Package jobs defines the nightly pipeline jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/trishul/internal/marketdata"
	"github.com/wonny/trishul/internal/universe"
	"github.com/wonny/trishul/pkg/config"
	"github.com/wonny/trishul/pkg/logger"
)

// FetchJob refreshes the local bar store after the NSE close. It
// re-reads the universe file each run so symbol changes are picked up
// without a restart.
type FetchJob struct {
	updater     *marketdata.Updater
	config      *config.Config
	indexSymbol string
	logger      *logger.Logger
}

// NewFetchJob creates a new fetch job
func NewFetchJob(updater *marketdata.Updater, cfg *config.Config, indexSymbol string, log *logger.Logger) *FetchJob {
	return &FetchJob{
		updater:     updater,
		config:      cfg,
		indexSymbol: indexSymbol,
		logger:      log,
	}
}

// Name returns the job name
func (j *FetchJob) Name() string {
	return "market_data_fetch"
}

// Schedule returns the cron schedule (6 PM on trading weekdays)
func (j *FetchJob) Schedule() string {
	return "0 0 18 * * 1-5"
}

// Run executes the market data fetch
func (j *FetchJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled market data fetch")

	u, err := universe.Load(j.config.UniverseFile, j.indexSymbol)
	if err != nil {
		return fmt.Errorf("load universe: %w", err)
	}

	// Last 10 calendar days covers weekends and exchange holidays.
	to := time.Now()
	from := to.AddDate(0, 0, -10)

	result, err := j.updater.Update(ctx, u.All(), from, to)
	if err != nil {
		return fmt.Errorf("update market data: %w", err)
	}

	if len(result.Fetched) == 0 {
		return fmt.Errorf("no symbols updated (%d missing, %d failed)",
			len(result.Missing), len(result.Failed))
	}

	return nil
}
