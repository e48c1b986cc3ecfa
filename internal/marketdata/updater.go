package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

// Fetcher fetches daily candles for one instrument.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol, securityID string, from, to time.Time) ([]contracts.Bar, error)
}

// IDResolver maps trading symbols to broker security IDs.
type IDResolver interface {
	SecurityIDs(ctx context.Context, symbols []string) (map[string]string, []string, error)
}

// Updater refreshes the local bar store from the broker API.
type Updater struct {
	fetcher  Fetcher
	resolver IDResolver
	store    *Store
	logger   *logger.Logger
}

// NewUpdater creates an updater writing into the given store.
func NewUpdater(fetcher Fetcher, resolver IDResolver, store *Store, log *logger.Logger) *Updater {
	return &Updater{
		fetcher:  fetcher,
		resolver: resolver,
		store:    store,
		logger:   log,
	}
}

// UpdateResult summarizes one update pass.
type UpdateResult struct {
	Fetched map[string]int    // symbol -> bars saved
	Missing []string          // symbols with no security ID
	Failed  map[string]string // symbol -> error
}

// Update fetches [from, to] bars for every symbol and merges them into
// the store. Symbols that cannot be resolved or fetched are reported in
// the result rather than aborting the pass.
func (u *Updater) Update(ctx context.Context, symbols []string, from, to time.Time) (*UpdateResult, error) {
	ids, missing, err := u.resolver.SecurityIDs(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("resolve security IDs: %w", err)
	}

	result := &UpdateResult{
		Fetched: make(map[string]int),
		Missing: missing,
		Failed:  make(map[string]string),
	}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("update aborted: %w", err)
		}

		id, ok := ids[symbol]
		if !ok {
			continue
		}

		bars, err := u.fetcher.FetchDaily(ctx, symbol, id, from, to)
		if err != nil {
			u.logger.WithError(err).WithField("symbol", symbol).Warn("Fetch failed, skipping symbol")
			result.Failed[symbol] = err.Error()
			continue
		}
		if len(bars) == 0 {
			u.logger.WithField("symbol", symbol).Warn("No candles returned")
			continue
		}

		if err := u.store.Save(symbol, bars); err != nil {
			result.Failed[symbol] = err.Error()
			continue
		}
		result.Fetched[symbol] = len(bars)
	}

	u.logger.WithFields(map[string]interface{}{
		"fetched": len(result.Fetched),
		"missing": len(result.Missing),
		"failed":  len(result.Failed),
	}).Info("Market data update completed")

	return result, nil
}
