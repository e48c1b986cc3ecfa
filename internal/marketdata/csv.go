// Package marketdata loads and persists daily OHLCV bar series as
// per-symbol CSV files under the data directory.
package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

var csvHeader = []string{"date", "open", "high", "low", "close", "volume"}

// Store reads and writes per-symbol bar CSVs in a single directory.
type Store struct {
	dir    string
	logger *logger.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, log *logger.Logger) *Store {
	return &Store{dir: dir, logger: log}
}

// path returns the CSV path for a symbol.
func (s *Store) path(symbol string) string {
	return filepath.Join(s.dir, symbol+".csv")
}

// Load reads one symbol's bar series. A missing file or a malformed
// header yields (nil, nil): the symbol is skipped, not fatal. A series
// with out-of-order or duplicate dates is corrupt and returns an
// error, because every downstream computation assumes ascending
// unique dates.
func (s *Store) Load(symbol string) ([]contracts.Bar, error) {
	f, err := os.Open(s.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("symbol", symbol).Debug("No data file, skipping symbol")
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.path(symbol), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		s.logger.WithField("symbol", symbol).Warn("Empty data file, skipping symbol")
		return nil, nil
	}

	cols := columnIndex(header)
	for _, required := range csvHeader {
		if _, ok := cols[required]; !ok {
			s.logger.WithFields(map[string]interface{}{
				"symbol":  symbol,
				"missing": required,
			}).Warn("Data file missing column, skipping symbol")
			return nil, nil
		}
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path(symbol), err)
	}

	bars := make([]contracts.Bar, 0, len(records))
	for i, rec := range records {
		bar, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", s.path(symbol), i+2, err)
		}
		bars = append(bars, bar)
	}

	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return nil, fmt.Errorf("%s: dates not strictly ascending at row %d (%s)",
				s.path(symbol), i+2, bars[i].Date.Format("2006-01-02"))
		}
	}

	return bars, nil
}

// LoadAll loads every symbol's series, silently dropping symbols
// without usable data. The returned map holds only non-empty series.
func (s *Store) LoadAll(symbols []string) (map[string][]contracts.Bar, error) {
	data := make(map[string][]contracts.Bar, len(symbols))
	for _, symbol := range symbols {
		bars, err := s.Load(symbol)
		if err != nil {
			return nil, err
		}
		if len(bars) > 0 {
			data[symbol] = bars
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"loaded":    len(data),
	}).Info("Loaded market data")

	return data, nil
}

// Save writes a symbol's series, merging with any existing file.
// Merging keeps the newer bar on duplicate dates and re-sorts, so
// repeated fetches over overlapping ranges stay idempotent.
func (s *Store) Save(symbol string, bars []contracts.Bar) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	existing, err := s.Load(symbol)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Warn("Could not merge existing data file, overwriting")
		existing = nil
	}

	merged := make(map[time.Time]contracts.Bar, len(existing)+len(bars))
	for _, b := range existing {
		merged[contracts.Day(b.Date)] = b
	}
	for _, b := range bars {
		merged[contracts.Day(b.Date)] = b
	}

	out := make([]contracts.Bar, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	f, err := os.Create(s.path(symbol))
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path(symbol), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, b := range out {
		rec := []string{
			b.Date.Format("2006-01-02"),
			formatPrice(b.Open),
			formatPrice(b.High),
			formatPrice(b.Low),
			formatPrice(b.Close),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path(symbol), err)
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(out),
	}).Debug("Saved market data")

	return nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	return cols
}

func parseBar(rec []string, cols map[string]int) (contracts.Bar, error) {
	get := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	date, err := time.Parse("2006-01-02", get("date"))
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("parse date %q: %w", get("date"), err)
	}

	var bar contracts.Bar
	bar.Date = contracts.Day(date)

	for _, field := range []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
	} {
		v, err := strconv.ParseFloat(get(field.name), 64)
		if err != nil {
			return contracts.Bar{}, fmt.Errorf("parse %s %q: %w", field.name, get(field.name), err)
		}
		*field.dst = v
	}

	// Volume columns sometimes carry a decimal point.
	vol, err := strconv.ParseFloat(get("volume"), 64)
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("parse volume %q: %w", get("volume"), err)
	}
	bar.Volume = int64(vol)

	return bar, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
