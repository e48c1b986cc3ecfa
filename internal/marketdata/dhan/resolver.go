package dhan

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/trishul/pkg/httputil"
	"github.com/wonny/trishul/pkg/logger"
)

// scripMasterURL serves the full instrument master as CSV.
const scripMasterURL = "https://images.dhan.co/api-data/api-scrip-master.csv"

// Resolver maps NSE trading symbols to Dhan security IDs using the
// instrument master. The master is cached on disk because it is large
// and changes rarely.
type Resolver struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
	cachePath  string
	bySymbol   map[string]string
}

// NewResolver creates a resolver caching the instrument master at
// cachePath. An empty cachePath disables caching.
func NewResolver(httpClient *httputil.Client, log *logger.Logger, cachePath string) *Resolver {
	return &Resolver{
		httpClient: httpClient,
		logger:     log,
		url:        scripMasterURL,
		cachePath:  cachePath,
	}
}

// SecurityID resolves one symbol, trying the exact symbol first and
// then the equity-series form with an -EQ suffix.
func (r *Resolver) SecurityID(ctx context.Context, symbol string) (string, error) {
	if err := r.load(ctx, false); err != nil {
		return "", err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if id, ok := r.bySymbol[symbol]; ok {
		return id, nil
	}
	if id, ok := r.bySymbol[symbol+"-EQ"]; ok {
		return id, nil
	}
	return "", fmt.Errorf("security id not found for %s", symbol)
}

// SecurityIDs resolves many symbols, returning the found mapping and
// the symbols with no entry in the master.
func (r *Resolver) SecurityIDs(ctx context.Context, symbols []string) (map[string]string, []string, error) {
	found := make(map[string]string, len(symbols))
	var missing []string
	for _, symbol := range symbols {
		id, err := r.SecurityID(ctx, symbol)
		if err != nil {
			if r.bySymbol == nil {
				return nil, nil, err
			}
			missing = append(missing, symbol)
			continue
		}
		found[symbol] = id
	}
	return found, missing, nil
}

// Refresh re-downloads the instrument master, bypassing the cache.
func (r *Resolver) Refresh(ctx context.Context) error {
	return r.load(ctx, true)
}

func (r *Resolver) load(ctx context.Context, force bool) error {
	if r.bySymbol != nil && !force {
		return nil
	}

	var reader io.ReadCloser
	if !force && r.cachePath != "" {
		if f, err := os.Open(r.cachePath); err == nil {
			r.logger.WithField("path", r.cachePath).Debug("Loading instrument master from cache")
			reader = f
		}
	}

	if reader == nil {
		resp, err := r.httpClient.Get(ctx, r.url)
		if err != nil {
			return fmt.Errorf("fetch instrument master: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("instrument master status code: %d", resp.StatusCode)
		}

		if r.cachePath != "" {
			if err := r.writeCache(resp.Body); err != nil {
				return err
			}
			f, err := os.Open(r.cachePath)
			if err != nil {
				return fmt.Errorf("reopen instrument cache: %w", err)
			}
			reader = f
		} else {
			reader = resp.Body
		}
	}
	defer reader.Close()

	bySymbol, err := parseScripMaster(reader)
	if err != nil {
		return err
	}

	r.bySymbol = bySymbol
	r.logger.WithField("instruments", len(bySymbol)).Info("Loaded instrument master")
	return nil
}

func (r *Resolver) writeCache(body io.Reader) error {
	if dir := filepath.Dir(r.cachePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	f, err := os.Create(r.cachePath)
	if err != nil {
		return fmt.Errorf("create instrument cache: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return fmt.Errorf("write instrument cache: %w", err)
	}
	return nil
}

// parseScripMaster indexes NSE rows by trading symbol. Rows from other
// exchanges are dropped.
func parseScripMaster(reader io.Reader) (map[string]string, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read instrument master header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	symbolCol, ok := cols["SEM_TRADING_SYMBOL"]
	if !ok {
		return nil, fmt.Errorf("instrument master missing SEM_TRADING_SYMBOL column")
	}
	idCol, ok := cols["SEM_SMST_SECURITY_ID"]
	if !ok {
		return nil, fmt.Errorf("instrument master missing SEM_SMST_SECURITY_ID column")
	}
	exchCol, hasExch := cols["SEM_EXM_EXCH_ID"]

	bySymbol := make(map[string]string)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read instrument master row: %w", err)
		}
		if symbolCol >= len(rec) || idCol >= len(rec) {
			continue
		}
		if hasExch && exchCol < len(rec) && strings.TrimSpace(rec[exchCol]) != "NSE" {
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(rec[symbolCol]))
		id := strings.TrimSpace(rec[idCol])
		if symbol == "" || id == "" {
			continue
		}
		// First entry wins on duplicate symbols across segments.
		if _, exists := bySymbol[symbol]; !exists {
			bySymbol[symbol] = id
		}
	}

	return bySymbol, nil
}
