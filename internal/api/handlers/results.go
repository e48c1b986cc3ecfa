package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/trishul/pkg/logger"
)

var dateDirPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ResultsHandler serves the pipeline's file artifacts: daily scores,
// regime snapshots and completed backtest reports.
type ResultsHandler struct {
	outputDir string
	logger    *logger.Logger
}

// NewResultsHandler creates a results handler over the output directory.
func NewResultsHandler(outputDir string, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		outputDir: outputDir,
		logger:    log,
	}
}

// GetScores handles GET /api/scores/{date}
// The date is YYYY-MM-DD or "latest".
func (h *ResultsHandler) GetScores(w http.ResponseWriter, r *http.Request) {
	h.serveDated(w, mux.Vars(r)["date"], "stock_scores.json")
}

// GetRegime handles GET /api/regime/{date}
func (h *ResultsHandler) GetRegime(w http.ResponseWriter, r *http.Request) {
	h.serveDated(w, mux.Vars(r)["date"], "market_regime.json")
}

// ListBacktests handles GET /api/backtests
func (h *ResultsHandler) ListBacktests(w http.ResponseWriter, r *http.Request) {
	matches, err := filepath.Glob(filepath.Join(h.outputDir, "backtest_*.json"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list backtest reports")
		respondError(w, http.StatusInternalServerError, "Failed to list backtests")
		return
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"backtests": names,
		"count":     len(names),
	})
}

// GetBacktest handles GET /api/backtests/{name}
func (h *ResultsHandler) GetBacktest(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(mux.Vars(r)["name"])
	if !strings.HasPrefix(name, "backtest_") || !strings.HasSuffix(name, ".json") {
		respondError(w, http.StatusBadRequest, "Invalid backtest name")
		return
	}

	data, err := os.ReadFile(filepath.Join(h.outputDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, http.StatusNotFound, "Backtest not found")
			return
		}
		h.logger.WithError(err).Error("Failed to read backtest report")
		respondError(w, http.StatusInternalServerError, "Failed to read backtest")
		return
	}

	respondFile(w, data)
}

func (h *ResultsHandler) serveDated(w http.ResponseWriter, date, file string) {
	if date == "latest" {
		resolved, ok := h.latestDate(file)
		if !ok {
			respondError(w, http.StatusNotFound, "No results available")
			return
		}
		date = resolved
	}

	if _, err := time.Parse("2006-01-02", date); err != nil {
		respondError(w, http.StatusBadRequest, "Date must be YYYY-MM-DD or 'latest'")
		return
	}

	data, err := os.ReadFile(filepath.Join(h.outputDir, date, file))
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, http.StatusNotFound, "No results for "+date)
			return
		}
		h.logger.WithError(err).Error("Failed to read result artifact")
		respondError(w, http.StatusInternalServerError, "Failed to read results")
		return
	}

	respondFile(w, data)
}

// latestDate finds the newest dated directory that contains the given
// artifact.
func (h *ResultsHandler) latestDate(file string) (string, bool) {
	entries, err := os.ReadDir(h.outputDir)
	if err != nil {
		return "", false
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() && dateDirPattern.MatchString(e.Name()) {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	for _, d := range dates {
		if _, err := os.Stat(filepath.Join(h.outputDir, d, file)); err == nil {
			return d, true
		}
	}
	return "", false
}
