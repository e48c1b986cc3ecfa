package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/pkg/logger"
)

func writeArtifact(t *testing.T, dir, date, name, content string) {
	t.Helper()
	full := filepath.Join(dir, date)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, name), []byte(content), 0o644))
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeArtifact(t, dir, "2024-06-13", "stock_scores.json", `{"date":"2024-06-13"}`)
	writeArtifact(t, dir, "2024-06-13", "market_regime.json", `{"date":"2024-06-13","regime":"SIDEWAYS"}`)
	writeArtifact(t, dir, "2024-06-14", "stock_scores.json", `{"date":"2024-06-14"}`)
	writeArtifact(t, dir, "2024-06-14", "market_regime.json", `{"date":"2024-06-14","regime":"BULL"}`)
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "backtest_2024-01-01_to_2024-03-29.json"),
		[]byte(`{"start_date":"2024-01-01"}`), 0o644))
	return dir
}

func getDated(h *ResultsHandler, fn func(http.ResponseWriter, *http.Request), date string) *httptest.ResponseRecorder {
	req := mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"date": date})
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestGetScoresByDate(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())

	rec := getDated(h, h.GetScores, "2024-06-13")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2024-06-13", doc["date"])
}

func TestGetScoresLatest(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())

	rec := getDated(h, h.GetScores, "latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2024-06-14", doc["date"])
}

func TestGetScoresBadDate(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())
	rec := getDated(h, h.GetScores, "June-14")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScoresNotFound(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())
	rec := getDated(h, h.GetScores, "2024-06-17")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScoresLatestEmptyDir(t *testing.T) {
	h := NewResultsHandler(t.TempDir(), logger.NewNop())
	rec := getDated(h, h.GetScores, "latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRegimeLatest(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())

	rec := getDated(h, h.GetRegime, "latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "BULL", doc["regime"])
}

func TestListBacktests(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())

	rec := httptest.NewRecorder()
	h.ListBacktests(rec, httptest.NewRequest("GET", "/api/backtests", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Backtests []string `json:"backtests"`
		Count     int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, 1, doc.Count)
	assert.Equal(t, []string{"backtest_2024-01-01_to_2024-03-29.json"}, doc.Backtests)
}

func TestGetBacktest(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())

	req := mux.SetURLVars(httptest.NewRequest("GET", "/", nil),
		map[string]string{"name": "backtest_2024-01-01_to_2024-03-29.json"})
	rec := httptest.NewRecorder()
	h.GetBacktest(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-01-01")
}

func TestGetBacktestRejectsInvalidName(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())

	for _, name := range []string{"../secrets.json", "scores.json", "backtest_x.txt"} {
		req := mux.SetURLVars(httptest.NewRequest("GET", "/", nil), map[string]string{"name": name})
		rec := httptest.NewRecorder()
		h.GetBacktest(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestGetBacktestMissing(t *testing.T) {
	h := NewResultsHandler(fixtureDir(t), logger.NewNop())

	req := mux.SetURLVars(httptest.NewRequest("GET", "/", nil),
		map[string]string{"name": "backtest_2025-01-01_to_2025-03-29.json"})
	rec := httptest.NewRecorder()
	h.GetBacktest(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
