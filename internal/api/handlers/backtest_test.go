package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

// recordingHub captures broadcast events for assertions.
type recordingHub struct {
	mu     sync.Mutex
	events []progressEvent
}

func (h *recordingHub) Broadcast(v interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, v.(progressEvent))
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Type
	}
	return out
}

func postRun(h *BacktestHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/backtest/run", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Run(rec, req)
	return rec
}

func TestRunBacktest(t *testing.T) {
	hub := &recordingHub{}
	run := func(ctx context.Context, start, end time.Time, progress func(contracts.EquityPoint)) (*contracts.BacktestResult, error) {
		progress(contracts.EquityPoint{Date: start, Equity: 1_000_000})
		progress(contracts.EquityPoint{Date: end, Equity: 1_020_000})
		return &contracts.BacktestResult{
			StartDate:      start,
			EndDate:        end,
			InitialCapital: 1_000_000,
			FinalCapital:   1_020_000,
			TotalReturnPct: 2.0,
			TotalTrades:    3,
			WinRatePct:     66.67,
		}, nil
	}
	h := NewBacktestHandler(run, hub, logger.NewNop())

	rec := postRun(h, `{"start_date":"2024-01-01","end_date":"2024-03-29"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, 2.0, doc["total_return_pct"])
	assert.Equal(t, 1_020_000.0, doc["final_capital"])

	assert.Equal(t, []string{"started", "equity", "equity", "completed"}, hub.types())
	assert.Equal(t, "2024-01-01", hub.events[1].Date)
	assert.Equal(t, 1_020_000.0, hub.events[2].Equity)
}

func TestRunBacktestRejectsBadInput(t *testing.T) {
	h := NewBacktestHandler(nil, &recordingHub{}, logger.NewNop())

	cases := []string{
		`not json`,
		`{"start_date":"Jan 1","end_date":"2024-03-29"}`,
		`{"start_date":"2024-01-01","end_date":"bad"}`,
		`{"start_date":"2024-03-29","end_date":"2024-01-01"}`,
	}
	for _, body := range cases {
		rec := postRun(h, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestRunBacktestFailure(t *testing.T) {
	hub := &recordingHub{}
	run := func(ctx context.Context, start, end time.Time, progress func(contracts.EquityPoint)) (*contracts.BacktestResult, error) {
		return nil, fmt.Errorf("no market data")
	}
	h := NewBacktestHandler(run, hub, logger.NewNop())

	rec := postRun(h, `{"start_date":"2024-01-01","end_date":"2024-03-29"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"started", "failed"}, hub.types())
	assert.Contains(t, hub.events[1].Error, "no market data")
}

func TestRunBacktestRejectsConcurrent(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	run := func(ctx context.Context, start, end time.Time, progress func(contracts.EquityPoint)) (*contracts.BacktestResult, error) {
		close(started)
		<-release
		return &contracts.BacktestResult{StartDate: start, EndDate: end}, nil
	}
	h := NewBacktestHandler(run, &recordingHub{}, logger.NewNop())

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- postRun(h, `{"start_date":"2024-01-01","end_date":"2024-03-29"}`)
	}()

	<-started
	rec := postRun(h, `{"start_date":"2024-01-01","end_date":"2024-03-29"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	first := <-done
	assert.Equal(t, http.StatusOK, first.Code)
}
