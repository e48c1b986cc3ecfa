package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

// BacktestFunc runs one backtest over the given window, invoking
// progress after each simulated day.
type BacktestFunc func(ctx context.Context, start, end time.Time, progress func(contracts.EquityPoint)) (*contracts.BacktestResult, error)

// Broadcaster pushes events to connected dashboard clients.
type Broadcaster interface {
	Broadcast(v interface{})
}

// BacktestHandler runs backtests on demand and streams their progress
// over the WebSocket hub.
type BacktestHandler struct {
	run    BacktestFunc
	hub    Broadcaster
	logger *logger.Logger

	mu sync.Mutex // one backtest at a time
}

// NewBacktestHandler creates a backtest handler.
func NewBacktestHandler(run BacktestFunc, hub Broadcaster, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		run:    run,
		hub:    hub,
		logger: log,
	}
}

type backtestRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type progressEvent struct {
	Type   string  `json:"type"`
	Date   string  `json:"date,omitempty"`
	Equity float64 `json:"equity,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// Run handles POST /api/backtest/run
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}

	if !h.mu.TryLock() {
		respondError(w, http.StatusConflict, "A backtest is already running")
		return
	}
	defer h.mu.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"start": req.StartDate,
		"end":   req.EndDate,
	}).Info("Backtest requested")

	h.hub.Broadcast(progressEvent{Type: "started"})

	result, err := h.run(r.Context(), start, end, func(pt contracts.EquityPoint) {
		h.hub.Broadcast(progressEvent{
			Type:   "equity",
			Date:   pt.Date.Format("2006-01-02"),
			Equity: pt.Equity,
		})
	})
	if err != nil {
		h.hub.Broadcast(progressEvent{Type: "failed", Error: err.Error()})
		h.logger.WithError(err).Error("Backtest failed")
		respondError(w, http.StatusInternalServerError, "Backtest failed: "+err.Error())
		return
	}

	h.hub.Broadcast(progressEvent{Type: "completed"})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"start_date":       result.StartDate.Format("2006-01-02"),
		"end_date":         result.EndDate.Format("2006-01-02"),
		"initial_capital":  result.InitialCapital,
		"final_capital":    result.FinalCapital,
		"total_return_pct": result.TotalReturnPct,
		"total_trades":     result.TotalTrades,
		"win_rate_pct":     result.WinRatePct,
		"max_drawdown_pct": result.MaxDrawdownPct,
		"sharpe_ratio":     result.SharpeRatio,
	})
}
