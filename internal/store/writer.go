// Package store persists pipeline outputs: date-partitioned JSON and
// Parquet artifacts on disk, with optional Postgres persistence.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

const (
	scoresJSONFile    = "stock_scores.json"
	scoresParquetFile = "stock_scores.parquet"
	regimeFile        = "market_regime.json"
)

// Writer persists scoring and backtest outputs under the output
// directory. Scoring artifacts are partitioned by date:
//
//	<out>/<YYYY-MM-DD>/stock_scores.json
//	<out>/<YYYY-MM-DD>/stock_scores.parquet
//	<out>/<YYYY-MM-DD>/market_regime.json
//
// Backtest results live at the top level, named by their date range.
type Writer struct {
	outputDir string
	logger    *logger.Logger
}

// NewWriter creates a writer rooted at outputDir.
func NewWriter(outputDir string, log *logger.Logger) *Writer {
	return &Writer{outputDir: outputDir, logger: log}
}

// scoresDocument is the JSON layout of a day's universe ranking.
type scoresDocument struct {
	Date       string                  `json:"date"`
	StrategyID string                  `json:"strategy_id,omitempty"`
	ConfigHash string                  `json:"config_hash,omitempty"`
	Scores     []contracts.ScoreRecord `json:"scores"`
}

// regimeDocument is the JSON layout of a regime record.
type regimeDocument struct {
	Date       string  `json:"date"`
	Regime     string  `json:"regime"`
	Confidence float64 `json:"confidence"`
}

// WriteScores writes the day's ranking as JSON and Parquet.
func (w *Writer) WriteScores(date time.Time, strategyID, configHash string, records []contracts.ScoreRecord) error {
	dir, err := w.dateDir(date)
	if err != nil {
		return err
	}

	doc := scoresDocument{
		Date:       date.Format("2006-01-02"),
		StrategyID: strategyID,
		ConfigHash: configHash,
		Scores:     records,
	}
	if err := writeJSON(filepath.Join(dir, scoresJSONFile), doc); err != nil {
		return err
	}
	if err := WriteScoresParquet(filepath.Join(dir, scoresParquetFile), date, records); err != nil {
		return err
	}

	w.logger.WithFields(map[string]interface{}{
		"date":   doc.Date,
		"scores": len(records),
		"dir":    dir,
	}).Info("Wrote stock scores")

	return nil
}

// WriteRegime writes the day's market regime.
func (w *Writer) WriteRegime(rec contracts.RegimeRecord) error {
	dir, err := w.dateDir(rec.Date)
	if err != nil {
		return err
	}

	doc := regimeDocument{
		Date:       rec.Date.Format("2006-01-02"),
		Regime:     string(rec.Regime),
		Confidence: rec.Confidence,
	}
	if err := writeJSON(filepath.Join(dir, regimeFile), doc); err != nil {
		return err
	}

	w.logger.WithFields(map[string]interface{}{
		"date":       doc.Date,
		"regime":     doc.Regime,
		"confidence": doc.Confidence,
	}).Info("Wrote market regime")

	return nil
}

// backtestDocument is the JSON layout of a backtest result. Dates are
// rendered as strings for readability.
type backtestDocument struct {
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	MaxRiskPct     float64 `json:"max_risk_pct"`
	MaxPositions   int     `json:"max_positions"`
	Seed           int64   `json:"seed"`

	TotalReturnPct float64 `json:"total_return_pct"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRatePct     float64 `json:"win_rate_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	AvgTradePnL    float64 `json:"avg_trade_pnl"`
	SharpeRatio    float64 `json:"sharpe_ratio"`

	Trades []tradeDocument  `json:"trades"`
	Equity []equityDocument `json:"equity_curve"`
}

type tradeDocument struct {
	Symbol     string  `json:"symbol"`
	EntryDate  string  `json:"entry_date"`
	EntryPrice float64 `json:"entry_price"`
	StopLoss   float64 `json:"stop_loss"`
	Target     float64 `json:"target"`
	Quantity   int64   `json:"quantity"`
	ExitDate   string  `json:"exit_date"`
	ExitPrice  float64 `json:"exit_price"`
	ExitReason string  `json:"exit_reason"`
	PnL        float64 `json:"pnl"`
}

type equityDocument struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}

// WriteBacktest writes a backtest result named by its date range and
// returns the file path.
func (w *Writer) WriteBacktest(result *contracts.BacktestResult) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	doc := backtestDocument{
		StartDate:      result.StartDate.Format("2006-01-02"),
		EndDate:        result.EndDate.Format("2006-01-02"),
		InitialCapital: result.InitialCapital,
		FinalCapital:   result.FinalCapital,
		MaxRiskPct:     result.MaxRiskPct,
		MaxPositions:   result.MaxPositions,
		Seed:           result.Seed,
		TotalReturnPct: result.TotalReturnPct,
		TotalTrades:    result.TotalTrades,
		WinningTrades:  result.WinningTrades,
		LosingTrades:   result.LosingTrades,
		WinRatePct:     result.WinRatePct,
		MaxDrawdownPct: result.MaxDrawdownPct,
		AvgTradePnL:    result.AvgTradePnL,
		SharpeRatio:    result.SharpeRatio,
		Trades:         make([]tradeDocument, 0, len(result.Trades)),
		Equity:         make([]equityDocument, 0, len(result.Equity)),
	}
	for _, trade := range result.Trades {
		doc.Trades = append(doc.Trades, tradeDocument{
			Symbol:     trade.Symbol,
			EntryDate:  trade.EntryDate.Format("2006-01-02"),
			EntryPrice: trade.EntryPrice,
			StopLoss:   trade.StopLoss,
			Target:     trade.Target,
			Quantity:   trade.Quantity,
			ExitDate:   trade.ExitDate.Format("2006-01-02"),
			ExitPrice:  trade.ExitPrice,
			ExitReason: string(trade.ExitReason),
			PnL:        trade.PnL,
		})
	}
	for _, point := range result.Equity {
		doc.Equity = append(doc.Equity, equityDocument{
			Date:   point.Date.Format("2006-01-02"),
			Equity: point.Equity,
		})
	}

	name := fmt.Sprintf("backtest_%s_to_%s.json", doc.StartDate, doc.EndDate)
	path := filepath.Join(w.outputDir, name)
	if err := writeJSON(path, doc); err != nil {
		return "", err
	}

	w.logger.WithFields(map[string]interface{}{
		"path":   path,
		"trades": len(doc.Trades),
	}).Info("Wrote backtest result")

	return path, nil
}

func (w *Writer) dateDir(date time.Time) (string, error) {
	dir := filepath.Join(w.outputDir, date.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
