package store

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/wonny/trishul/internal/contracts"
)

// ScoreParquetRecord is the Parquet schema for one symbol's scores.
type ScoreParquetRecord struct {
	Symbol          string  `parquet:"symbol"`
	Date            int64   `parquet:"date,timestamp(millisecond)"`
	TrendStrength   float64 `parquet:"trend_strength_score"`
	BreakoutQuality float64 `parquet:"breakout_quality_score"`
	Volatility      float64 `parquet:"volatility_score"`
	Risk            float64 `parquet:"risk_score"`
	Liquidity       float64 `parquet:"liquidity_score"`
	Composite       float64 `parquet:"composite_score"`
	Rank            int32   `parquet:"rank"`
}

// WriteScoresParquet writes the day's ranking as a Parquet file.
func WriteScoresParquet(path string, date time.Time, records []contracts.ScoreRecord) error {
	rows := make([]ScoreParquetRecord, 0, len(records))
	dateMillis := contracts.Day(date).UnixMilli()
	for _, rec := range records {
		rows = append(rows, ScoreParquetRecord{
			Symbol:          rec.Symbol,
			Date:            dateMillis,
			TrendStrength:   rec.TrendStrength,
			BreakoutQuality: rec.BreakoutQuality,
			Volatility:      rec.Volatility,
			Risk:            rec.Risk,
			Liquidity:       rec.Liquidity,
			Composite:       rec.Composite,
			Rank:            int32(rec.Rank),
		})
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet %s: %w", path, err)
	}
	return nil
}

// ReadScoresParquet reads a ranking Parquet file back into score
// records, preserving row order.
func ReadScoresParquet(path string) ([]contracts.ScoreRecord, time.Time, error) {
	rows, err := parquet.ReadFile[ScoreParquetRecord](path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read parquet %s: %w", path, err)
	}

	records := make([]contracts.ScoreRecord, 0, len(rows))
	var date time.Time
	for _, row := range rows {
		date = time.UnixMilli(row.Date).UTC()
		records = append(records, contracts.ScoreRecord{
			Symbol:          row.Symbol,
			TrendStrength:   row.TrendStrength,
			BreakoutQuality: row.BreakoutQuality,
			Volatility:      row.Volatility,
			Risk:            row.Risk,
			Liquidity:       row.Liquidity,
			Composite:       row.Composite,
			Rank:            int(row.Rank),
		})
	}
	return records, date, nil
}
