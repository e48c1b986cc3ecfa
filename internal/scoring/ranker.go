package scoring

import (
	"sort"

	"github.com/wonny/trishul/internal/contracts"
	"github.com/wonny/trishul/pkg/logger"
)

// Ranker scores a universe of feature rows and assigns composite ranks.
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a ranker.
func NewRanker(log *logger.Logger) *Ranker {
	return &Ranker{logger: log}
}

// Rank scores every row and orders the records by composite score,
// best first, with a dense 1-based rank. The sort is stable: ties keep
// their input order, so the result is independent of scoring
// concurrency.
func (r *Ranker) Rank(rows []contracts.FeatureRow) []contracts.ScoreRecord {
	records := make([]contracts.ScoreRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, ScoreStock(row))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Composite > records[j].Composite
	})

	for i := range records {
		records[i].Rank = i + 1
	}

	if len(records) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"total_stocks": len(records),
			"top_symbol":   records[0].Symbol,
			"top_score":    records[0].Composite,
		}).Info("Universe ranking completed")
	}

	return records
}
