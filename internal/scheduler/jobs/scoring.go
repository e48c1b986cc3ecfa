package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/trishul/internal/pipeline"
	"github.com/wonny/trishul/pkg/logger"
)

// ScoringJob runs the scoring pipeline nightly, after the fetch job
// has refreshed the bar store.
type ScoringJob struct {
	pipeline *pipeline.Pipeline
	logger   *logger.Logger
}

// NewScoringJob creates a new scoring job
func NewScoringJob(p *pipeline.Pipeline, log *logger.Logger) *ScoringJob {
	return &ScoringJob{
		pipeline: p,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScoringJob) Name() string {
	return "daily_scoring"
}

// Schedule returns the cron schedule (7 PM on trading weekdays,
// after the fetch)
func (j *ScoringJob) Schedule() string {
	return "0 0 19 * * 1-5"
}

// Run executes the scoring pipeline
func (j *ScoringJob) Run(ctx context.Context) error {
	result, err := j.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("scoring run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"date":   result.Date.Format("2006-01-02"),
		"scored": result.Scored,
		"regime": result.Regime.Regime,
	}).Info("Scheduled scoring completed")

	return nil
}
