package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/variety-jones/cptracker/pkg/models"
)

// Refresher is the part of the tracker the scheduler drives.
type Refresher interface {
	UpdateAll(ctx context.Context) (models.BatchResult, error)
}

// RankingScheduler refreshes every tracked user at fixed intervals.
type RankingScheduler struct {
	refresher Refresher
	cooldown  time.Duration
}

// RunOnce performs a single refresh and logs its summary.
func (sch *RankingScheduler) RunOnce(ctx context.Context) (models.BatchResult, error) {
	zap.S().Info("Starting automatic ranking update...")
	result, err := sch.refresher.UpdateAll(ctx)
	if err != nil {
		zap.S().Errorf("ranking update failed with error %v", err)
		return result, err
	}
	for _, f := range result.Failed {
		zap.S().Errorf("Failed to update %s: %s", f.Username, f.Error)
	}
	zap.S().Infof("Ranking update complete: %d updated, %d failed",
		result.Updated, len(result.Failed))
	return result, nil
}

// Start is a blocking call that refreshes the rankings, then sleeps for the
// cooldown, until ctx is cancelled.
func (sch *RankingScheduler) Start(ctx context.Context) {
	for {
		// Errors are already logged; the next round retries.
		_, _ = sch.RunOnce(ctx)

		zap.S().Infof("Sleeping for %v", sch.cooldown)
		select {
		case <-ctx.Done():
			zap.S().Info("Ranking scheduler stopped")
			return
		case <-time.After(sch.cooldown):
		}
	}
}

// NewScheduler creates a new instance of the scheduler.
func NewScheduler(refresher Refresher, coolDown time.Duration) *RankingScheduler {
	sch := new(RankingScheduler)
	sch.refresher = refresher
	sch.cooldown = coolDown

	return sch
}
