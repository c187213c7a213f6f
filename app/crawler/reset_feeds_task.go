package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pedromiglou/JARR/app/database"
)

// ResetStaggerSeconds spreads the reset feeds' last_retrieved timestamps
// over an hour so the next crawl cycles ramp up gradually.
const ResetStaggerSeconds = 3600

// ResetFeedsTask is the maintenance task behind forced refetches: it clears
// conditional request state on all feeds and spreads their last_retrieved
// timestamps so the crawler does not hammer every source in one cycle.
type ResetFeedsTask struct {
	Task
	feedRepo       database.FeedRepository
	staggerSeconds int
}

func NewResetFeedsTask(feedRepo database.FeedRepository, staggerSeconds int) *ResetFeedsTask {
	return &ResetFeedsTask{
		Task:           NewTask(TaskTypeResetFeeds, "all feeds"),
		feedRepo:       feedRepo,
		staggerSeconds: staggerSeconds,
	}
}

func (t *ResetFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	affected, err := t.feedRepo.ResetCrawlStates(t.staggerSeconds)
	if err != nil {
		return fmt.Errorf("failed to reset feeds: %w", err)
	}

	slog.Info("Task completed",
		"type", string(TaskTypeResetFeeds),
		"duration", t.GetDuration(),
		"feeds", affected)
	return nil
}
