package tasks

import (
	"context"
	"fmt"
	"time"
)

// newHistoryCleanupTask deletes chat messages older than the configured
// retention window.
func newHistoryCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "history_cleanup")

	return func(ctx context.Context) error {
		retention := deps.Config.Agent.HistoryRetention
		if retention <= 0 {
			log.WarnContext(ctx, "History retention disabled, skipping cleanup")
			return nil
		}
		cutoff := deps.now().Add(-retention)

		start := time.Now()
		deleted, err := deps.Store.DeleteMessagesOlderThan(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "History cleanup failed", "error", err, "cutoff", cutoff)
			return fmt.Errorf("history cleanup failed: %w", err)
		}

		log.InfoContext(ctx, "History cleanup completed",
			"deleted", deleted,
			"cutoff", cutoff,
			"duration", time.Since(start),
		)
		return nil
	}
}
