package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grantscout/grantscout/app/cache"
)

// PruneCacheTask removes expired cache rows. The SQLite backend has no
// native TTL expiry, so without periodic pruning dead entries accumulate
// until they dominate the table.
type PruneCacheTask struct {
	Task
	store cache.Store
}

func NewPruneCacheTask(store cache.Store) *PruneCacheTask {
	return &PruneCacheTask{
		Task:  NewTask(TaskTypePruneCache),
		store: store,
	}
}

func (t *PruneCacheTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	count, err := t.store.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	if count > 0 {
		slog.Info("Task completed", "type", "PruneCache", "duration", t.GetDuration(), "pruned", count)
	}

	return nil
}
