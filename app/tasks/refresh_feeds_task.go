package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/grantscout/grantscout/app/database"
	"github.com/grantscout/grantscout/app/sources"
)

// RefreshFeedsTask pre-warms the RSS fetch cache for enabled sources that
// are due for refresh and records fetch health in the feed_sources table.
// Searches arriving inside the TTL window then answer without an upstream
// round-trip.
type RefreshFeedsTask struct {
	Task
	configs *sources.ConfigCache
	rss     *sources.RSSAdapter
	repo    database.FeedSourceRepository
	ttl     time.Duration
	only    string
}

func NewRefreshFeedsTask(configs *sources.ConfigCache, rss *sources.RSSAdapter,
	repo database.FeedSourceRepository, ttl time.Duration) *RefreshFeedsTask {
	return &RefreshFeedsTask{
		Task:    NewTask(TaskTypeRefreshFeeds),
		configs: configs,
		rss:     rss,
		repo:    repo,
		ttl:     ttl,
	}
}

// NewRefreshSourceTask refreshes one named source immediately, ignoring the
// TTL window. Used by the admin refresh endpoint.
func NewRefreshSourceTask(name string, configs *sources.ConfigCache, rss *sources.RSSAdapter,
	repo database.FeedSourceRepository) *RefreshFeedsTask {
	return &RefreshFeedsTask{
		Task:    NewTask(TaskTypeRefreshFeeds),
		configs: configs,
		rss:     rss,
		repo:    repo,
		only:    name,
	}
}

func (t *RefreshFeedsTask) Execute(ctx context.Context) error {
	refreshed := 0
	failed := 0

	for _, config := range t.configs.GetEnabledConfigs() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if t.only != "" && config.Name != t.only {
			continue
		}
		if t.only == "" && !t.due(config.Name) {
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		_, err := t.rss.Fetch(fetchCtx, config)
		cancel()

		fetchErr := ""
		if err != nil {
			fetchErr = err.Error()
			failed++
			slog.Warn("Feed refresh failed", "source", config.Name, "error", err)
		} else {
			refreshed++
		}

		if recordErr := t.repo.RecordFetch(config.Name, time.Now().UTC(), fetchErr); recordErr != nil {
			slog.Warn("Failed to record feed fetch", "source", config.Name, "error", recordErr)
		}
	}

	if refreshed > 0 || failed > 0 {
		slog.Info("Task completed", "type", "RefreshFeeds", "duration", t.GetDuration(), "refreshed", refreshed, "failed", failed)
	}

	return nil
}

// due reports whether the source's last recorded fetch is older than the
// fetch-cache TTL. Unknown sources are always due.
func (t *RefreshFeedsTask) due(name string) bool {
	src, err := t.repo.GetSource(name)
	if err != nil || src == nil || src.LastFetchedAt == nil {
		return true
	}
	return time.Since(*src.LastFetchedAt) >= t.ttl
}
