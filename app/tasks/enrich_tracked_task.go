package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/grantscout/grantscout/app/database"
	"github.com/grantscout/grantscout/app/grant"
)

const (
	// minDescriptionLen is the length below which a tracked grant's
	// description is considered worth enriching from the listing page.
	minDescriptionLen = 80

	// maxEnrichAttemptsPerRun bounds outbound page fetches per task run so
	// a large backlog cannot monopolize a worker.
	maxEnrichAttemptsPerRun = 10

	maxPageBytes = 2 << 20
)

// EnrichTrackedTask fills in missing or stub descriptions on tracked grants
// by fetching each grant's listing page and extracting its readable text.
// Search adapters often return truncated summaries; enrichment upgrades them
// in place without touching user-managed fields.
type EnrichTrackedTask struct {
	Task
	repo      database.GrantRepository
	client    *http.Client
	userAgent string
	extractor *ContentExtractor
}

func NewEnrichTrackedTask(repo database.GrantRepository, client *http.Client, userAgent string) *EnrichTrackedTask {
	return &EnrichTrackedTask{
		Task:      NewTask(TaskTypeEnrichTracked),
		repo:      repo,
		client:    client,
		userAgent: userAgent,
		extractor: NewContentExtractor(),
	}
}

func (t *EnrichTrackedTask) Execute(ctx context.Context) error {
	userIDs, err := t.repo.ListUserIDs()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	attempts := 0
	enriched := 0

	for _, userID := range userIDs {
		if attempts >= maxEnrichAttemptsPerRun {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		list, err := t.repo.LoadList(userID)
		if err != nil {
			slog.Warn("Failed to load tracked grants for enrichment", "user_id", userID, "error", err)
			continue
		}

		changed := false
		for i := range list.Grants {
			if attempts >= maxEnrichAttemptsPerRun {
				break
			}
			if !t.needsEnrichment(&list.Grants[i]) {
				continue
			}

			attempts++
			description, err := t.fetchDescription(ctx, list.Grants[i].URL)
			if err != nil {
				slog.Debug("Grant enrichment fetch failed", "grant_id", list.Grants[i].ID, "url", list.Grants[i].URL, "error", err)
				continue
			}

			list.Grants[i].Description = grant.Truncate(description, grant.DescriptionMaxLen)
			list.Grants[i].LastUpdate = grant.Now().Format(time.RFC3339)
			changed = true
			enriched++
		}

		if changed {
			list.Timestamp = grant.Now().Format(time.RFC3339)
			if err := t.repo.SaveList(*list); err != nil {
				slog.Warn("Failed to save enriched grants", "user_id", userID, "error", err)
			}
		}
	}

	if enriched > 0 {
		slog.Info("Task completed", "type", "EnrichTracked", "duration", t.GetDuration(), "enriched", enriched, "attempts", attempts)
	}

	return nil
}

func (t *EnrichTrackedTask) needsEnrichment(g *grant.TrackedGrant) bool {
	return len(g.Description) < minDescriptionLen && g.URL != ""
}

func (t *EnrichTrackedTask) fetchDescription(ctx context.Context, url string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return t.extractor.Run(data)
}
