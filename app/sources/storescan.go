package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grantscout/grantscout/app/cache"
	"github.com/grantscout/grantscout/app/grant"
)

var _ Adapter = (*StoreScanAdapter)(nil)

// scanLimit bounds how many cached responses one search will re-examine.
const scanLimit = 25

// StoreScanAdapter mines previously cached search responses for records that
// also match the live query. Purely local: no network, so it is cheap to run
// on every enhanced search.
type StoreScanAdapter struct {
	store cache.Store
	limit int
}

func NewStoreScanAdapter(store cache.Store, limit int) *StoreScanAdapter {
	return &StoreScanAdapter{
		store: store,
		limit: limit,
	}
}

func (a *StoreScanAdapter) Name() string {
	return NameStoreScan
}

func (a *StoreScanAdapter) Enabled(query grant.SearchQuery) bool {
	return true
}

func (a *StoreScanAdapter) Search(ctx context.Context, query grant.SearchQuery) ([]grant.Record, error) {
	var records []grant.Record
	seen := make(map[string]bool)

	for _, prefix := range []string{grant.CachePrefixSearch, grant.CachePrefixEnhanced} {
		values, err := a.store.ScanValues(ctx, prefix, scanLimit)
		if err != nil {
			return nil, fmt.Errorf("store scan failed: %w", err)
		}

		for _, value := range values {
			var cached grant.SearchResponse
			if err := json.Unmarshal([]byte(value), &cached); err != nil {
				continue // stale or foreign payload, skip
			}

			for _, record := range cached.Results {
				if len(records) >= a.limit {
					return records, nil
				}
				if seen[record.ID] || !a.matches(record, query) {
					continue
				}
				seen[record.ID] = true

				// Re-score against the live query: the cached score belongs
				// to the query that produced it.
				record.MatchPercentage = grant.MatchScore(
					record.Title, record.Description, query.Query,
					record.Category, query.Category)
				records = append(records, record)
			}
		}
	}

	return records, nil
}

func (a *StoreScanAdapter) matches(record grant.Record, query grant.SearchQuery) bool {
	text := strings.ToLower(record.Title + " " + record.Description)
	for _, term := range strings.Fields(strings.ToLower(query.Query)) {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
