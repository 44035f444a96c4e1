package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/grantscout/grantscout/app/cache"
	"github.com/grantscout/grantscout/app/grant"
)

// Options carries the tunables the cache gateway needs.
type Options struct {
	MaxResults  int
	BasicTTL    time.Duration
	EnhancedTTL time.Duration
}

// Service is the cache gateway around the aggregate pipeline: derive the
// canonical key, return a cached payload on a hit, otherwise fan out,
// dedupe, rank, and store. Store failures degrade the response instead of
// failing it; the search itself never depends on the cache.
type Service struct {
	store    cache.Store
	deduper  *grant.Deduper
	basic    *Aggregator
	enhanced *Aggregator
	opts     Options
}

func NewService(store cache.Store, basic, enhanced *Aggregator, opts Options) *Service {
	return &Service{
		store:    store,
		deduper:  grant.NewDeduper(),
		basic:    basic,
		enhanced: enhanced,
		opts:     opts,
	}
}

// Search runs one aggregate search. enhanced selects the wider adapter set,
// the per-source status breakdown, and the shorter cache TTL.
func (s *Service) Search(ctx context.Context, query grant.SearchQuery, enhanced bool) (*grant.SearchResponse, error) {
	prefix := grant.CachePrefixSearch
	aggregator := s.basic
	ttl := s.opts.BasicTTL
	if enhanced {
		prefix = grant.CachePrefixEnhanced
		aggregator = s.enhanced
		ttl = s.opts.EnhancedTTL
	}

	key := query.CacheKey(prefix)
	degraded := false

	if !query.Fresh {
		value, ok, err := s.store.Get(ctx, key)
		if err != nil {
			degraded = true
			slog.Warn("Cache read failed, continuing without cache", "key", key, "error", err)
		} else if ok {
			var cached grant.SearchResponse
			if err := json.Unmarshal([]byte(value), &cached); err == nil {
				cached.Cached = true
				return &cached, nil
			}
			slog.Warn("Discarding unreadable cache entry", "key", key)
		}
	}

	records, statuses, err := aggregator.Run(ctx, query)
	if err != nil {
		return nil, err
	}

	now := grant.Now()
	ranked := s.deduper.Run(grant.ApplyFilters(records, query), now, 0)
	totalFound := len(ranked)
	if len(ranked) > s.opts.MaxResults {
		ranked = ranked[:s.opts.MaxResults]
	}

	response := &grant.SearchResponse{
		Results:      ranked,
		TotalFound:   totalFound,
		SearchParams: query,
		Timestamp:    now.Format(time.RFC3339),
		Errors:       diagnostics(statuses),
	}

	// The per-source breakdown belongs to the enhanced endpoint only.
	if enhanced {
		response.Sources = statuses
	}

	// Write gating: empty results are not worth a cache slot, and error
	// responses never reach this point.
	if len(response.Results) > 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.store.Set(ctx, key, string(payload), ttl); err != nil {
				degraded = true
				slog.Warn("Cache write failed, result not cached", "key", key, "error", err)
			}
		}
	}

	response.Degraded = degraded
	return response, nil
}

func diagnostics(statuses []grant.SourceStatus) []string {
	var errs []string
	for _, status := range statuses {
		if status.Error != "" {
			errs = append(errs, status.Name+": "+status.Error)
		}
	}
	return errs
}
