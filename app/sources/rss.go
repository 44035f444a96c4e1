package sources

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mmcdole/gofeed"

	"github.com/grantscout/grantscout/app/grant"
)

var _ Adapter = (*RSSAdapter)(nil)

// fetchCacheSize bounds the in-process feed cache; well above any realistic
// configured source count.
const fetchCacheSize = 64

// RSSAdapter searches the configured RSS funding feeds. Fetched feeds are
// held in an expirable in-process LRU keyed by feed URL, so repeated searches
// inside the TTL window never re-fetch upstream.
type RSSAdapter struct {
	configs    *ConfigCache
	parser     *gofeed.Parser
	fetchCache *expirable.LRU[string, []*gofeed.Item]
	limit      int
}

func NewRSSAdapter(configs *ConfigCache, client *http.Client, userAgent string, limit int, fetchTTL time.Duration) *RSSAdapter {
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &RSSAdapter{
		configs:    configs,
		parser:     parser,
		fetchCache: expirable.NewLRU[string, []*gofeed.Item](fetchCacheSize, nil, fetchTTL),
		limit:      limit,
	}
}

func (a *RSSAdapter) Name() string {
	return NameRSS
}

// Enabled: RSS participation is opt-in per query and pointless with no
// enabled feed configured.
func (a *RSSAdapter) Enabled(query grant.SearchQuery) bool {
	return query.IncludeRSS && len(a.configs.GetEnabledConfigs()) > 0
}

// Fetch returns the feed's items, from the in-process cache when fresh.
// Exposed so the background refresh task can pre-warm the cache.
func (a *RSSAdapter) Fetch(ctx context.Context, config *Config) ([]*gofeed.Item, error) {
	if items, ok := a.fetchCache.Get(config.URL); ok {
		return items, nil
	}

	feed, err := a.parser.ParseURLWithContext(config.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", config.Name, err)
	}

	a.fetchCache.Add(config.URL, feed.Items)
	return feed.Items, nil
}

func (a *RSSAdapter) Search(ctx context.Context, query grant.SearchQuery) ([]grant.Record, error) {
	configs := a.configs.GetEnabledConfigs()

	// Feeds are visited in name order: the per-adapter limit cuts the item
	// loop, so map iteration order would make the selected record set vary
	// between identical calls.
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	var records []grant.Record
	var fetchErrs []string
	fetched := 0

	for _, name := range names {
		config := configs[name]
		items, err := a.Fetch(ctx, config)
		if err != nil {
			fetchErrs = append(fetchErrs, err.Error())
			continue
		}
		fetched++

		for _, item := range items {
			if len(records) >= a.limit {
				break
			}
			if record, ok := a.mapItem(item, config, query); ok {
				records = append(records, record)
			}
		}
	}

	// Individual feed failures degrade silently; only a total wipeout makes
	// the whole adapter count as failed.
	if fetched == 0 && len(fetchErrs) > 0 {
		return nil, fmt.Errorf("all RSS feeds failed: %s", strings.Join(fetchErrs, "; "))
	}

	return records, nil
}

func (a *RSSAdapter) mapItem(item *gofeed.Item, config *Config, query grant.SearchQuery) (grant.Record, bool) {
	title := strings.TrimSpace(item.Title)
	if len(title) < config.MinTitleLength {
		return grant.Record{}, false // garbage filter
	}

	description := strings.TrimSpace(item.Description)
	text := title + " " + description

	if !a.relevant(text, config, query) {
		return grant.Record{}, false
	}

	source := "RSS: " + config.Funder

	category := grant.ParseCategory(config.DefaultCategory)
	if category == "" || category == grant.CategoryOther {
		category = grant.ExtractCategory(text)
	}

	funderType := grant.ParseFunderType(config.FunderType)
	if funderType == "" || funderType == grant.FunderUnknown {
		funderType = grant.InferFunderType(config.Funder, source)
	}

	deadline, estimated := grant.ExtractDeadline(text, grant.Now(), rssFallbackDays)

	title = grant.Truncate(title, grant.TitleMaxLen)
	description = grant.Truncate(description, grant.DescriptionMaxLen)

	return grant.Record{
		ID:                  grant.RecordID(source, title, config.Funder),
		Title:               title,
		Funder:              config.Funder,
		Description:         description,
		Amount:              grant.ExtractAmount(text),
		Deadline:            deadline,
		IsEstimatedDeadline: estimated,
		Category:            category,
		Requirements:        grant.ExtractRequirements(text),
		Source:              source,
		URL:                 item.Link,
		MatchPercentage:     grant.MatchScore(title, description, query.Query, category, query.Category),
		FunderType:          funderType,
	}, true
}

// relevant requires the item text to contain at least one query term, or one
// of the feed's configured keywords when the feed declares any.
func (a *RSSAdapter) relevant(text string, config *Config, query grant.SearchQuery) bool {
	lower := strings.ToLower(text)

	for _, term := range strings.Fields(strings.ToLower(query.Query)) {
		if strings.Contains(lower, term) {
			return true
		}
	}

	for _, kw := range config.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}

	return false
}
