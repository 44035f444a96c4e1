package sources

import (
	"context"

	"github.com/grantscout/grantscout/app/grant"
)

// Adapter is one search source: it issues a single outbound request (or
// reads local state) and maps raw results into canonical grant records.
// Failures are returned as errors; the aggregator isolates them so one broken
// source never hides the others' results.
type Adapter interface {
	Name() string

	// Enabled reports whether the adapter should run for this query. Gated
	// adapters (NIH, RSS) use this to bound latency and upstream rate use.
	Enabled(query grant.SearchQuery) bool

	Search(ctx context.Context, query grant.SearchQuery) ([]grant.Record, error)
}

// Adapter names, which double as the Source field of the records they emit.
const (
	NameGrantsGov   = "grants.gov"
	NameUSASpending = "usaspending"
	NameNIHReporter = "nih-reporter"
	NameRSS         = "rss"
	NameStoreScan   = "cached-store"
)

// Per-adapter fallback offsets for synthesized deadlines, in days. These are
// placeholders flagged via IsEstimatedDeadline, not real dates.
const (
	grantsGovFallbackDays   = 60
	usaSpendingFallbackDays = 90
	nihFallbackDays         = 120
	rssFallbackDays         = 45
)

// Config describes one RSS source, loaded from a .yml file in the sources
// directory. Name derives from the filename.
type Config struct {
	Name            string   `yaml:"-"`
	URL             string   `yaml:"url"`
	Funder          string   `yaml:"funder"`
	FunderType      string   `yaml:"funder_type"`
	DefaultCategory string   `yaml:"default_category"`
	Enabled         bool     `yaml:"enabled"`
	Keywords        []string `yaml:"keywords"`
	MinTitleLength  int      `yaml:"min_title_length"`
}
