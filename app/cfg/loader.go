package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./data/grantscout.db" description:"SQLite database file path"`
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the search cache (optional, SQLite-backed cache used when empty)"`

	// Application configuration
	SourcesDir        string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing RSS source configuration files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for scheduled tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Search pipeline configuration
	AdapterTimeout   int `long:"adapter-timeout" env:"ADAPTER_TIMEOUT" default:"10" description:"Per-adapter network timeout in seconds"`
	PerSourceLimit   int `long:"per-source-limit" env:"PER_SOURCE_LIMIT" default:"10" description:"Maximum records contributed by one source"`
	MaxResults       int `long:"max-results" env:"MAX_RESULTS" default:"20" description:"Maximum records in one search response"`
	SearchCacheTTL   int `long:"search-cache-ttl" env:"SEARCH_CACHE_TTL" default:"3600" description:"Basic search cache TTL in seconds"`
	EnhancedCacheTTL int `long:"enhanced-cache-ttl" env:"ENHANCED_CACHE_TTL" default:"900" description:"Enhanced search cache TTL in seconds"`
	FeedCacheTTL     int `long:"feed-cache-ttl" env:"FEED_CACHE_TTL" default:"600" description:"RSS fetch cache TTL in seconds"`

	// Upstream API endpoints
	GrantsGovURL   string `long:"grantsgov-url" env:"GRANTSGOV_URL" default:"https://api.grants.gov" description:"grants.gov API base URL"`
	USASpendingURL string `long:"usaspending-url" env:"USASPENDING_URL" default:"https://api.usaspending.gov" description:"USAspending API base URL"`
	NIHURL         string `long:"nih-url" env:"NIH_URL" default:"https://api.reporter.nih.gov" description:"NIH RePORTER API base URL"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"GrantScout/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		RedisAddr:         raw.RedisAddr,
		SourcesDir:        raw.SourcesDir,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		AdapterTimeout:    raw.AdapterTimeout,
		PerSourceLimit:    raw.PerSourceLimit,
		MaxResults:        raw.MaxResults,
		SearchCacheTTL:    raw.SearchCacheTTL,
		EnhancedCacheTTL:  raw.EnhancedCacheTTL,
		FeedCacheTTL:      raw.FeedCacheTTL,
		GrantsGovURL:      raw.GrantsGovURL,
		USASpendingURL:    raw.USASpendingURL,
		NIHURL:            raw.NIHURL,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing. Intended for
// tests that need cfg.Get() to work without a command line.
func Set(cfg *Cfg) {
	globalCfg = cfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
