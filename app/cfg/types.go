package cfg

type Cfg struct {
	// Storage configuration
	DBPath    string
	RedisAddr string

	// Application configuration
	SourcesDir        string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Search pipeline configuration
	AdapterTimeout   int
	PerSourceLimit   int
	MaxResults       int
	SearchCacheTTL   int
	EnhancedCacheTTL int
	FeedCacheTTL     int

	// Upstream API endpoints
	GrantsGovURL   string
	USASpendingURL string
	NIHURL         string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
