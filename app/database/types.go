package database

import (
	"time"
)

// FeedSource is the database registration of one configured RSS source,
// carrying fetch health for diagnostics.
type FeedSource struct {
	Name          string
	URL           string
	Enabled       bool
	LastFetchedAt *time.Time
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
