package database

import (
	"time"

	"github.com/grantscout/grantscout/app/grant"
)

type GrantRepository interface {
	SaveList(list grant.TrackedGrantList) error
	LoadList(userID string) (*grant.TrackedGrantList, error)
	UpdateGrant(userID, grantID string, update grant.TrackedGrantUpdate) (*grant.TrackedGrant, error)
	DeleteGrant(userID, grantID string) (bool, error)
	DeleteAll(userID string) error
	ListUserIDs() ([]string, error)
	GetUserCount() (int, error)
}

type FeedSourceRepository interface {
	UpsertSource(name, url string, enabled bool) error
	GetSource(name string) (*FeedSource, error)
	GetSources() ([]FeedSource, error)
	RecordFetch(name string, fetchedAt time.Time, fetchErr string) error
	GetSourceCount() (int, error)
}
