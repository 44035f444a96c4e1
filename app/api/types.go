package api

import (
	"context"

	"github.com/grantscout/grantscout/app/cache"
	"github.com/grantscout/grantscout/app/database"
	"github.com/grantscout/grantscout/app/grant"
	"github.com/grantscout/grantscout/app/search"
	"github.com/grantscout/grantscout/app/sources"
	"github.com/grantscout/grantscout/app/tasks"
)

type SearchService interface {
	Search(ctx context.Context, query grant.SearchQuery, enhanced bool) (*grant.SearchResponse, error)
}

var _ SearchService = (*search.Service)(nil)

type Handler struct {
	search         SearchService
	grantRepo      database.GrantRepository
	feedSourceRepo database.FeedSourceRepository
	configCache    *sources.ConfigCache
	rss            *sources.RSSAdapter
	store          cache.Store
	scheduler      tasks.TaskSchedulerInterface
	identity       IdentityResolver
	cacheBackend   string
}
