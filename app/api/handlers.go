package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grantscout/grantscout/app/cache"
	"github.com/grantscout/grantscout/app/database"
	"github.com/grantscout/grantscout/app/grant"
	"github.com/grantscout/grantscout/app/search"
	"github.com/grantscout/grantscout/app/sources"
	"github.com/grantscout/grantscout/app/tasks"
)

func NewHandler(searchService SearchService, grantRepo database.GrantRepository,
	feedSourceRepo database.FeedSourceRepository, configCache *sources.ConfigCache,
	rss *sources.RSSAdapter, store cache.Store, scheduler tasks.TaskSchedulerInterface,
	cacheBackend string) *Handler {
	return &Handler{
		search:         searchService,
		grantRepo:      grantRepo,
		feedSourceRepo: feedSourceRepo,
		configCache:    configCache,
		rss:            rss,
		store:          store,
		scheduler:      scheduler,
		identity:       NewHashIdentityResolver(),
		cacheBackend:   cacheBackend,
	}
}

// SetIdentityResolver replaces the default IP+User-Agent pseudo-identity.
func (h *Handler) SetIdentityResolver(resolver IdentityResolver) {
	h.identity = resolver
}

func (h *Handler) Search(c *gin.Context) {
	query, ok := h.parseSearchQuery(c)
	if !ok {
		return
	}

	response, err := h.search.Search(c.Request.Context(), query, false)
	if err != nil {
		h.searchError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) EnhancedSearch(c *gin.Context) {
	query, ok := h.parseSearchQuery(c)
	if !ok {
		return
	}

	// RSS participates unless explicitly declined.
	query.IncludeRSS = c.DefaultQuery("includeRSS", "true") != "false"

	response, err := h.search.Search(c.Request.Context(), query, true)
	if err != nil {
		h.searchError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) parseSearchQuery(c *gin.Context) (grant.SearchQuery, bool) {
	queryText := strings.TrimSpace(c.Query("query"))
	if queryText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return grant.SearchQuery{}, false
	}

	minAmount, _ := strconv.ParseInt(c.Query("minAmount"), 10, 64)
	maxAmount, _ := strconv.ParseInt(c.Query("maxAmount"), 10, 64)

	return grant.SearchQuery{
		Query:      queryText,
		Category:   grant.ParseCategory(c.Query("category")),
		MinAmount:  minAmount,
		MaxAmount:  maxAmount,
		Location:   strings.TrimSpace(c.Query("location")),
		FunderType: grant.ParseFunderType(c.Query("funderType")),
		Fresh:      c.Query("fresh") == "true",
	}, true
}

// searchError maps pipeline failures onto the HTTP surface: a total source
// outage is 503 with the per-source breakdown, anything else is a generic
// 500 with full context logged server-side only.
func (h *Handler) searchError(c *gin.Context, err error) {
	var unavailable *search.UnavailableError
	if errors.As(err, &unavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "all search sources are currently unavailable",
			"results": []grant.Record{},
			"sources": unavailable.Statuses,
		})
		return
	}

	slog.Error("Search failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
}

func (h *Handler) SaveGrants(c *gin.Context) {
	var body struct {
		UserID string          `json:"userId"`
		Grants json.RawMessage `json:"grants"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// json.Unmarshal accepts a JSON null into a slice, so the token itself
	// must be an array for the request to count as valid.
	var grants []grant.TrackedGrant
	token := bytes.TrimLeft(body.Grants, " \t\r\n")
	if len(token) == 0 || token[0] != '[' || json.Unmarshal(body.Grants, &grants) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grants must be an array"})
		return
	}

	userID := body.UserID
	if userID == "" {
		userID = h.identity.Resolve(c)
	}

	now := grant.Now().Format(time.RFC3339)
	for i := range grants {
		if grants[i].Status == "" {
			grants[i].Status = "interested"
		}
		if grants[i].LastUpdate == "" {
			grants[i].LastUpdate = now
		}
	}

	list := grant.TrackedGrantList{
		UserID:    userID,
		Grants:    grants,
		Timestamp: now,
	}

	if err := h.grantRepo.SaveList(list); err != nil {
		slog.Error("Failed to save tracked grants", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"userId":     userID,
		"grantCount": len(grants),
		"timestamp":  now,
	})
}

func (h *Handler) LoadGrants(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = h.identity.Resolve(c)
	}

	list, err := h.grantRepo.LoadList(userID)
	if err != nil {
		slog.Error("Failed to load tracked grants", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"grants":     list.Grants,
		"userId":     userID,
		"grantCount": len(list.Grants),
	})
}

func (h *Handler) UpdateGrant(c *gin.Context) {
	grantID := c.Param("id")

	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = h.identity.Resolve(c)
	}

	var update grant.TrackedGrantUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.grantRepo.UpdateGrant(userID, grantID, update)
	if err != nil {
		slog.Error("Failed to update tracked grant", "user_id", userID, "grant_id", grantID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "grant is not tracked"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "grant": updated})
}

func (h *Handler) DeleteGrant(c *gin.Context) {
	grantID := c.Param("id")

	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = h.identity.Resolve(c)
	}

	found, err := h.grantRepo.DeleteGrant(userID, grantID)
	if err != nil {
		slog.Error("Failed to delete tracked grant", "user_id", userID, "grant_id", grantID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "grant is not tracked"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteAllGrants(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = h.identity.Resolve(c)
	}

	if err := h.grantRepo.DeleteAll(userID); err != nil {
		slog.Error("Failed to delete tracked grants", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporarily unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "userId": userID})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":        "ok",
		"timestamp":     grant.Now().Format(time.RFC3339),
		"cache_backend": h.cacheBackend,
		"feeds":         h.configCache.GetConfigCount(),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"cache_backend":         h.cacheBackend,
		"loaded_configurations": h.configCache.GetConfigCount(),
		"enabled_feeds":         len(h.configCache.GetEnabledConfigs()),
	}

	if userCount, err := h.grantRepo.GetUserCount(); err == nil {
		stats["tracked_users"] = userCount
	}

	if sourceCount, err := h.feedSourceRepo.GetSourceCount(); err == nil {
		stats["registered_feed_sources"] = sourceCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, config := range configs {
		feedInfo := map[string]interface{}{
			"name":             config.Name,
			"url":              config.URL,
			"funder":           config.Funder,
			"funder_type":      config.FunderType,
			"default_category": config.DefaultCategory,
			"enabled":          config.Enabled,
		}

		if src, err := h.feedSourceRepo.GetSource(config.Name); err == nil && src != nil {
			feedInfo["last_fetched_at"] = src.LastFetchedAt
			feedInfo["last_error"] = src.LastError
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, gin.H{"feeds": feeds, "count": len(feeds)})
}

func (h *Handler) APIRefreshFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown feed source"})
		return
	}

	task := tasks.NewRefreshSourceTask(name, h.configCache, h.rss, h.feedSourceRepo)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue feed refresh", "source", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "source": name, "task_id": task.GetID()})
}

func (h *Handler) APIPurgeCache(c *gin.Context) {
	task := tasks.NewPruneCacheTask(h.store)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue cache purge", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is full"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true, "task_id": task.GetID()})
}
