package grant

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Field length bounds applied during normalization, for storage economy.
const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 500
)

// Category is the fixed taxonomy every record resolves into.
type Category string

const (
	CategoryHealth      Category = "Health"
	CategoryEducation   Category = "Education"
	CategoryEnvironment Category = "Environment"
	CategoryArts        Category = "Arts"
	CategoryCommunity   Category = "Community"
	CategoryTechnology  Category = "Technology"
	CategoryResearch    Category = "Research"
	CategoryYouth       Category = "Youth"
	CategoryFederal     Category = "Federal"
	CategoryGeneral     Category = "General"
	CategoryOther       Category = "Other"
)

// Categories returns all taxonomy members in canonical order. The order is
// significant: keyword classification resolves ties by declaration order.
func Categories() []Category {
	return []Category{
		CategoryHealth, CategoryEducation, CategoryEnvironment, CategoryArts,
		CategoryCommunity, CategoryTechnology, CategoryResearch, CategoryYouth,
		CategoryFederal, CategoryGeneral, CategoryOther,
	}
}

// ParseCategory maps free-form input to a taxonomy member. Unrecognized
// non-empty input maps to Other; empty input stays empty (meaning "any").
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// FunderType classifies the funding organization.
type FunderType string

const (
	FunderFederal             FunderType = "Federal"
	FunderState               FunderType = "State"
	FunderPrivateFoundation   FunderType = "Private Foundation"
	FunderCommunityFoundation FunderType = "Community Foundation"
	FunderCorporate           FunderType = "Corporate"
	FunderUnknown             FunderType = "Unknown"
)

// ParseFunderType maps free-form input to a FunderType. Empty input stays
// empty (meaning "any"); unrecognized input maps to Unknown.
func ParseFunderType(s string) FunderType {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, f := range []FunderType{
		FunderFederal, FunderState, FunderPrivateFoundation,
		FunderCommunityFoundation, FunderCorporate, FunderUnknown,
	} {
		if strings.EqualFold(s, string(f)) {
			return f
		}
	}
	return FunderUnknown
}

// Record is the canonical normalized representation of one funding
// opportunity, regardless of which source produced it.
type Record struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Funder              string     `json:"funder"`
	Description         string     `json:"description"`
	Amount              int64      `json:"amount"`
	Deadline            string     `json:"deadline"`
	IsEstimatedDeadline bool       `json:"isEstimatedDeadline"`
	Category            Category   `json:"category"`
	Requirements        []string   `json:"requirements"`
	Source              string     `json:"source"`
	URL                 string     `json:"url"`
	MatchPercentage     int        `json:"matchPercentage"`
	FunderType          FunderType `json:"funderType"`
}

// RecordID derives a stable identifier from the source, title and funder.
// Records re-fetched across requests hash to the same ID, so retries never
// mint duplicates.
func RecordID(source, title, funder string) string {
	h := sha256.Sum256([]byte(source + "|" + title + "|" + funder))
	return hex.EncodeToString(h[:16])
}

// Truncate bounds s to max runes, appending an ellipsis when it had to cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// TrackedGrant is a Record a user saved to their list, with application
// lifecycle fields layered on top.
type TrackedGrant struct {
	Record
	Status          string `json:"status"`
	ApplicationDate string `json:"applicationDate,omitempty"`
	SubmittedDate   string `json:"submittedDate,omitempty"`
	LastUpdate      string `json:"lastUpdate,omitempty"`
}

// TrackedGrantUpdate carries the tracking fields a client may change on one
// saved grant. Nil pointers leave the stored value untouched.
type TrackedGrantUpdate struct {
	Status          *string `json:"status"`
	ApplicationDate *string `json:"applicationDate"`
	SubmittedDate   *string `json:"submittedDate"`
}

// TrackedGrantList is the per-user persistence document. It is written
// wholesale on every save; the last writer wins.
type TrackedGrantList struct {
	UserID    string         `json:"userId"`
	Grants    []TrackedGrant `json:"grants"`
	Timestamp string         `json:"timestamp"`
}

// SearchQuery carries the user's search parameters. Query is the only
// required field.
type SearchQuery struct {
	Query      string     `json:"query"`
	Category   Category   `json:"category,omitempty"`
	MinAmount  int64      `json:"minAmount,omitempty"`
	MaxAmount  int64      `json:"maxAmount,omitempty"`
	Location   string     `json:"location,omitempty"`
	FunderType FunderType `json:"funderType,omitempty"`
	IncludeRSS bool       `json:"includeRSS,omitempty"`
	Fresh      bool       `json:"-"`
}

// Cache key prefixes discriminate the basic and enhanced search endpoints,
// which cache with different TTLs.
const (
	CachePrefixSearch   = "search:"
	CachePrefixEnhanced = "enhanced_search:"
)

var keyFolder = cases.Fold()

// canonical trims, collapses interior whitespace, and case-folds a value so
// equivalent spellings derive the same cache key.
func canonical(s string) string {
	return keyFolder.String(strings.Join(strings.Fields(strings.TrimSpace(s)), " "))
}

// CacheKey derives the canonical cache key for this query under the given
// endpoint prefix. Field names are listed in sorted order and values are
// normalized, so queries differing only in whitespace, case, or parameter
// order share one key. Fresh is excluded: it controls cache behavior, not
// result identity. Location is excluded too: it never influences results
// (see ApplyFilters), so keying on it would only fragment the cache.
func (q SearchQuery) CacheKey(prefix string) string {
	parts := []string{
		"category=" + canonical(string(q.Category)),
		"fundertype=" + canonical(string(q.FunderType)),
		"includerss=" + strconv.FormatBool(q.IncludeRSS),
		"maxamount=" + strconv.FormatInt(q.MaxAmount, 10),
		"minamount=" + strconv.FormatInt(q.MinAmount, 10),
		"query=" + canonical(q.Query),
	}
	return prefix + strings.ReplaceAll(strings.Join(parts, "&"), " ", "+")
}

// SourceStatus describes one adapter's outcome within a search.
type SourceStatus struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Source status values.
const (
	SourceStatusOK      = "ok"
	SourceStatusError   = "error"
	SourceStatusTimeout = "timeout"
	SourceStatusSkipped = "skipped"
)

// SearchResponse is the aggregate search result returned to clients and
// stored in the cache. TotalFound counts deduplicated matches before the
// output cap, so len(Results) <= TotalFound always holds.
type SearchResponse struct {
	Results      []Record       `json:"results"`
	TotalFound   int            `json:"totalFound"`
	SearchParams SearchQuery    `json:"searchParams"`
	Timestamp    string         `json:"timestamp"`
	Cached       bool           `json:"cached"`
	Degraded     bool           `json:"degraded,omitempty"`
	Sources      []SourceStatus `json:"sources,omitempty"`
	Errors       []string       `json:"errors,omitempty"`
}

// Now returns the current UTC time truncated to seconds; responses and
// stored documents timestamp with RFC 3339 at second precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
