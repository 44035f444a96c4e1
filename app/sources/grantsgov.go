package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grantscout/grantscout/app/grant"
)

var _ Adapter = (*GrantsGovAdapter)(nil)

// GrantsGovAdapter searches the grants.gov opportunity API.
type GrantsGovAdapter struct {
	baseURL   string
	client    *http.Client
	userAgent string
	limit     int
}

func NewGrantsGovAdapter(baseURL string, client *http.Client, userAgent string, limit int) *GrantsGovAdapter {
	return &GrantsGovAdapter{
		baseURL:   baseURL,
		client:    client,
		userAgent: userAgent,
		limit:     limit,
	}
}

func (a *GrantsGovAdapter) Name() string {
	return NameGrantsGov
}

func (a *GrantsGovAdapter) Enabled(query grant.SearchQuery) bool {
	return true
}

type grantsGovRequest struct {
	Keyword     string `json:"keyword"`
	Rows        int    `json:"rows"`
	OppStatuses string `json:"oppStatuses"`
}

type grantsGovResponse struct {
	Data struct {
		HitCount int `json:"hitCount"`
		OppHits  []struct {
			ID         string `json:"id"`
			Number     string `json:"number"`
			Title      string `json:"title"`
			AgencyName string `json:"agencyName"`
			CloseDate  string `json:"closeDate"` // MM/DD/YYYY
		} `json:"oppHits"`
	} `json:"data"`
}

func (a *GrantsGovAdapter) Search(ctx context.Context, query grant.SearchQuery) ([]grant.Record, error) {
	body := grantsGovRequest{
		Keyword:     query.Query,
		Rows:        a.limit,
		OppStatuses: "forecasted|posted",
	}

	var resp grantsGovResponse
	url := a.baseURL + "/v1/api/search2"
	if err := postJSON(ctx, a.client, url, a.userAgent, body, &resp); err != nil {
		return nil, fmt.Errorf("grants.gov search failed: %w", err)
	}

	now := grant.Now()
	records := make([]grant.Record, 0, len(resp.Data.OppHits))
	for _, hit := range resp.Data.OppHits {
		if hit.Title == "" {
			continue
		}

		title := grant.Truncate(hit.Title, grant.TitleMaxLen)
		funder := hit.AgencyName
		category := query.Category
		if resolved := grant.ExtractCategory(hit.Title); resolved != grant.CategoryGeneral {
			category = resolved
		} else if category == "" {
			category = grant.CategoryFederal
		}

		deadline, estimated := closeDateOrFallback(hit.CloseDate, now)

		records = append(records, grant.Record{
			ID:                  grant.RecordID(NameGrantsGov, title, funder),
			Title:               title,
			Funder:              funder,
			Description:         fmt.Sprintf("Federal funding opportunity %s posted on grants.gov.", hit.Number),
			Amount:              0, // search2 reports no award amount
			Deadline:            deadline,
			IsEstimatedDeadline: estimated,
			Category:            category,
			Requirements:        grant.ExtractRequirements(hit.Title),
			Source:              NameGrantsGov,
			URL:                 fmt.Sprintf("https://www.grants.gov/search-results-detail/%s", hit.ID),
			MatchPercentage:     grant.MatchScore(hit.Title, "", query.Query, category, query.Category),
			FunderType:          grant.InferFunderType(funder, NameGrantsGov),
		})
	}

	return records, nil
}

// closeDateOrFallback converts the API's MM/DD/YYYY close date to ISO form,
// synthesizing an estimated date when the field is absent or malformed.
func closeDateOrFallback(closeDate string, now time.Time) (string, bool) {
	if closeDate != "" {
		if parsed, err := time.Parse("01/02/2006", closeDate); err == nil {
			return parsed.Format("2006-01-02"), false
		}
	}
	return now.AddDate(0, 0, grantsGovFallbackDays).Format("2006-01-02"), true
}
