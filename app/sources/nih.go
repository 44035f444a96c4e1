package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/grantscout/grantscout/app/grant"
)

var _ Adapter = (*NIHReporterAdapter)(nil)

// NIHReporterAdapter searches NIH RePORTER projects. It only runs for
// health/research queries: calling it for every search would waste its rate
// budget on queries it can never answer.
type NIHReporterAdapter struct {
	baseURL   string
	client    *http.Client
	userAgent string
	limit     int
}

func NewNIHReporterAdapter(baseURL string, client *http.Client, userAgent string, limit int) *NIHReporterAdapter {
	return &NIHReporterAdapter{
		baseURL:   baseURL,
		client:    client,
		userAgent: userAgent,
		limit:     limit,
	}
}

func (a *NIHReporterAdapter) Name() string {
	return NameNIHReporter
}

// nihGateKeywords is the positive activation gate for the NIH adapter.
var nihGateKeywords = []string{
	"health", "medical", "medicine", "clinical", "disease", "research",
	"biomedical", "mental health", "public health", "cancer", "drug",
	"therapy", "patient", "nursing", "epidemiolog",
}

func (a *NIHReporterAdapter) Enabled(query grant.SearchQuery) bool {
	if query.Category == grant.CategoryHealth || query.Category == grant.CategoryResearch {
		return true
	}

	lower := strings.ToLower(query.Query)
	for _, kw := range nihGateKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type nihRequest struct {
	Criteria nihCriteria `json:"criteria"`
	Limit    int         `json:"limit"`
	Offset   int         `json:"offset"`
}

type nihCriteria struct {
	AdvancedTextSearch nihTextSearch `json:"advanced_text_search"`
}

type nihTextSearch struct {
	Operator    string `json:"operator"`
	SearchField string `json:"search_field"`
	SearchText  string `json:"search_text"`
}

type nihResponse struct {
	Results []struct {
		ProjectTitle  string  `json:"project_title"`
		AwardAmount   float64 `json:"award_amount"`
		AbstractText  string  `json:"abstract_text"`
		ProjectEndDay string  `json:"project_end_date"`
		AgencyICAdmin struct {
			Name string `json:"name"`
		} `json:"agency_ic_admin"`
	} `json:"results"`
}

func (a *NIHReporterAdapter) Search(ctx context.Context, query grant.SearchQuery) ([]grant.Record, error) {
	body := nihRequest{
		Criteria: nihCriteria{
			AdvancedTextSearch: nihTextSearch{
				Operator:    "and",
				SearchField: "projecttitle,terms,abstracttext",
				SearchText:  query.Query,
			},
		},
		Limit:  a.limit,
		Offset: 0,
	}

	var resp nihResponse
	url := a.baseURL + "/v2/projects/search"
	if err := postJSON(ctx, a.client, url, a.userAgent, body, &resp); err != nil {
		return nil, fmt.Errorf("nih reporter search failed: %w", err)
	}

	now := grant.Now()
	records := make([]grant.Record, 0, len(resp.Results))
	for _, project := range resp.Results {
		if project.ProjectTitle == "" {
			continue
		}

		title := grant.Truncate(project.ProjectTitle, grant.TitleMaxLen)
		funder := project.AgencyICAdmin.Name
		if funder == "" {
			funder = "National Institutes of Health"
		}
		description := grant.Truncate(project.AbstractText, grant.DescriptionMaxLen)

		category := grant.ExtractCategory(project.ProjectTitle + " " + project.AbstractText)
		deadline, estimated := projectEndOrFallback(project.ProjectEndDay, now)

		amount := int64(project.AwardAmount)
		if amount < 0 {
			amount = 0
		}
		if amount == 0 {
			amount = grant.ExtractAmount(project.AbstractText)
		}

		records = append(records, grant.Record{
			ID:                  grant.RecordID(NameNIHReporter, title, funder),
			Title:               title,
			Funder:              funder,
			Description:         description,
			Amount:              amount,
			Deadline:            deadline,
			IsEstimatedDeadline: estimated,
			Category:            category,
			Requirements:        grant.ExtractRequirements(project.AbstractText),
			Source:              NameNIHReporter,
			URL:                 "https://reporter.nih.gov/search/" + strings.ReplaceAll(query.Query, " ", "%20"),
			MatchPercentage:     grant.MatchScore(title, description, query.Query, category, query.Category),
			FunderType:          grant.InferFunderType(funder, NameNIHReporter),
		})
	}

	return records, nil
}

func projectEndOrFallback(endDate string, now time.Time) (string, bool) {
	if endDate != "" {
		// RePORTER reports timestamps like 2026-06-30T00:06:00Z as well as
		// bare dates.
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if parsed, err := time.Parse(layout, endDate); err == nil {
				return parsed.Format("2006-01-02"), false
			}
		}
	}
	return now.AddDate(0, 0, nihFallbackDays).Format("2006-01-02"), true
}
