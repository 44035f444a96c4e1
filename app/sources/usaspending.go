package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/grantscout/grantscout/app/grant"
)

var _ Adapter = (*USASpendingAdapter)(nil)

// USASpendingAdapter searches awarded grants on the USAspending API. Awarded
// grants signal funders active in a space, so they surface alongside open
// opportunities.
type USASpendingAdapter struct {
	baseURL   string
	client    *http.Client
	userAgent string
	limit     int
}

func NewUSASpendingAdapter(baseURL string, client *http.Client, userAgent string, limit int) *USASpendingAdapter {
	return &USASpendingAdapter{
		baseURL:   baseURL,
		client:    client,
		userAgent: userAgent,
		limit:     limit,
	}
}

func (a *USASpendingAdapter) Name() string {
	return NameUSASpending
}

func (a *USASpendingAdapter) Enabled(query grant.SearchQuery) bool {
	return true
}

type usaSpendingRequest struct {
	Filters usaSpendingFilters `json:"filters"`
	Fields  []string           `json:"fields"`
	Limit   int                `json:"limit"`
	Page    int                `json:"page"`
}

type usaSpendingFilters struct {
	Keywords       []string `json:"keywords"`
	AwardTypeCodes []string `json:"award_type_codes"`
}

type usaSpendingResponse struct {
	Results []struct {
		AwardID        string  `json:"Award ID"`
		RecipientName  string  `json:"Recipient Name"`
		Description    string  `json:"Description"`
		AwardAmount    float64 `json:"Award Amount"`
		AwardingAgency string  `json:"Awarding Agency"`
		EndDate        string  `json:"End Date"` // YYYY-MM-DD
	} `json:"results"`
}

func (a *USASpendingAdapter) Search(ctx context.Context, query grant.SearchQuery) ([]grant.Record, error) {
	body := usaSpendingRequest{
		Filters: usaSpendingFilters{
			Keywords: []string{query.Query},
			// Grant award type codes; contracts and loans are out of scope.
			AwardTypeCodes: []string{"02", "03", "04", "05"},
		},
		Fields: []string{
			"Award ID", "Recipient Name", "Description",
			"Award Amount", "Awarding Agency", "End Date",
		},
		Limit: a.limit,
		Page:  1,
	}

	var resp usaSpendingResponse
	url := a.baseURL + "/api/v2/search/spending_by_award/"
	if err := postJSON(ctx, a.client, url, a.userAgent, body, &resp); err != nil {
		return nil, fmt.Errorf("usaspending search failed: %w", err)
	}

	now := grant.Now()
	records := make([]grant.Record, 0, len(resp.Results))
	for _, award := range resp.Results {
		if award.Description == "" {
			continue
		}

		title := grant.Truncate(award.Description, grant.TitleMaxLen)
		funder := award.AwardingAgency
		description := grant.Truncate(fmt.Sprintf(
			"Previously awarded to %s. Similar funding may be available in future cycles.",
			award.RecipientName), grant.DescriptionMaxLen)

		category := grant.ExtractCategory(award.Description)
		deadline, estimated := endDateOrFallback(award.EndDate, now)

		amount := int64(award.AwardAmount)
		if amount < 0 {
			amount = 0
		}

		records = append(records, grant.Record{
			ID:                  grant.RecordID(NameUSASpending, title, funder),
			Title:               title,
			Funder:              funder,
			Description:         description,
			Amount:              amount,
			Deadline:            deadline,
			IsEstimatedDeadline: estimated,
			Category:            category,
			Requirements:        grant.ExtractRequirements(award.Description),
			Source:              NameUSASpending,
			URL:                 fmt.Sprintf("https://www.usaspending.gov/award/%s", award.AwardID),
			MatchPercentage:     grant.MatchScore(title, description, query.Query, category, query.Category),
			FunderType:          grant.InferFunderType(funder, NameUSASpending),
		})
	}

	return records, nil
}

func endDateOrFallback(endDate string, now time.Time) (string, bool) {
	if endDate != "" {
		if parsed, err := time.Parse("2006-01-02", endDate); err == nil {
			return parsed.Format("2006-01-02"), false
		}
	}
	return now.AddDate(0, 0, usaSpendingFallbackDays).Format("2006-01-02"), true
}
