package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grantscout/grantscout/app/grant"
)

func TestUSASpendingAdapterSearch(t *testing.T) {
	var gotRequest usaSpendingRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/search/spending_by_award/" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{
					"Award ID": "ASST-12345",
					"Recipient Name": "CITY YOUTH ALLIANCE",
					"Description": "AFTER-SCHOOL MENTORING FOR URBAN YOUTH",
					"Award Amount": 750000.50,
					"Awarding Agency": "Department of Education",
					"End Date": "2026-09-30"
				},
				{
					"Award ID": "ASST-67890",
					"Recipient Name": "EMPTY DESC ORG",
					"Description": "",
					"Award Amount": 100,
					"Awarding Agency": "Department of Education",
					"End Date": ""
				}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewUSASpendingAdapter(server.URL, server.Client(), "test-agent", 10)

	records, err := adapter.Search(context.Background(), grant.SearchQuery{Query: "youth mentoring"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(gotRequest.Filters.Keywords) != 1 || gotRequest.Filters.Keywords[0] != "youth mentoring" {
		t.Errorf("Expected query forwarded as keyword, got %v", gotRequest.Filters.Keywords)
	}
	if len(gotRequest.Filters.AwardTypeCodes) != 4 {
		t.Errorf("Expected 4 grant award type codes, got %v", gotRequest.Filters.AwardTypeCodes)
	}

	// The award with no description is dropped.
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Amount != 750000 {
		t.Errorf("Expected amount 750000, got %d", rec.Amount)
	}
	if rec.Deadline != "2026-09-30" {
		t.Errorf("Expected deadline 2026-09-30, got %s", rec.Deadline)
	}
	if rec.IsEstimatedDeadline {
		t.Error("Explicit end date must not be flagged as estimated")
	}
	if rec.Category != grant.CategoryYouth {
		t.Errorf("Expected Youth category, got %s", rec.Category)
	}
	if rec.FunderType != grant.FunderFederal {
		t.Errorf("Expected Federal funder type, got %s", rec.FunderType)
	}
	if rec.Source != NameUSASpending {
		t.Errorf("Unexpected source: %s", rec.Source)
	}
}

func TestUSASpendingAdapterNegativeAmountClamped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": [
				{
					"Award ID": "ASST-1",
					"Recipient Name": "ORG",
					"Description": "DEOBLIGATED GRANT FUNDS",
					"Award Amount": -5000,
					"Awarding Agency": "Department of Energy",
					"End Date": "2026-01-01"
				}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewUSASpendingAdapter(server.URL, server.Client(), "test-agent", 10)

	records, err := adapter.Search(context.Background(), grant.SearchQuery{Query: "funds"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].Amount != 0 {
		t.Errorf("Negative award amount must clamp to 0 (unknown), got %d", records[0].Amount)
	}
}

func TestUSASpendingAdapterMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer server.Close()

	adapter := NewUSASpendingAdapter(server.URL, server.Client(), "test-agent", 10)

	if _, err := adapter.Search(context.Background(), grant.SearchQuery{Query: "x"}); err == nil {
		t.Error("Expected error for malformed upstream JSON")
	}
}
