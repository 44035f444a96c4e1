package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grantscout/grantscout/app/grant"
)

func TestGrantsGovAdapterSearch(t *testing.T) {
	var gotRequest grantsGovRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/api/search2" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"hitCount": 2,
				"oppHits": [
					{
						"id": "358532",
						"number": "PD-26-1234",
						"title": "Community Health Worker Training Program",
						"agencyName": "Health Resources and Services Administration",
						"closeDate": "03/15/2026"
					},
					{
						"id": "358533",
						"number": "PD-26-5678",
						"title": "Rural Broadband Expansion",
						"agencyName": "Department of Agriculture",
						"closeDate": ""
					}
				]
			}
		}`))
	}))
	defer server.Close()

	adapter := NewGrantsGovAdapter(server.URL, server.Client(), "test-agent", 10)

	records, err := adapter.Search(context.Background(), grant.SearchQuery{Query: "community health"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotRequest.Keyword != "community health" {
		t.Errorf("Expected keyword forwarded, got %q", gotRequest.Keyword)
	}
	if gotRequest.Rows != 10 {
		t.Errorf("Expected rows 10, got %d", gotRequest.Rows)
	}
	if gotRequest.OppStatuses != "forecasted|posted" {
		t.Errorf("Unexpected oppStatuses: %s", gotRequest.OppStatuses)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Title != "Community Health Worker Training Program" {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if first.Funder != "Health Resources and Services Administration" {
		t.Errorf("Unexpected funder: %s", first.Funder)
	}
	if first.Deadline != "2026-03-15" {
		t.Errorf("Expected deadline 2026-03-15, got %s", first.Deadline)
	}
	if first.IsEstimatedDeadline {
		t.Error("Explicit close date must not be flagged as estimated")
	}
	if first.Category != grant.CategoryHealth {
		t.Errorf("Expected Health category, got %s", first.Category)
	}
	if first.Source != NameGrantsGov {
		t.Errorf("Unexpected source: %s", first.Source)
	}
	if first.FunderType != grant.FunderFederal {
		t.Errorf("Expected Federal funder type, got %s", first.FunderType)
	}
	if first.Amount != 0 {
		t.Errorf("grants.gov search2 carries no amount; expected 0, got %d", first.Amount)
	}
	if first.ID == "" || first.ID != grant.RecordID(NameGrantsGov, first.Title, first.Funder) {
		t.Error("Record ID must be the stable source|title|funder digest")
	}

	second := records[1]
	if !second.IsEstimatedDeadline {
		t.Error("Missing close date must synthesize an estimated deadline")
	}
	want := grant.Now().AddDate(0, 0, grantsGovFallbackDays).Format("2006-01-02")
	if second.Deadline != want {
		t.Errorf("Expected fallback deadline %s, got %s", want, second.Deadline)
	}
}

func TestGrantsGovAdapterHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewGrantsGovAdapter(server.URL, server.Client(), "test-agent", 10)

	if _, err := adapter.Search(context.Background(), grant.SearchQuery{Query: "health"}); err == nil {
		t.Error("Expected error on upstream 502")
	}
}

func TestGrantsGovAdapterTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	adapter := NewGrantsGovAdapter(server.URL, server.Client(), "test-agent", 10)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := adapter.Search(ctx, grant.SearchQuery{Query: "health"})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("Expected deadline exceeded, got %v", ctx.Err())
	}
}

func TestGrantsGovAdapterAlwaysEnabled(t *testing.T) {
	adapter := NewGrantsGovAdapter("http://unused", http.DefaultClient, "test-agent", 10)
	if !adapter.Enabled(grant.SearchQuery{Query: "anything"}) {
		t.Error("grants.gov adapter should run for every query")
	}
}
