package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grantscout/grantscout/app/grant"
	"github.com/grantscout/grantscout/app/sources"
)

type fakeAdapter struct {
	name     string
	disabled bool
	records  []grant.Record
	err      error
	delay    time.Duration
	panics   bool
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Enabled(query grant.SearchQuery) bool { return !f.disabled }

func (f *fakeAdapter) Search(ctx context.Context, query grant.SearchQuery) ([]grant.Record, error) {
	if f.panics {
		panic("adapter exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

var _ sources.Adapter = (*fakeAdapter)(nil)

func rec(id string, score int) grant.Record {
	return grant.Record{
		ID:              id,
		Title:           "Grant " + id,
		Funder:          "Funder " + id,
		Deadline:        "2026-06-01",
		Category:        grant.CategoryGeneral,
		Requirements:    []string{},
		MatchPercentage: score,
	}
}

func TestAggregatorIsolatesFailures(t *testing.T) {
	aggregator := NewAggregator([]sources.Adapter{
		&fakeAdapter{name: "good", records: []grant.Record{rec("a", 90)}},
		&fakeAdapter{name: "broken", err: errors.New("connection refused")},
	}, time.Second, 10)

	records, statuses, err := aggregator.Run(context.Background(), grant.SearchQuery{Query: "x"})
	if err != nil {
		t.Fatalf("One failing adapter must not fail the run: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("Expected the healthy adapter's record, got %v", records)
	}

	if len(statuses) != 2 {
		t.Fatalf("Expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Status != grant.SourceStatusOK || statuses[0].Count != 1 {
		t.Errorf("Unexpected status for good adapter: %+v", statuses[0])
	}
	if statuses[1].Status != grant.SourceStatusError || statuses[1].Error == "" {
		t.Errorf("Unexpected status for broken adapter: %+v", statuses[1])
	}
}

func TestAggregatorTimeoutOnlyCostsTheSlowAdapter(t *testing.T) {
	aggregator := NewAggregator([]sources.Adapter{
		&fakeAdapter{name: "slow", delay: 500 * time.Millisecond, records: []grant.Record{rec("s", 90)}},
		&fakeAdapter{name: "fast", records: []grant.Record{rec("f", 80)}},
	}, 30*time.Millisecond, 10)

	start := time.Now()
	records, statuses, err := aggregator.Run(context.Background(), grant.SearchQuery{Query: "x"})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "f" {
		t.Errorf("Expected only the fast adapter's record, got %v", records)
	}
	if statuses[0].Status != grant.SourceStatusTimeout {
		t.Errorf("Expected timeout status for slow adapter, got %+v", statuses[0])
	}

	// One timeout budget plus slack, never the serial sum.
	if elapsed > 300*time.Millisecond {
		t.Errorf("Run took %v; adapters must run concurrently", elapsed)
	}
}

func TestAggregatorAllSourcesDown(t *testing.T) {
	aggregator := NewAggregator([]sources.Adapter{
		&fakeAdapter{name: "a", err: errors.New("down")},
		&fakeAdapter{name: "b", err: errors.New("down")},
		&fakeAdapter{name: "c", disabled: true, records: []grant.Record{rec("c", 90)}},
	}, time.Second, 10)

	_, statuses, err := aggregator.Run(context.Background(), grant.SearchQuery{Query: "x"})
	if !errors.Is(err, ErrAllSourcesUnavailable) {
		t.Fatalf("Expected ErrAllSourcesUnavailable, got %v", err)
	}
	if statuses[2].Status != grant.SourceStatusSkipped {
		t.Errorf("Disabled adapter must report skipped, got %+v", statuses[2])
	}

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("Expected *UnavailableError, got %T", err)
	}
	if len(unavailable.Statuses) != 3 {
		t.Errorf("Expected 3 statuses on outage error, got %d", len(unavailable.Statuses))
	}
}

func TestAggregatorAllSkippedIsNotAnOutage(t *testing.T) {
	aggregator := NewAggregator([]sources.Adapter{
		&fakeAdapter{name: "a", disabled: true},
		&fakeAdapter{name: "b", disabled: true},
	}, time.Second, 10)

	records, _, err := aggregator.Run(context.Background(), grant.SearchQuery{Query: "x"})
	if err != nil {
		t.Fatalf("Skipped adapters are not failures: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestAggregatorDeterministicConcatenationOrder(t *testing.T) {
	// The first adapter finishes last; its records must still come first.
	aggregator := NewAggregator([]sources.Adapter{
		&fakeAdapter{name: "first", delay: 50 * time.Millisecond, records: []grant.Record{rec("1", 90)}},
		&fakeAdapter{name: "second", records: []grant.Record{rec("2", 80)}},
	}, time.Second, 10)

	records, _, err := aggregator.Run(context.Background(), grant.SearchQuery{Query: "x"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != "1" || records[1].ID != "2" {
		t.Errorf("Expected declaration-order concatenation, got %v", records)
	}
}

func TestAggregatorPerSourceLimit(t *testing.T) {
	many := []grant.Record{rec("a", 90), rec("b", 85), rec("c", 80), rec("d", 75)}
	aggregator := NewAggregator([]sources.Adapter{
		&fakeAdapter{name: "chatty", records: many},
	}, time.Second, 2)

	records, statuses, err := aggregator.Run(context.Background(), grant.SearchQuery{Query: "x"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected per-source cap of 2, got %d", len(records))
	}
	if statuses[0].Count != 2 {
		t.Errorf("Status count must reflect the capped contribution, got %d", statuses[0].Count)
	}
}

func TestAggregatorRecoversPanics(t *testing.T) {
	aggregator := NewAggregator([]sources.Adapter{
		&fakeAdapter{name: "bomb", panics: true},
		&fakeAdapter{name: "good", records: []grant.Record{rec("g", 90)}},
	}, time.Second, 10)

	records, statuses, err := aggregator.Run(context.Background(), grant.SearchQuery{Query: "x"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected the healthy adapter's record, got %v", records)
	}
	if statuses[0].Status != grant.SourceStatusError {
		t.Errorf("Panicking adapter must report error status, got %+v", statuses[0])
	}
}
