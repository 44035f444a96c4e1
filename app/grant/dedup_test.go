package grant

import (
	"reflect"
	"testing"
	"time"
)

func testNow() time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestDeduperCollapsesNearDuplicates(t *testing.T) {
	deduper := NewDeduper()

	records := []Record{
		{ID: "a", Title: "Community Garden Expansion Fund 2026", Funder: "Green Futures Foundation", Deadline: "2026-05-01", MatchPercentage: 80},
		{ID: "b", Title: "Community Garden Expansion (Round Two)", Funder: "Green Futures Fdn.", Deadline: "2026-05-01", MatchPercentage: 92},
		{ID: "c", Title: "Watershed Protection Grants", Funder: "River Trust", Deadline: "2026-04-01", MatchPercentage: 75},
	}

	result := deduper.Run(records, testNow(), 0)

	if len(result) != 2 {
		t.Fatalf("Expected 2 records after dedup, got %d", len(result))
	}
	if result[0].ID != "b" {
		t.Errorf("Expected the higher-scoring duplicate kept and ranked first, got %s", result[0].ID)
	}
}

func TestDeduperTieKeepsEarliestSeen(t *testing.T) {
	deduper := NewDeduper()

	records := []Record{
		{ID: "first", Title: "Rural Broadband Access Grant", Funder: "Connect Fund", Deadline: "2026-05-01", MatchPercentage: 85},
		{ID: "second", Title: "Rural Broadband Access Program", Funder: "Connect Fund", Deadline: "2026-05-01", MatchPercentage: 85},
	}

	result := deduper.Run(records, testNow(), 0)

	if len(result) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(result))
	}
	if result[0].ID != "first" {
		t.Errorf("Exact score tie must keep the earliest-seen record, got %s", result[0].ID)
	}
}

func TestDeduperIdempotent(t *testing.T) {
	deduper := NewDeduper()

	records := []Record{
		{ID: "a", Title: "Community Garden Expansion Fund", Funder: "Green Futures", Deadline: "2026-05-01", MatchPercentage: 80},
		{ID: "b", Title: "Community Garden Expansion Fund", Funder: "Green Futures", Deadline: "2026-05-01", MatchPercentage: 92},
		{ID: "c", Title: "Watershed Protection Grants", Funder: "River Trust", Deadline: "2026-04-01", MatchPercentage: 75},
		{ID: "d", Title: "Youth Mentoring Initiative", Funder: "City Alliance", Deadline: "2026-07-01", MatchPercentage: 88},
	}

	once := deduper.Run(records, testNow(), 0)
	twice := deduper.Run(once, testNow(), 0)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Deduplication must be idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestDeduperSortsByScoreThenDeadlineProximity(t *testing.T) {
	deduper := NewDeduper()

	// Equal scores: the record whose deadline is nearest to now (in either
	// direction) ranks first; a long-past deadline must not float to the top.
	records := []Record{
		{ID: "far", Title: "Grant Far Future", Funder: "F1", Deadline: "2027-03-01", MatchPercentage: 85},
		{ID: "near", Title: "Grant Near Deadline", Funder: "F2", Deadline: "2026-03-15", MatchPercentage: 85},
		{ID: "past", Title: "Grant Long Past", Funder: "F3", Deadline: "2025-06-01", MatchPercentage: 85},
		{ID: "top", Title: "Grant Best Match", Funder: "F4", Deadline: "2027-01-01", MatchPercentage: 95},
	}

	result := deduper.Run(records, testNow(), 0)

	wantOrder := []string{"top", "near", "far", "past"}
	for i, want := range wantOrder {
		if result[i].ID != want {
			t.Fatalf("Position %d: expected %s, got %s (full order: %v)", i, want, result[i].ID, ids(result))
		}
	}
}

func TestDeduperCapAppliesAfterSorting(t *testing.T) {
	deduper := NewDeduper()

	// The best record arrives last in concatenation order; a pre-sort cap
	// would drop it.
	records := []Record{
		{ID: "a", Title: "Grant Alpha", Funder: "F1", Deadline: "2026-05-01", MatchPercentage: 70},
		{ID: "b", Title: "Grant Beta", Funder: "F2", Deadline: "2026-05-01", MatchPercentage: 75},
		{ID: "c", Title: "Grant Gamma", Funder: "F3", Deadline: "2026-05-01", MatchPercentage: 98},
	}

	result := deduper.Run(records, testNow(), 2)

	if len(result) != 2 {
		t.Fatalf("Expected cap of 2, got %d", len(result))
	}
	if result[0].ID != "c" {
		t.Errorf("Best match must survive the cap, got order %v", ids(result))
	}
}

func TestDeduperUnparseableDeadlineSortsLast(t *testing.T) {
	deduper := NewDeduper()

	records := []Record{
		{ID: "bad", Title: "Grant Broken Date", Funder: "F1", Deadline: "not-a-date", MatchPercentage: 85},
		{ID: "good", Title: "Grant Valid Date", Funder: "F2", Deadline: "2026-03-10", MatchPercentage: 85},
	}

	result := deduper.Run(records, testNow(), 0)

	if result[0].ID != "good" {
		t.Errorf("Unparseable deadline must sort last among score peers, got %v", ids(result))
	}
}
