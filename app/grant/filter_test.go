package grant

import "testing"

func filterRec(id string, amount int64, funder FunderType) Record {
	return Record{ID: id, Title: id, Amount: amount, FunderType: funder}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestApplyFiltersNoConstraintsPassthrough(t *testing.T) {
	records := []Record{filterRec("a", 5000, FunderFederal), filterRec("b", 0, FunderUnknown)}
	got := ApplyFilters(records, SearchQuery{Query: "health"})
	if len(got) != 2 {
		t.Fatalf("Unconstrained query must keep all records, got %v", ids(got))
	}
}

func TestApplyFiltersAmountRange(t *testing.T) {
	records := []Record{
		filterRec("small", 1000, FunderUnknown),
		filterRec("fit", 50000, FunderUnknown),
		filterRec("big", 900000, FunderUnknown),
		filterRec("unreported", 0, FunderUnknown),
	}

	got := ApplyFilters(records, SearchQuery{MinAmount: 10000, MaxAmount: 100000})
	want := []string{"fit", "unreported"}
	if len(got) != 2 || got[0].ID != want[0] || got[1].ID != want[1] {
		t.Errorf("Expected %v, got %v", want, ids(got))
	}
}

func TestApplyFiltersAmountUnknownKept(t *testing.T) {
	// Sources that never report an amount must not be filtered out by an
	// amount constraint: absent data is not a mismatch.
	records := []Record{filterRec("unreported", 0, FunderUnknown)}
	if got := ApplyFilters(records, SearchQuery{MinAmount: 1000000}); len(got) != 1 {
		t.Error("Records without a reported amount must survive amount constraints")
	}
}

func TestApplyFiltersFunderType(t *testing.T) {
	records := []Record{
		filterRec("fed", 0, FunderFederal),
		filterRec("corp", 0, FunderCorporate),
		filterRec("unclassified", 0, FunderUnknown),
	}

	got := ApplyFilters(records, SearchQuery{FunderType: FunderFederal})
	want := []string{"fed", "unclassified"}
	if len(got) != 2 || got[0].ID != want[0] || got[1].ID != want[1] {
		t.Errorf("Expected %v, got %v", want, ids(got))
	}
}

func TestApplyFiltersCombined(t *testing.T) {
	records := []Record{
		filterRec("keep", 50000, FunderFederal),
		filterRec("wrong-funder", 50000, FunderCorporate),
		filterRec("too-small", 100, FunderFederal),
	}

	got := ApplyFilters(records, SearchQuery{MinAmount: 10000, FunderType: FunderFederal})
	if len(got) != 1 || got[0].ID != "keep" {
		t.Errorf("Expected [keep], got %v", ids(got))
	}
}
