package grant

// ApplyFilters drops records that contradict the query's explicit amount
// range and funder-type constraints. Records whose own field is unknown
// (Amount 0, FunderType Unknown) are kept: partial upstream coverage is the
// norm, and absent data is not a mismatch. Location is not filtered: no
// source reports a usable location field.
func ApplyFilters(records []Record, query SearchQuery) []Record {
	if query.MinAmount == 0 && query.MaxAmount == 0 && query.FunderType == "" {
		return records
	}

	kept := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Amount > 0 {
			if query.MinAmount > 0 && record.Amount < query.MinAmount {
				continue
			}
			if query.MaxAmount > 0 && record.Amount > query.MaxAmount {
				continue
			}
		}
		if query.FunderType != "" && record.FunderType != FunderUnknown &&
			record.FunderType != query.FunderType {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}
