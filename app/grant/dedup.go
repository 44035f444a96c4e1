package grant

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

// Deduper collapses near-duplicate records and ranks what remains. Fan-out
// across overlapping sources routinely returns the same opportunity several
// times with small textual differences.
type Deduper struct{}

func NewDeduper() *Deduper {
	return &Deduper{}
}

// Run deduplicates, ranks, and caps records. The cap applies after sorting:
// truncating earlier would drop higher-quality matches that arrived later in
// concatenation order. limit <= 0 means unlimited. Run is idempotent.
func (d *Deduper) Run(records []Record, now time.Time, limit int) []Record {
	deduped := d.dedupe(records)
	d.rank(deduped, now)
	if limit > 0 && len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped
}

// dedupe collapses records sharing a similarity key, keeping the variant
// with the higher match percentage. On an exact tie the earliest-seen record
// wins, so the result is stable across runs.
func (d *Deduper) dedupe(records []Record) []Record {
	kept := make([]Record, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		key := similarityKey(rec.Title, rec.Funder)
		at, ok := index[key]
		if !ok {
			index[key] = len(kept)
			kept = append(kept, rec)
			continue
		}
		if rec.MatchPercentage > kept[at].MatchPercentage {
			kept[at] = rec
		}
	}

	return kept
}

// rank sorts by match percentage descending, then by absolute distance from
// the deadline to now ascending (soonest-relevant first, so an already-past
// deadline does not float to the top), then by ID for a total order.
func (d *Deduper) rank(records []Record, now time.Time) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.MatchPercentage != b.MatchPercentage {
			return a.MatchPercentage > b.MatchPercentage
		}
		da, db := deadlineDistance(a.Deadline, now), deadlineDistance(b.Deadline, now)
		if da != db {
			return da < db
		}
		return a.ID < b.ID
	})
}

// farFuture sorts records with unparseable deadlines last among score peers.
const farFuture = time.Duration(1<<62 - 1)

func deadlineDistance(deadline string, now time.Time) time.Duration {
	d, err := time.Parse("2006-01-02", deadline)
	if err != nil {
		return farFuture
	}
	dist := d.Sub(now)
	if dist < 0 {
		dist = -dist
	}
	return dist
}

// similarityKey normalizes title and funder (lowercase, strip
// non-alphanumerics, collapse whitespace) and joins the first 3 title words
// with the first 2 funder words. Records sharing a key are duplicates.
func similarityKey(title, funder string) string {
	words := append(firstWords(title, 3), firstWords(funder, 2)...)
	return strings.Join(words, " ")
}

func firstWords(s string, n int) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())
	if len(words) > n {
		words = words[:n]
	}
	return words
}
