package grant

import "strings"

// Scoring constants. Every source uses the same base; the cap leaves headroom
// below 100 so a score never reads as a certainty.
const (
	baseMatchScore        = 70
	titleMatchBonus       = 20
	descriptionMatchBonus = 10
	categoryMatchBonus    = 10
	maxMatchScore         = 98
)

// MatchScore estimates 0-98 relevance between a record and a query: base 70,
// +20 when the title contains the full query substring, +10 when the
// description does, +10 when the resolved category equals the requested one.
func MatchScore(title, description, query string, category, wantCategory Category) int {
	score := baseMatchScore

	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" {
		if strings.Contains(strings.ToLower(title), q) {
			score += titleMatchBonus
		}
		if strings.Contains(strings.ToLower(description), q) {
			score += descriptionMatchBonus
		}
	}

	if wantCategory != "" && category == wantCategory {
		score += categoryMatchBonus
	}

	if score > maxMatchScore {
		score = maxMatchScore
	}
	return score
}
