package grant

import "testing"

func TestMatchScore(t *testing.T) {
	cases := []struct {
		name         string
		title        string
		description  string
		query        string
		category     Category
		wantCategory Category
		want         int
	}{
		{
			name:  "base score only",
			title: "Arts Education Fund", description: "Support for schools",
			query: "water quality",
			want:  baseMatchScore,
		},
		{
			name:  "title hit",
			title: "Community Health Worker Grants", description: "Training support",
			query: "community health",
			want:  baseMatchScore + titleMatchBonus,
		},
		{
			name:  "description hit",
			title: "Workforce Grants", description: "Focus on community health programs",
			query: "community health",
			want:  baseMatchScore + descriptionMatchBonus,
		},
		{
			name:  "category bonus",
			title: "Arts Fund", description: "",
			query:    "theater",
			category: CategoryArts, wantCategory: CategoryArts,
			want: baseMatchScore + categoryMatchBonus,
		},
		{
			name:  "everything hits, clamped",
			title: "Community Health Initiative", description: "A community health program",
			query:    "community health",
			category: CategoryHealth, wantCategory: CategoryHealth,
			want: maxMatchScore,
		},
		{
			name:  "case insensitive",
			title: "COMMUNITY HEALTH GRANTS", description: "",
			query: "Community Health",
			want:  baseMatchScore + titleMatchBonus,
		},
	}

	for _, c := range cases {
		got := MatchScore(c.title, c.description, c.query, c.category, c.wantCategory)
		if got != c.want {
			t.Errorf("%s: MatchScore = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestMatchScoreBounds(t *testing.T) {
	// No combination of bonuses may leave [0, 98].
	score := MatchScore("community health", "community health", "community health", CategoryHealth, CategoryHealth)
	if score < 0 || score > maxMatchScore {
		t.Errorf("Score %d out of bounds [0, %d]", score, maxMatchScore)
	}

	if got := MatchScore("", "", "", "", ""); got != baseMatchScore {
		t.Errorf("Empty inputs should score the base %d, got %d", baseMatchScore, got)
	}
}

func TestMatchScoreCategoryIsBonusNotFilter(t *testing.T) {
	// A category mismatch lowers the score but never disqualifies: records
	// from category-neutral sources still rank.
	mismatch := MatchScore("Community Health Grants", "", "community health", CategoryGeneral, CategoryHealth)
	match := MatchScore("Community Health Grants", "", "community health", CategoryHealth, CategoryHealth)

	if mismatch <= 0 {
		t.Error("Category mismatch must not zero the score")
	}
	if match <= mismatch {
		t.Error("Category equality must add a bonus on top")
	}
}
