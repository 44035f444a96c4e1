package grant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	amountDollarRe = regexp.MustCompile(`(?i)\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)\s*(million|m)?\b`)
	amountWordRe   = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]+)?)\s*(million\s+)?dollars\b`)
)

// ExtractAmount scans text for a dollar amount ("$1,500,000", "$2.5 million",
// "1500000 dollars"). A million/m suffix multiplies by 1e6. Returns 0 when no
// amount is present; it never substitutes a guessed value.
func ExtractAmount(text string) int64 {
	m := amountDollarRe.FindStringSubmatch(text)
	if m == nil {
		m = amountWordRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0
	}

	raw := strings.ReplaceAll(m[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0
	}
	if strings.TrimSpace(strings.ToLower(m[2])) != "" {
		value *= 1_000_000
	}
	return int64(value)
}

var (
	deadlineKeywordRe = regexp.MustCompile(`(?i)\b(deadline|due|apply by|closes?|submit by|applications? by)\b`)
	dateCandidateRe   = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2}|[A-Z][a-z]+\.? \d{1,2},? \d{4})\b`)
)

// deadlineWindow is how far past a deadline keyword a date is still
// considered to belong to it.
const deadlineWindow = 60

// ExtractDeadline finds an explicit date near a deadline keyword
// ("Deadline: 03/15/2026", "applications due March 15, 2026") and returns it
// as YYYY-MM-DD. When no such date exists, it synthesizes now+fallbackDays
// and reports estimated=true so callers can flag the placeholder.
func ExtractDeadline(text string, now time.Time, fallbackDays int) (string, bool) {
	for _, kw := range deadlineKeywordRe.FindAllStringIndex(text, -1) {
		end := kw[1] + deadlineWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[kw[1]:end]

		if loc := dateCandidateRe.FindStringIndex(window); loc != nil {
			parsed, err := dateparse.ParseAny(window[loc[0]:loc[1]])
			if err == nil && plausibleDeadline(parsed, now) {
				return parsed.Format("2006-01-02"), false
			}
		}
	}

	return now.AddDate(0, 0, fallbackDays).Format("2006-01-02"), true
}

// plausibleDeadline rejects parse artifacts: dates more than a year in the
// past or more than a decade out are not believable application deadlines.
func plausibleDeadline(d, now time.Time) bool {
	return d.After(now.AddDate(-1, 0, 0)) && d.Before(now.AddDate(10, 0, 0))
}

// categoryKeywords drives keyword classification. Iteration follows
// Categories() order and within one category the declared keyword order, so
// the first match always wins deterministically.
var categoryKeywords = map[Category][]string{
	CategoryHealth: {
		"health", "medical", "clinic", "hospital", "wellness", "disease",
		"patient", "nutrition", "behavioral", "substance abuse",
	},
	CategoryEducation: {
		"education", "school", "student", "literacy", "teacher", "stem",
		"scholarship", "classroom", "curriculum", "tutoring",
	},
	CategoryEnvironment: {
		"environment", "climate", "conservation", "sustainab", "wildlife",
		"clean energy", "watershed", "pollution", "recycl",
	},
	CategoryArts: {
		"arts", "culture", "music", "museum", "theater", "humanities",
		"artist", "creative",
	},
	CategoryCommunity: {
		"community", "neighborhood", "housing", "homeless", "food bank",
		"civic", "rural development", "veterans",
	},
	CategoryTechnology: {
		"technology", "digital", "broadband", "software", "computer",
		"innovation",
	},
	CategoryResearch: {
		"research", "scientific", "laboratory", "fellowship", "clinical trial",
	},
	CategoryYouth: {
		"youth", "children", "teen", "after-school", "juvenile",
		"early childhood", "mentoring",
	},
	CategoryFederal: {
		"federal", "cfda", "grants.gov",
	},
}

// ExtractCategory classifies text against the fixed keyword table. Table
// order is significant: Health wins over Education wins over Environment and
// so on. Text with no match classifies as General.
func ExtractCategory(text string) Category {
	lower := strings.ToLower(text)
	for _, cat := range Categories() {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lower, kw) {
				return cat
			}
		}
	}
	return CategoryGeneral
}

// DefaultRequirement is reported when eligibility text exists but none of the
// known keywords match; an empty list would wrongly imply "no requirements".
const DefaultRequirement = "Review eligibility criteria"

var requirementKeywords = []struct {
	keyword string
	tag     string
}{
	{"501(c)(3)", "501(c)(3) status required"},
	{"501c3", "501(c)(3) status required"},
	{"non-profit", "Nonprofit organization"},
	{"nonprofit", "Nonprofit organization"},
	{"tribal", "Tribal organizations eligible"},
	{"faith-based", "Faith-based organizations eligible"},
	{"small business", "Small businesses eligible"},
	{"municipalit", "Municipalities eligible"},
	{"school district", "School districts eligible"},
	{"higher education", "Higher education institutions eligible"},
	{"fiscal sponsor", "Fiscal sponsorship accepted"},
	{"matching funds", "Matching funds required"},
	{"letter of intent", "Letter of intent required"},
}

// ExtractRequirements collects eligibility tags by ordered substring match.
// Non-empty text always yields at least one entry; empty text yields an
// empty (never nil) slice.
func ExtractRequirements(text string) []string {
	tags := []string{}
	if strings.TrimSpace(text) == "" {
		return tags
	}

	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	for _, rk := range requirementKeywords {
		if strings.Contains(lower, rk.keyword) && !seen[rk.tag] {
			seen[rk.tag] = true
			tags = append(tags, rk.tag)
		}
	}

	if len(tags) == 0 {
		tags = append(tags, DefaultRequirement)
	}
	return tags
}

var (
	federalFunderRe   = regexp.MustCompile(`(?i)\b(national|federal|u\.s\.|united states|department of|administration|institutes? of|bureau|agency)\b`)
	stateFunderRe     = regexp.MustCompile(`(?i)\b(state of|state department|commonwealth of)\b`)
	corporateFunderRe = regexp.MustCompile(`(?i)\b(inc\.?|corp\.?|llc|company|corporation)\b`)
)

// InferFunderType classifies the funding organization from its name, falling
// back to the origin source when the name is inconclusive.
func InferFunderType(funder, source string) FunderType {
	lower := strings.ToLower(funder)

	switch {
	case strings.Contains(lower, "community foundation"):
		return FunderCommunityFoundation
	case strings.Contains(lower, "foundation"), strings.Contains(lower, "charitable trust"):
		return FunderPrivateFoundation
	case stateFunderRe.MatchString(funder):
		return FunderState
	case federalFunderRe.MatchString(funder):
		return FunderFederal
	case corporateFunderRe.MatchString(funder):
		return FunderCorporate
	}

	switch source {
	case "grants.gov", "usaspending", "nih-reporter":
		return FunderFederal
	}
	return FunderUnknown
}
