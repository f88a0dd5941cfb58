package normalize

import (
	"strings"

	"github.com/spigell/careerboost/internal/ai/recovery"
)

const (
	MatchScoreFallback = 0
	WhyMatchLimit      = 3
	MissingSkillsLimit = 5
	TitleFallback      = "Вакансия без названия"
	CompanyFallback    = "Компания не указана"
)

// MatchResult is one ranked listing.
type MatchResult struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Company       string   `json:"company"`
	URL           *string  `json:"url"`
	MatchScore    int      `json:"match_score"`
	WhyMatch      []string `json:"why_match"`
	MissingSkills []string `json:"missing_skills"`
}

// Reference carries the listing fields used to fill gaps in a model result.
type Reference struct {
	Title   string
	Company string
	URL     string
}

// Matches normalizes the "results" list of a ranking response. Entries that are
// not objects or carry neither id nor title are dropped. Blank title, company and
// url are taken from refs by id before falling back to fixed text.
func Matches(obj recovery.Object, refs map[string]Reference) []MatchResult {
	out := []MatchResult{}

	items, ok := obj.Get("results").Items()
	if !ok {
		return out
	}

	for _, item := range items {
		entry, ok := item.Obj()
		if !ok {
			continue
		}
		if result, ok := Match(entry, refs); ok {
			out = append(out, result)
		}
	}

	return out
}

// Match normalizes a single ranking entry.
func Match(entry recovery.Object, refs map[string]Reference) (MatchResult, bool) {
	id := scalarText(entry.Get("id"))
	title := Text(entry.Get("title"), "")
	if id == "" && title == "" {
		return MatchResult{}, false
	}

	company := Text(entry.Get("company"), "")
	url := Text(entry.Get("url"), "")

	if ref, ok := refs[id]; ok && id != "" {
		if title == "" {
			title = strings.TrimSpace(ref.Title)
		}
		if company == "" {
			company = strings.TrimSpace(ref.Company)
		}
		if url == "" {
			url = strings.TrimSpace(ref.URL)
		}
	}

	if title == "" {
		title = TitleFallback
	}
	if company == "" {
		company = CompanyFallback
	}

	result := MatchResult{
		ID:            id,
		Title:         title,
		Company:       company,
		MatchScore:    Score(entry.Get("match_score"), MatchScoreFallback),
		WhyMatch:      StringList(entry.Get("why_match"), WhyMatchLimit),
		MissingSkills: StringList(entry.Get("missing_skills"), MissingSkillsLimit),
	}
	if url != "" {
		result.URL = &url
	}

	return result, true
}
