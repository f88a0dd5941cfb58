// Package matching ranks listings against a candidate profile with the model gateway.
package matching

import (
	"context"
	_ "embed"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/filtering"
	"github.com/spigell/careerboost/internal/listing"
	"github.com/spigell/careerboost/internal/logger"
	"github.com/spigell/careerboost/internal/normalize"
	"github.com/spigell/careerboost/internal/utils"
)

const (
	MinTopK          = 1
	MaxTopK          = 10
	DefaultTopK      = 5
	DescriptionLimit = 600
	ResumeLimit      = 3000

	roleLimit    = 200
	skillsLimit  = 1000
	promptBudget = ai.DefaultPromptLimit

	temperature  = 0.2
	systemPrompt = "Ты карьерный ассистент и рекрутер. Отвечай по-русски. Верни ТОЛЬКО валидный JSON без markdown и без текста вне JSON."
	noResume     = "не указано"
)

//go:embed prompt.md
var promptTemplate string

// Request is a candidate profile plus optional caller-supplied listings.
type Request struct {
	TargetRole string
	UserSkills []string
	ResumeText string
	Listings   []listing.Listing
	TopK       int
	// Query is the search text used when listings come from the source.
	Query string
}

type Config struct {
	MaxListings       int
	ExcludedCompanies []string
	// DisabledFilters names preparation steps to skip, e.g. "limit".
	DisabledFilters []string
	Area            int
	PerPage         int
}

type Service struct {
	invoker ai.Invoker
	source  listing.Source
	filters []filtering.Filter
	area    int
	perPage int
	logger  *zap.Logger
}

// NewService creates the orchestrator. source may be nil, in which case only
// caller-supplied listings are ranked.
func NewService(invoker ai.Invoker, source listing.Source, cfg Config, log *zap.Logger) *Service {
	filters := filtering.Default(cfg.ExcludedCompanies, cfg.MaxListings)
	for _, name := range cfg.DisabledFilters {
		filtering.DisableByName(filters, strings.TrimSpace(name), "disabled by configuration")
	}

	return &Service{
		invoker: invoker,
		source:  source,
		filters: filters,
		area:    cfg.Area,
		perPage: cfg.PerPage,
		logger:  logger.ForUseCase(log, "matching"),
	}
}

// Filters reports the state of the listing preparation steps.
func (s *Service) Filters() []filtering.Status {
	return filtering.Describe(s.filters)
}

// ClampTopK bounds k to [MinTopK, MaxTopK]. Zero means the caller sent nothing
// and gets DefaultTopK.
func ClampTopK(k int) int {
	switch {
	case k == 0:
		return DefaultTopK
	case k < MinTopK:
		return MinTopK
	case k > MaxTopK:
		return MaxTopK
	default:
		return k
	}
}

// Match ranks listings for the candidate. It never fails: missing listings or a
// failed model call yield an empty list. Results are sorted by match score and
// hold at most min(top_k, number of listings) entries.
func (s *Service) Match(ctx context.Context, req Request) []normalize.MatchResult {
	topK := ClampTopK(req.TopK)

	listings := req.Listings
	if len(listings) == 0 {
		listings = s.Search(ctx, listing.Query{Text: req.Query})
	}

	listings, err := filtering.Run(ctx, s.logger, s.filters, listings)
	if err != nil {
		s.logger.Warn("listing preparation failed", zap.Error(err))
		return []normalize.MatchResult{}
	}
	if len(listings) == 0 {
		s.logger.Info("no listings to rank")
		return []normalize.MatchResult{}
	}

	prompt, sent, err := buildPrompt(req, listings, topK)
	if err != nil {
		s.logger.Warn("build matching prompt", zap.Error(err))
		return []normalize.MatchResult{}
	}
	if len(sent) < len(listings) {
		s.logger.Info("listings trimmed to fit the prompt",
			zap.Int("prepared", len(listings)),
			zap.Int("sent", len(sent)),
		)
	}
	listings = sent

	res := s.invoker.Invoke(ctx, prompt, systemPrompt, temperature, true)
	if !res.OK() {
		s.logger.Warn("matching fell back to empty result", zap.String("reason", string(res.Failure().Kind)))
		return []normalize.MatchResult{}
	}

	results := normalize.Matches(res.Object(), references(listings))
	for i := range results {
		results[i].MatchScore = normalize.Clamp(results[i].MatchScore)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	limit := topK
	if len(listings) < limit {
		limit = len(listings)
	}
	if len(results) > limit {
		results = results[:limit]
	}

	s.logger.Debug("matching completed",
		zap.Int("listings", len(listings)),
		zap.Int("top_k", topK),
		zap.Int("results", len(results)),
	)

	return results
}

// Search reads listings from the source. Failures yield an empty list.
func (s *Service) Search(ctx context.Context, q listing.Query) []listing.Listing {
	if s.source == nil {
		return []listing.Listing{}
	}
	if q.Area <= 0 {
		q.Area = s.area
	}
	if q.PerPage <= 0 {
		q.PerPage = s.perPage
	}

	listings, err := s.source.Fetch(ctx, q)
	if err != nil {
		s.logger.Warn("listing retrieval failed", zap.Error(err))
		return []listing.Listing{}
	}
	if listings == nil {
		listings = []listing.Listing{}
	}

	return listings
}

type promptListing struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	URL          string   `json:"url,omitempty"`
	Requirements []string `json:"requirements"`
	Skills       []string `json:"skills"`
	Description  string   `json:"description"`
}

// buildPrompt renders the instructions and the candidate profile first and the
// listings last, one compact JSON object per line. Trailing listings are dropped
// so the whole prompt stays within the gateway limit; the first listing is always
// sent. It returns the listings that made it into the prompt.
func buildPrompt(req Request, listings []listing.Listing, topK int) (string, []listing.Listing, error) {
	resume := utils.TruncateRunes(strings.TrimSpace(req.ResumeText), ResumeLimit)
	if resume == "" {
		resume = noResume
	}

	values := map[string]string{
		"TARGET_ROLE":   utils.TruncateRunes(strings.TrimSpace(req.TargetRole), roleLimit),
		"USER_SKILLS":   utils.TruncateRunes(strings.Join(req.UserSkills, ", "), skillsLimit),
		"RESUME_TEXT":   resume,
		"LISTINGS_JSON": "",
		"TOP_K":         strconv.Itoa(topK),
	}

	budget := promptBudget - utf8.RuneCountInString(utils.FillTemplate(promptTemplate, values))

	lines := make([]string, 0, len(listings))
	used := 0
	for _, l := range listings {
		data, err := json.Marshal(promptListing{
			ID:           l.ID,
			Title:        l.Title,
			Company:      l.Company,
			Location:     l.Location,
			URL:          l.URL,
			Requirements: normalize.CapList(l.Requirements, 0),
			Skills:       normalize.CapList(l.Skills, 0),
			Description:  utils.TruncateRunes(strings.TrimSpace(l.Description), DescriptionLimit),
		})
		if err != nil {
			return "", nil, err
		}

		size := utf8.RuneCount(data)
		if len(lines) > 0 {
			size++ // newline
		}
		if len(lines) > 0 && used+size > budget {
			break
		}

		lines = append(lines, string(data))
		used += size
	}

	values["LISTINGS_JSON"] = strings.Join(lines, "\n")

	return utils.FillTemplate(promptTemplate, values), listings[:len(lines)], nil
}

func references(listings []listing.Listing) map[string]normalize.Reference {
	refs := make(map[string]normalize.Reference, len(listings))
	for _, l := range listings {
		refs[l.ID] = normalize.Reference{Title: l.Title, Company: l.Company, URL: l.URL}
	}
	return refs
}
