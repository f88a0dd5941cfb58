package filtering

import (
	"context"
	"strconv"
	"strings"

	"github.com/spigell/careerboost/internal/listing"
)

// DefaultLimit is the largest listing set embedded into a ranking prompt.
const DefaultLimit = 50

// Default returns the standard preparation pipeline: required fields, duplicates,
// excluded companies, then the size cap.
func Default(excludedCompanies []string, limit int) []Filter {
	return []Filter{
		NewRequiredFields(),
		NewDeduplicate(),
		NewExcludedCompanies(excludedCompanies),
		NewLimit(limit),
	}
}

// toggle carries the enable/disable state shared by every step.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func keep(listings []listing.Listing, pred func(listing.Listing) bool) ([]listing.Listing, Step) {
	initial := len(listings)
	out := make([]listing.Listing, 0, initial)
	for _, l := range listings {
		if pred(l) {
			out = append(out, l)
		}
	}
	return out, Step{Initial: initial, Dropped: initial - len(out), Left: len(out)}
}

type requiredFieldsFilter struct{ toggle }

// NewRequiredFields creates a filter that removes listings without id or title.
func NewRequiredFields() Filter {
	return &requiredFieldsFilter{}
}

func (f *requiredFieldsFilter) Name() string { return "required_fields" }

func (f *requiredFieldsFilter) Apply(_ context.Context, listings []listing.Listing) ([]listing.Listing, Step, error) {
	out, step := keep(listings, func(l listing.Listing) bool {
		return strings.TrimSpace(l.ID) != "" && strings.TrimSpace(l.Title) != ""
	})
	return out, step, nil
}

type deduplicateFilter struct{ toggle }

// NewDeduplicate creates a filter that keeps the first listing of every id.
func NewDeduplicate() Filter {
	return &deduplicateFilter{}
}

func (f *deduplicateFilter) Name() string { return "deduplicate" }

func (f *deduplicateFilter) Apply(_ context.Context, listings []listing.Listing) ([]listing.Listing, Step, error) {
	seen := make(map[string]struct{}, len(listings))
	out, step := keep(listings, func(l listing.Listing) bool {
		id := strings.TrimSpace(l.ID)
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
		return true
	})
	return out, step, nil
}

type excludedCompaniesFilter struct {
	toggle
	companies []string
	lookup    map[string]struct{}
}

// NewExcludedCompanies creates a filter that removes listings by companies configured in the config.
// Names are compared case-insensitively.
func NewExcludedCompanies(companies []string) Filter {
	f := &excludedCompaniesFilter{lookup: make(map[string]struct{}, len(companies))}
	for _, c := range companies {
		if c = strings.TrimSpace(c); c != "" {
			f.companies = append(f.companies, c)
			f.lookup[strings.ToLower(c)] = struct{}{}
		}
	}
	return f
}

func (f *excludedCompaniesFilter) Name() string { return "excluded_companies" }

func (f *excludedCompaniesFilter) Apply(_ context.Context, listings []listing.Listing) ([]listing.Listing, Step, error) {
	if len(f.lookup) == 0 {
		return listings, Step{Initial: len(listings), Left: len(listings)}, nil
	}
	out, step := keep(listings, func(l listing.Listing) bool {
		_, excluded := f.lookup[strings.ToLower(strings.TrimSpace(l.Company))]
		return !excluded
	})
	return out, step, nil
}

func (f *excludedCompaniesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type limitFilter struct {
	toggle
	limit int
}

// NewLimit creates a filter that keeps at most limit listings.
func NewLimit(limit int) Filter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &limitFilter{limit: limit}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Apply(_ context.Context, listings []listing.Listing) ([]listing.Listing, Step, error) {
	initial := len(listings)
	if initial > f.limit {
		listings = listings[:f.limit]
	}
	return listings, Step{Initial: initial, Dropped: initial - len(listings), Left: len(listings)}, nil
}

func (f *limitFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"limit": strconv.Itoa(f.limit)},
	}
}
