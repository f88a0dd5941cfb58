package headhunter

import (
	"strings"

	"github.com/spigell/careerboost/internal/listing"
)

type Vacancies struct {
	Items []*Vacancy
}

type Area struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Employer struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
}

type Snippet struct {
	Requirement    string `json:"requirement,omitempty"`
	Responsibility string `json:"responsibility,omitempty"`
}

type KeySkill struct {
	Name string `json:"name,omitempty"`
}

type Vacancy struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Area       Area   `json:"area,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Employer     Employer   `json:"employer,omitempty"`
	AlternateURL string     `json:"alternate_url,omitempty"`
	Description  string     `json:"description,omitempty"`
	KeySkills    []KeySkill `json:"key_skills,omitempty"`
	Snippet      Snippet    `json:"snippet,omitempty"`
	PublishedAt  string     `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Listings converts the vacancies into matching input records.
func (v *Vacancies) Listings() []listing.Listing {
	out := make([]listing.Listing, 0, v.Len())
	for _, vacancy := range v.Items {
		if vacancy == nil {
			continue
		}
		out = append(out, vacancy.Listing())
	}
	return out
}

// Listing maps the search snippet onto a listing: the requirement becomes the
// only requirement entry and the responsibility becomes the description.
func (va *Vacancy) Listing() listing.Listing {
	requirements := []string{}
	if req := cleanSnippet(va.Snippet.Requirement); req != "" {
		requirements = append(requirements, req)
	}

	skills := make([]string, 0, len(va.KeySkills))
	for _, skill := range va.KeySkills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			skills = append(skills, name)
		}
	}

	description := cleanSnippet(va.Snippet.Responsibility)
	if description == "" {
		description = cleanSnippet(va.Description)
	}

	return listing.Listing{
		ID:           va.ID,
		Title:        strings.TrimSpace(va.Name),
		Company:      strings.TrimSpace(va.Employer.Name),
		Location:     strings.TrimSpace(va.Area.Name),
		URL:          va.AlternateURL,
		Description:  description,
		Requirements: requirements,
		Skills:       skills,
	}
}

// hh.ru marks matched search terms in snippets with <highlighttext> tags.
var snippetTags = strings.NewReplacer("<highlighttext>", "", "</highlighttext>", "")

func cleanSnippet(s string) string {
	return strings.TrimSpace(snippetTags.Replace(s))
}
