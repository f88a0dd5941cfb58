// Package listing defines the job/internship records used as matching input.
package listing

import (
	"context"
	"errors"
)

// ErrUnavailable marks a failed or empty upstream listing retrieval.
var ErrUnavailable = errors.New("listings unavailable")

type Listing struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	URL          string   `json:"url,omitempty"`
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements"`
	Skills       []string `json:"skills"`
}

// Query describes a listing search.
type Query struct {
	Text    string
	Area    int
	PerPage int
}

// Source retrieves listings from an external system.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]Listing, error)
}
