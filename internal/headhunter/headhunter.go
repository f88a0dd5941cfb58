// Package headhunter is a read-only client for the hh.ru public vacancy search.
package headhunter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/listing"
)

const (
	apiURL    = "https://api.hh.ru"
	userAgent = "careerboost/1.0 (careerboost@example.com)"

	// DefaultArea is Kazakhstan.
	DefaultArea       = 160
	DefaultPerPage    = 20
	DefaultQuery      = "стажировка"
	DefaultExperience = "noExperience"

	// Max value for search per page.
	maxPerPage = 100
)

type Config struct {
	// Token is optional; the vacancy search is public.
	Token   string
	APIURL  string
	Area    int
	PerPage int
	Timeout time.Duration
}

type Client struct {
	token      string
	logger     *zap.Logger
	area       int
	perPage    int
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, cfg Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = apiURL
	}
	if cfg.Area <= 0 {
		cfg.Area = DefaultArea
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = DefaultPerPage
	}
	if cfg.PerPage > maxPerPage {
		cfg.PerPage = maxPerPage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		token:   strings.TrimSpace(cfg.Token),
		logger:  logger,
		area:    cfg.Area,
		perPage: cfg.PerPage,
		APIURL:  strings.TrimRight(cfg.APIURL, "/"),
		HTTPClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		UserAgent: userAgent,
	}
}

// Search pages through the vacancy search and returns the raw vacancies.
func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

// Fetch implements listing.Source. It reads a single page of entry-level
// vacancies. Every failure wraps listing.ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, q listing.Query) ([]listing.Listing, error) {
	params := &SearchParams{
		Text:       strings.TrimSpace(q.Text),
		Areas:      []int{q.Area},
		PerPage:    q.PerPage,
		Experience: DefaultExperience,
		Pages:      1,
	}
	if params.Text == "" {
		params.Text = DefaultQuery
	}
	if q.Area <= 0 {
		params.Areas = []int{c.area}
	}
	if params.PerPage <= 0 {
		params.PerPage = c.perPage
	}

	vacancies, err := c.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", listing.ErrUnavailable, err)
	}

	listings := vacancies.Listings()
	c.logger.Debug("listings fetched from HH.ru",
		zap.String("query", params.Text),
		zap.Int("area", params.Areas[0]),
		zap.Int("count", len(listings)),
	)

	return listings, nil
}
