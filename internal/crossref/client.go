// Package crossref searches the Crossref works API for DOIs matching a citation.
package crossref

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Crossref works endpoint.
	BaseURL = "https://api.crossref.org/works"

	// DefaultRows is the default number of candidates requested.
	DefaultRows = 5

	// RateLimit is the polite-pool request rate.
	RateLimit = 10.0
)

// ErrInvalidResponse indicates the response was not Crossref JSON.
var ErrInvalidResponse = errors.New("invalid response from Crossref")

// Candidate is a work returned by a bibliographic search.
type Candidate struct {
	DOI     string  `json:"doi"`
	Title   string  `json:"title"`
	Journal string  `json:"journal,omitempty"`
	Year    int     `json:"year,omitempty"`
	Score   float64 `json:"score"`
}

// Client is a rate-limited Crossref client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithMailto identifies the caller, which Crossref routes to its polite pool.
func WithMailto(addr string) ClientOption {
	return func(c *Client) {
		c.mailto = addr
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// NewClient creates a Crossref client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 10),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rateLimitTransport waits for the limiter before each round trip.
func (c *Client) rateLimitTransport(ctx context.Context, rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return requests.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		return rt.RoundTrip(req)
	})
}

// Search returns the best-scoring works for a free-text citation, highest score first.
func (c *Client) Search(ctx context.Context, query string, rows int) ([]Candidate, error) {
	if rows <= 0 {
		rows = DefaultRows
	}

	var s string
	rb := requests.URL(c.baseURL).
		Client(c.httpClient).
		Transport(c.rateLimitTransport(ctx, c.httpClient.Transport)).
		ParamInt("rows", rows).
		Param("query.bibliographic", query).
		Param("sort", "score").
		Param("order", "desc").
		Accept("application/json").
		ToString(&s)
	if c.mailto != "" {
		rb = rb.Param("mailto", c.mailto)
	}

	if err := rb.Fetch(ctx); err != nil {
		return nil, fmt.Errorf("searching Crossref: %w", err)
	}

	return parseCandidates(s)
}

// parseCandidates extracts candidates from a works search response.
func parseCandidates(s string) ([]Candidate, error) {
	if !gjson.Valid(s) {
		return nil, ErrInvalidResponse
	}

	var out []Candidate
	gjson.Get(s, "message.items").ForEach(func(_, value gjson.Result) bool {
		d := value.Get("DOI").String()
		if d == "" {
			return true
		}
		out = append(out, Candidate{
			DOI:     d,
			Title:   value.Get("title.0").String(),
			Journal: value.Get("container-title.0").String(),
			Year:    int(value.Get("issued.date-parts.0.0").Int()),
			Score:   value.Get("score").Float(),
		})
		return true
	})
	return out, nil
}
