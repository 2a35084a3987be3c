package doi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the DOI resolver used for content negotiation.
	BaseURL = "https://dx.doi.org/"

	// AcceptBibTeX asks the registration agency for a BibTeX rendering.
	AcceptBibTeX = "text/x-bibliography; style=bibtex"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit is the default number of requests per second.
	RateLimit = 5.0
)

// Resolver turns an identifier into raw BibTeX text.
type Resolver interface {
	Resolve(ctx context.Context, id string) (string, error)
}

// Client is a rate-limited DOI content-negotiation client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	logger     *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		c.baseURL = url
	}
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new DOI client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		logger:     log.New(io.Discard),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// URL returns the resolver URL for id.
func (c *Client) URL(id string) string {
	return c.baseURL + Canonical(id)
}

// Resolve fetches the BibTeX rendering of id. arXiv identifiers are
// resolved through their DataCite DOI.
func (c *Client) Resolve(ctx context.Context, id string) (string, error) {
	canonical := Canonical(id)
	if canonical == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrNotFound)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + canonical
	c.logger.Debug("resolving identifier", "id", id, "url", u)

	var body string
	rb := requests.URL(u).
		Client(c.httpClient).
		Accept(AcceptBibTeX).
		AddValidator(checkStatus(canonical)).
		ToString(&body)
	if c.userAgent != "" {
		rb = rb.UserAgent(c.userAgent)
	}

	if err := rb.Fetch(ctx); err != nil {
		var apiErr *APIError
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrRateLimited) || errors.As(err, &apiErr) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrNetworkError, err)
	}

	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, "@") {
		return "", fmt.Errorf("%w: expected BibTeX for %s", ErrInvalidResponse, canonical)
	}
	return body, nil
}

// checkStatus maps non-200 responses to resolver errors.
func checkStatus(id string) requests.ResponseHandler {
	return func(res *http.Response) error {
		switch res.StatusCode {
		case http.StatusOK:
			return nil
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d", ErrRateLimited, res.StatusCode)
		}
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &APIError{
			StatusCode: res.StatusCode,
			Message:    strings.TrimSpace(string(snippet)),
			DOI:        id,
		}
	}
}
