package doi

import (
	"errors"
	"fmt"
)

// Common errors returned by the resolver.
var (
	// ErrNotFound indicates the identifier is unknown to the registry.
	ErrNotFound = errors.New("identifier not found")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("DOI resolver rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with DOI resolver")

	// ErrInvalidResponse indicates an unexpected response body.
	ErrInvalidResponse = errors.New("invalid response from DOI resolver")
)

// APIError represents an unexpected HTTP status from the resolver.
type APIError struct {
	StatusCode int
	Message    string
	DOI        string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("DOI resolver error (status %d) for %s: %s", e.StatusCode, e.DOI, e.Message)
	}
	return fmt.Sprintf("DOI resolver error (status %d) for %s", e.StatusCode, e.DOI)
}

// IsNotFound returns true if the error indicates the identifier was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
