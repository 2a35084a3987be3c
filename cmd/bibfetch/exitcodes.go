package main

import (
	"errors"

	"github.com/matsen/bibfetch/internal/config"
	"github.com/matsen/bibfetch/internal/doi"
	"github.com/matsen/bibfetch/internal/export"
	"github.com/matsen/bibfetch/internal/ltwa"
	"github.com/matsen/bibfetch/internal/pdf"
)

// Exit codes
const (
	ExitSuccess         = 0 // Success
	ExitError           = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError     = 2 // Configuration error (bad config file, invalid values)
	ExitDataError       = 3 // Data error (unparseable response, no DOI in PDF)
	ExitNotFound        = 4 // Identifier not registered
	ExitRateLimited     = 5 // Resolver rate limit exceeded
	ExitNetworkError    = 6 // Resolver unreachable
	ExitDictionaryError = 7 // Abbreviation dictionary unavailable
)

// exitCodeFor classifies an error into an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ltwa.ErrDictionaryUnavailable):
		return ExitDictionaryError
	case doi.IsNotFound(err):
		return ExitNotFound
	case doi.IsRateLimited(err):
		return ExitRateLimited
	case errors.Is(err, doi.ErrNetworkError):
		return ExitNetworkError
	case errors.Is(err, doi.ErrInvalidResponse),
		errors.Is(err, export.ErrNoEntry),
		errors.Is(err, pdf.ErrNoDOIFound),
		errors.Is(err, pdf.ErrNoTextExtracted):
		return ExitDataError
	}
	return ExitError
}
