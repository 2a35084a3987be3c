// Package pipeline resolves identifiers to normalised BibTeX entries.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/stream"

	"github.com/matsen/bibfetch/internal/doi"
	"github.com/matsen/bibfetch/internal/export"
	"github.com/matsen/bibfetch/internal/reference"
)

// Normalizer rewrites record fields in place.
type Normalizer interface {
	Normalize(rec *reference.Record)
}

// Pipeline turns identifiers into normalised records.
type Pipeline struct {
	Resolver   doi.Resolver
	Normalizer Normalizer
}

// Result is the outcome of fetching one identifier.
type Result struct {
	ID     string            `json:"id"`
	DOI    string            `json:"doi"`
	Record *reference.Record `json:"-"`
	BibTeX string            `json:"bibtex,omitempty"`
	Err    error             `json:"-"`
}

// Fetch resolves id, parses the response, normalises it and serialises it.
func (p *Pipeline) Fetch(ctx context.Context, id string) (Result, error) {
	res := Result{ID: id, DOI: doi.Canonical(id)}

	text, err := p.Resolver.Resolve(ctx, id)
	if err != nil {
		return res, fmt.Errorf("resolving %s: %w", id, err)
	}

	rec, err := export.ParseRecord(text)
	if err != nil {
		return res, fmt.Errorf("parsing response for %s: %w", id, err)
	}
	if p.Normalizer != nil {
		p.Normalizer.Normalize(rec)
	}

	res.Record = rec
	res.BibTeX = export.ToBibTeX(rec)
	return res, nil
}

// FetchAll fetches ids concurrently with at most workers in flight and calls
// fn once per identifier, in input order. fn runs on a single goroutine.
// A failed fetch is reported through Result.Err.
func (p *Pipeline) FetchAll(ctx context.Context, ids []string, workers int, fn func(Result)) {
	s := stream.New()
	if workers > 0 {
		s = s.WithMaxGoroutines(workers)
	}

	for _, id := range ids {
		s.Go(func() stream.Callback {
			res, err := p.Fetch(ctx, id)
			res.Err = err
			return func() { fn(res) }
		})
	}
	s.Wait()
}
