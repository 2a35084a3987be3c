package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/matsen/bibfetch/internal/abbrev"
	"github.com/matsen/bibfetch/internal/crossref"
	"github.com/matsen/bibfetch/internal/doi"
	"github.com/matsen/bibfetch/internal/ltwa"
	"github.com/matsen/bibfetch/internal/normalize"
	"github.com/matsen/bibfetch/internal/pipeline"
	"github.com/matsen/bibfetch/internal/storage"
)

// userAgent identifies bibfetch to remote services, with a contact address
// when one is configured.
func userAgent() string {
	ua := "bibfetch/" + Version
	if cfg.Mailto != "" {
		ua += fmt.Sprintf(" (mailto:%s)", cfg.Mailto)
	}
	return ua
}

// newDictionaryCache returns the on-disk abbreviation list cache for the config.
func newDictionaryCache() *ltwa.Cache {
	fetcher := ltwa.HTTPFetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: userAgent(),
	}
	cache := ltwa.NewCache(cfg.DataDir, fetcher, logger)
	cache.URL = cfg.LTWAURL
	if updated, err := cfg.LTWAUpdatedAt(); err == nil {
		cache.UpdatedAt = updated
	}
	return cache
}

// openAbbreviator loads the abbreviation list, downloading it when needed.
func openAbbreviator(ctx context.Context) (*abbrev.Abbreviator, error) {
	dict, err := newDictionaryCache().Open(ctx)
	if err != nil {
		return nil, err
	}
	return abbrev.New(dict), nil
}

// newResolver returns the DOI client wrapped in the resolution cache.
// The returned close function releases the cache database.
func newResolver() (doi.Resolver, func(), error) {
	client := doi.NewClient(
		doi.WithTimeout(cfg.Timeout),
		doi.WithRateLimit(cfg.RateLimit),
		doi.WithUserAgent(userAgent()),
		doi.WithLogger(logger),
	)

	db, err := openCacheDB()
	if err != nil {
		return nil, nil, err
	}
	return storage.NewCachingResolver(client, db, cfg.CacheTTL, logger), func() { db.Close() }, nil
}

// openCacheDB opens the resolution cache in the data directory.
func openCacheDB() (*storage.DB, error) {
	if err := ensureDir(cfg.DataDir); err != nil {
		return nil, err
	}
	db, err := storage.OpenDB(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening resolution cache: %w", err)
	}
	return db, nil
}

// newPipeline wires the resolver, cache and normaliser together.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	abbr, err := openAbbreviator(ctx)
	if err != nil {
		return nil, nil, err
	}
	resolver, closeFn, err := newResolver()
	if err != nil {
		return nil, nil, err
	}
	return &pipeline.Pipeline{
		Resolver:   resolver,
		Normalizer: normalize.New(abbr),
	}, closeFn, nil
}

// newCrossrefClient returns a Crossref client for the config.
func newCrossrefClient() *crossref.Client {
	opts := []crossref.ClientOption{crossref.WithTimeout(cfg.Timeout)}
	if cfg.Mailto != "" {
		opts = append(opts, crossref.WithMailto(cfg.Mailto))
	}
	return crossref.NewClient(opts...)
}

// ensureDir creates dir and its parents if needed.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}
