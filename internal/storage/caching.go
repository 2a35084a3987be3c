package storage

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matsen/bibfetch/internal/doi"
)

// cacheKey is the lookup key for an identifier: its canonical DOI, lower-cased.
func cacheKey(id string) string {
	return strings.ToLower(doi.Canonical(id))
}

// CachingResolver serves raw BibTeX from the cache and stores fresh
// responses from the wrapped resolver. Entries older than TTL are refetched;
// a zero TTL never expires.
type CachingResolver struct {
	next   doi.Resolver
	db     *DB
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// NewCachingResolver wraps next with the cache in db.
func NewCachingResolver(next doi.Resolver, db *DB, ttl time.Duration, logger *log.Logger) *CachingResolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &CachingResolver{
		next:   next,
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Resolve implements doi.Resolver. Cache failures are logged and bypassed.
func (r *CachingResolver) Resolve(ctx context.Context, id string) (string, error) {
	entry, err := r.db.Get(id)
	if err != nil {
		r.logger.Warn("reading resolution cache", "id", id, "err", err)
	}
	if entry != nil && !r.expired(entry) {
		r.logger.Debug("cache hit", "doi", entry.DOI)
		return entry.BibTeX, nil
	}

	text, err := r.next.Resolve(ctx, id)
	if err != nil {
		return "", err
	}

	if err := r.db.Put(id, text, r.now()); err != nil {
		r.logger.Warn("writing resolution cache", "id", id, "err", err)
	}
	return text, nil
}

func (r *CachingResolver) expired(e *Entry) bool {
	return r.ttl > 0 && r.now().Sub(e.FetchedAt) > r.ttl
}
