package ltwa

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/charmbracelet/log"
)

const (
	// DefaultURL is the latest published LTWA text file.
	DefaultURL = "http://www.issn.org/wp-content/uploads/2013/09/LTWA_20160915.txt"

	// DefaultFileName is the cached file name inside the data directory.
	DefaultFileName = "abbrev.txt.gz"
)

// DefaultUpdatedAt is the publication date of DefaultURL. Cached copies
// modified on or before this date are downloaded again.
var DefaultUpdatedAt = time.Date(2016, time.September, 15, 0, 0, 0, 0, time.UTC)

// ErrDictionaryUnavailable is returned when no usable abbreviation list can be obtained.
var ErrDictionaryUnavailable = errors.New("abbreviation dictionary unavailable")

// Fetcher downloads the raw abbreviation list.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads over HTTP.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// Fetch implements Fetcher.
func (f HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	var buf bytes.Buffer
	rb := requests.URL(url).Client(client).ToBytesBuffer(&buf)
	if f.UserAgent != "" {
		rb = rb.UserAgent(f.UserAgent)
	}
	if err := rb.Fetch(ctx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Cache keeps a gzip-compressed copy of the abbreviation list on disk and
// refreshes it when it is missing or older than UpdatedAt.
type Cache struct {
	Path      string
	URL       string
	UpdatedAt time.Time
	Fetcher   Fetcher
	Logger    *log.Logger
}

// NewCache returns a cache stored in dir with the default source.
func NewCache(dir string, fetcher Fetcher, logger *log.Logger) *Cache {
	return &Cache{
		Path:      filepath.Join(dir, DefaultFileName),
		URL:       DefaultURL,
		UpdatedAt: DefaultUpdatedAt,
		Fetcher:   fetcher,
		Logger:    logger,
	}
}

// Open makes sure the cached file is present and fresh, then loads it.
func (c *Cache) Open(ctx context.Context) (*Dictionary, error) {
	if err := c.Ensure(ctx); err != nil {
		return nil, err
	}

	d, err := LoadFile(c.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDictionaryUnavailable, err)
	}

	c.logger().Debug("abbreviation list loaded", "path", c.Path, "entries", d.Len(), "skipped", d.Malformed())
	if d.Malformed() > 0 {
		c.logger().Warn("skipped malformed abbreviation lines", "count", d.Malformed())
	}
	return d, nil
}

// Ensure downloads the list if the cached file is missing or stale.
func (c *Cache) Ensure(ctx context.Context) error {
	info, err := os.Stat(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger().Info("abbreviation list not found; downloading", "path", c.Path)
		return c.Refresh(ctx)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDictionaryUnavailable, err)
	}

	if !c.IsFresh(info.ModTime()) {
		c.logger().Info("abbreviation list is out of date; downloading", "path", c.Path)
		return c.Refresh(ctx)
	}
	return nil
}

// IsFresh reports whether a file modified at mtime is newer than the
// reference date. Comparison is by calendar day.
func (c *Cache) IsFresh(mtime time.Time) bool {
	y, m, d := mtime.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.After(c.UpdatedAt)
}

// Refresh downloads the list unconditionally and replaces the cached file.
func (c *Cache) Refresh(ctx context.Context) error {
	if c.Fetcher == nil {
		return fmt.Errorf("%w: no fetcher configured", ErrDictionaryUnavailable)
	}

	data, err := c.Fetcher.Fetch(ctx, c.URL)
	if err != nil {
		return fmt.Errorf("%w: downloading %s: %w", ErrDictionaryUnavailable, c.URL, err)
	}

	if err := os.MkdirAll(filepath.Dir(c.Path), 0755); err != nil {
		return fmt.Errorf("%w: creating data directory: %w", ErrDictionaryUnavailable, err)
	}
	if err := writeCompressed(c.Path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrDictionaryUnavailable, err)
	}

	c.logger().Info("abbreviation list downloaded", "path", c.Path, "bytes", len(data))
	return nil
}

func (c *Cache) logger() *log.Logger {
	if c.Logger == nil {
		return discard
	}
	return c.Logger
}

var discard = log.New(io.Discard)

// writeCompressed writes data gzip-compressed (unless it already is) via a
// temp file so a failed download never truncates a good copy.
func writeCompressed(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ltwa-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		_, err = tmp.Write(data)
	} else {
		zw := gzip.NewWriter(tmp)
		if _, err = zw.Write(data); err == nil {
			err = zw.Close()
		}
	}
	if err != nil {
		tmp.Close()
		return fmt.Errorf("writing abbreviation list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing abbreviation list: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing abbreviation list: %w", err)
	}
	return nil
}
