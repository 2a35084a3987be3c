// Package storage caches resolver responses in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Entry is a cached resolver response.
type Entry struct {
	DOI       string    `json:"doi"`
	BibTeX    string    `json:"bibtex"`
	FetchedAt time.Time `json:"fetched_at"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS resolved (
			doi TEXT PRIMARY KEY,
			bibtex TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_resolved_fetched_at ON resolved(fetched_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Get returns the cached response for a DOI, or nil if none is stored.
// DOIs are case-insensitive.
func (d *DB) Get(doi string) (*Entry, error) {
	var e Entry
	var fetchedAt int64
	err := d.db.QueryRow(`
		SELECT doi, bibtex, fetched_at
		FROM resolved
		WHERE doi = ?
	`, cacheKey(doi)).Scan(&e.DOI, &e.BibTeX, &fetchedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.FetchedAt = time.Unix(fetchedAt, 0)
	return &e, nil
}

// Put saves or replaces the cached response for a DOI.
func (d *DB) Put(doi, bibtex string, fetchedAt time.Time) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO resolved (doi, bibtex, fetched_at)
		VALUES (?, ?, ?)
	`, cacheKey(doi), bibtex, fetchedAt.Unix())
	return err
}

// Delete removes a DOI from the cache. Deleting a missing DOI is not an error.
func (d *DB) Delete(doi string) error {
	_, err := d.db.Exec("DELETE FROM resolved WHERE doi = ?", cacheKey(doi))
	return err
}

// Count returns the number of cached responses.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM resolved").Scan(&count)
	return count, err
}

// Purge removes entries fetched before cutoff and returns how many were removed.
func (d *DB) Purge(cutoff time.Time) (int64, error) {
	res, err := d.db.Exec("DELETE FROM resolved WHERE fetched_at < ?", cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear removes every cached response.
func (d *DB) Clear() (int64, error) {
	res, err := d.db.Exec("DELETE FROM resolved")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
