package cache

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver registration only

	"mspro-labs/import-scout/internal/fetch"
)

var logger = log.New(os.Stdout, "CACHE: ", log.LstdFlags|log.Lshortfile)

// Store is a time-bounded page cache keyed by canonical URL. Listing pages
// change slowly; re-rendering one within the TTL wastes a browser round trip
// and risks tripping anti-scraping defenses.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open connects to (or creates) the SQLite cache at path and ensures the
// schema exists. WAL mode keeps concurrent readers from locking each other.
func Open(path string, ttl time.Duration) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}
	if err = createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure cache schema: %w", err)
	}

	store := &Store{db: db, ttl: ttl}
	if purged, err := store.purgeExpired(); err != nil {
		logger.Printf("Warning: failed to purge expired pages: %v", err)
	} else if purged > 0 {
		logger.Printf("Purged %d expired pages", purged)
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS page_cache (
	  url TEXT PRIMARY KEY,
	  html TEXT NOT NULL,
	  fetched_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_fetched_at ON page_cache(fetched_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached HTML for url if it is still within the TTL.
// Expired rows are deleted on read so the file does not grow without bound.
func (s *Store) Get(url string) (string, bool) {
	var html string
	var fetchedAt time.Time
	err := s.db.QueryRow(
		"SELECT html, fetched_at FROM page_cache WHERE url = ?", url,
	).Scan(&html, &fetchedAt)
	if err != nil {
		return "", false
	}
	if time.Since(fetchedAt) > s.ttl {
		if _, err := s.db.Exec("DELETE FROM page_cache WHERE url = ?", url); err != nil {
			logger.Printf("Warning: failed to delete expired page %s: %v", url, err)
		}
		return "", false
	}
	return html, true
}

// purgeExpired drops every row older than the TTL. Timestamps are stored in
// UTC via CURRENT_TIMESTAMP, matching SQLite's datetime('now').
func (s *Store) purgeExpired() (int64, error) {
	res, err := s.db.Exec(
		"DELETE FROM page_cache WHERE fetched_at <= datetime('now', ?)",
		fmt.Sprintf("-%d seconds", int64(s.ttl.Seconds())),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Put stores (or refreshes) the HTML for url.
func (s *Store) Put(url, html string) error {
	_, err := s.db.Exec(`
		INSERT INTO page_cache (url, html, fetched_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(url) DO UPDATE SET html = excluded.html, fetched_at = CURRENT_TIMESTAMP
	`, url, html)
	return err
}

// Entry describes one cached page for the admin listing.
type Entry struct {
	URL       string
	FetchedAt time.Time
	Size      int
}

// List returns all cached pages, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT url, fetched_at, length(html) FROM page_cache ORDER BY fetched_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.URL, &e.FetchedAt, &e.Size); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, rows.Err()
}

// Clear removes a single URL from the cache.
func (s *Store) Clear(url string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM page_cache WHERE url = ?", url)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearAll wipes the cache.
func (s *Store) ClearAll() (int64, error) {
	res, err := s.db.Exec("DELETE FROM page_cache")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Fetcher decorates another Fetcher with cache-aside reads. A cache write
// failure downgrades to a warning: the fetched page is still returned.
type Fetcher struct {
	store *Store
	next  fetch.Fetcher
}

// NewFetcher wraps next with the cache.
func NewFetcher(store *Store, next fetch.Fetcher) *Fetcher {
	return &Fetcher{store: store, next: next}
}

// Fetch returns the cached page when fresh, otherwise fetches and stores it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if html, ok := f.store.Get(url); ok {
		logger.Printf("Cache hit: %s", url)
		return html, nil
	}

	html, err := f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if err := f.store.Put(url, html); err != nil {
		logger.Printf("Warning: failed to cache %s: %v", url, err)
	}
	return html, nil
}
