// Package store keeps named VM images in a SQLite library on disk.
// Every save appends a new version; lookups return the newest one.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrImageNotFound indicates the requested image doesn't exist.
var ErrImageNotFound = errors.New("image not found")

// Store is a library of named, versioned image blobs.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Entry describes one saved image version. Fingerprint is the content
// fingerprint of the source the image was built from, or empty when the
// save had no single source (a REPL session, for example).
type Entry struct {
	Name        string
	CreatedAt   time.Time
	Size        int
	Fingerprint string
}

// Open opens (or creates) an image library at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening image library: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Rowids are monotonic, so ordering by id is newest-first insertion
	// order without depending on timestamp formatting.
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		data BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating images table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS images_name ON images(name, id)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating name index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends a new version of the named image. fingerprint ties the
// image back to the source that produced it and may be empty.
func (s *Store) Save(name string, data []byte, fingerprint string) error {
	if name == "" {
		return errors.New("image name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.Exec(
		"INSERT INTO images (name, created_at, fingerprint, data) VALUES (?, ?, ?, ?)",
		name, createdAt, fingerprint, data,
	); err != nil {
		return fmt.Errorf("saving image %q: %w", name, err)
	}
	return nil
}

// Load returns the newest version of the named image.
func (s *Store) Load(name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(
		"SELECT data FROM images WHERE name = ? ORDER BY id DESC LIMIT 1",
		name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("loading image %q: %w", name, err)
	}
	return data, nil
}

// List returns every saved version, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT name, created_at, fingerprint, length(data) FROM images ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.Name, &createdAt, &e.Fingerprint, &e.Size); err != nil {
			return nil, fmt.Errorf("scanning image row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes every version of the named image.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM images WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting image %q: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrImageNotFound
	}
	return nil
}
