// Package store persists catalog volumes in SQLite and keeps read-optimized
// views consistent with committed writes through ordered change propagation.
//
// A Store owns one database. Mutations go through a WriteContext, which
// buffers them until Save commits the whole batch in a single transaction.
// Every successful commit is published, in commit order, to each attached
// ReadContext as a ChangeSet; the read context merges change sets on its own
// queue and notifies its observers once per merge. A mutation is therefore
// visible to a read context only after both the commit and the merge have
// happened — asynchronously, but never out of order.
//
// Identifier uniqueness is advisory. The owned-volumes list checks existence
// before inserting; the per-search session store intentionally re-inserts
// volumes that appear on more than one page.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrStoreOpen reports a database that could not be opened or migrated.
// A store that fails to open cannot be used at all.
var ErrStoreOpen = errors.New("store: open failed")

// ErrSave reports a failed commit. The write context has already discarded
// its pending changes; the caller may build a new batch and try again.
var ErrSave = errors.New("store: save failed")

const schema = `
CREATE TABLE IF NOT EXISTS volumes (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier     INTEGER NOT NULL,
	title          TEXT NOT NULL,
	publisher      TEXT,
	image_url      TEXT,
	insertion_date INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS volumes_by_identifier ON volumes(identifier);`

// Store owns one SQLite database holding Volume records.
type Store struct {
	db        *sql.DB
	path      string
	ephemeral bool

	mu      sync.Mutex
	seq     uint64
	readers []*ReadContext
}

// Open opens (or creates) a durable store at path.
func Open(path string) (*Store, error) {
	return open(path, false)
}

// OpenEphemeral creates a throwaway session store in the temp directory.
// Closing it deletes the database.
func OpenEphemeral() (*Store, error) {
	name := fmt.Sprintf("comiclist-session-%s.sqlite", uuid.New())
	return open(filepath.Join(os.TempDir(), name), true)
}

func open(path string, ephemeral bool) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrStoreOpen, path, err)
	}

	// WAL keeps reads cheap while a write transaction is open.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: set WAL mode: %v", ErrStoreOpen, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrStoreOpen, err)
	}

	return &Store{db: db, path: path, ephemeral: ephemeral}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// publishLocked hands a committed change set to every attached read context.
// Called with s.mu held, so commit order and publish order coincide.
func (s *Store) publishLocked(cs ChangeSet) {
	s.seq++
	cs.seq = s.seq
	for _, r := range s.readers {
		r.changes <- cs
	}
}

// fetchAllLocked loads every committed volume in default sort order
// (ascending insertion date).
func (s *Store) fetchAllLocked() ([]Volume, error) {
	rows, err := s.db.Query(
		`SELECT id, identifier, title, publisher, image_url, insertion_date
		 FROM volumes ORDER BY insertion_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: fetch all: %w", err)
	}
	defer rows.Close()
	return scanVolumes(rows)
}

// Close detaches any remaining read contexts and closes the database.
// An ephemeral store's files are removed.
func (s *Store) Close() error {
	s.mu.Lock()
	readers := append([]*ReadContext(nil), s.readers...)
	s.mu.Unlock()

	for _, r := range readers {
		r.Close()
	}

	err := s.db.Close()
	if s.ephemeral {
		os.Remove(s.path)
		os.Remove(s.path + "-wal")
		os.Remove(s.path + "-shm")
	}
	return err
}
