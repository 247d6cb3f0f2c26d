// Package sqlite implements core.Store against a single-file SQLite
// database via modernc.org/sqlite, grounded on the teacher's
// pkg/core.SQLiteStore bootstrap (store_init.go): WAL journaling, a
// bounded connection pool, and a single multi-statement table-creation
// script run once at Init.
//
// Keyword search is not mirrored into an FTS5 virtual table here: unlike
// the teacher, this engine's hybrid ranking (pkg/retrieve) recomputes
// BM25 in-process over the vector-retrieved shortlist on every query
// rather than querying a persistent keyword index, so a synced FTS5
// table would be maintained and never read.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/synaptic-mem/engram/pkg/core"
)

// Store is a core.Store backed by a SQLite file, scoped internally by
// owner_id on every query so a single database can serve many tenants.
type Store struct {
	path string
	log  core.Logger

	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New returns a Store that will open path on Init. path is passed
// verbatim to sql.Open after the engine's pragma query string is
// appended. It is expected to be a file path: the pool holds several
// connections, and with ":memory:" each would open its own database.
func New(path string, log core.Logger) *Store {
	if log == nil {
		log = core.NopLogger()
	}
	return &Store{path: path, log: log}
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-2000", s.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return core.WrapOp("sqlite.Init", fmt.Errorf("open: %w", err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		return core.WrapOp("sqlite.Init", fmt.Errorf("enable foreign keys: %w", err))
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return core.WrapOp("sqlite.Init", fmt.Errorf("create schema: %w", err))
	}

	s.db = db
	s.log.Info("sqlite store initialized", "path", s.path)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.db == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.db == nil {
		return core.WrapOp("sqlite.HealthCheck", core.ErrStoreClosed)
	}
	return s.db.PingContext(ctx)
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.db == nil {
		return nil, core.ErrStoreClosed
	}
	return s.db, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS engrams (
	id               TEXT NOT NULL,
	owner_id         TEXT NOT NULL,
	content          TEXT NOT NULL,
	content_hash     TEXT NOT NULL,
	strand           TEXT NOT NULL,
	tags             TEXT,
	metadata         TEXT,
	embedding        BLOB NOT NULL,
	signal           REAL NOT NULL,
	pulse_rate       REAL NOT NULL,
	access_count     INTEGER NOT NULL DEFAULT 0,
	version          INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	last_accessed_at DATETIME NOT NULL,
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS idx_engrams_owner_hash ON engrams(owner_id, content_hash);
CREATE INDEX IF NOT EXISTS idx_engrams_owner_strand ON engrams(owner_id, strand);
CREATE INDEX IF NOT EXISTS idx_engrams_owner_created ON engrams(owner_id, created_at);

CREATE TABLE IF NOT EXISTS synapses (
	owner_id      TEXT NOT NULL,
	source_id     TEXT NOT NULL,
	target_id     TEXT NOT NULL,
	weight        REAL NOT NULL,
	formed_at     DATETIME NOT NULL,
	reinforced_at DATETIME NOT NULL,
	PRIMARY KEY (owner_id, source_id, target_id)
);

CREATE INDEX IF NOT EXISTS idx_synapses_owner_source ON synapses(owner_id, source_id);
CREATE INDEX IF NOT EXISTS idx_synapses_owner_target ON synapses(owner_id, target_id);

CREATE TABLE IF NOT EXISTS chronicles (
	id              TEXT NOT NULL,
	owner_id        TEXT NOT NULL,
	entity          TEXT NOT NULL,
	attribute       TEXT NOT NULL,
	value           TEXT NOT NULL,
	certainty       REAL NOT NULL,
	effective_from  DATETIME NOT NULL,
	effective_until DATETIME,
	recorded_at     DATETIME NOT NULL,
	metadata        TEXT,
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS idx_chronicles_owner_entity_attr ON chronicles(owner_id, entity, attribute);
CREATE INDEX IF NOT EXISTS idx_chronicles_owner_current ON chronicles(owner_id, effective_until);

-- Nexuses have no owner_id of their own: they link two chronicles by ID,
-- and chronicles are already owner-scoped, so tenant isolation for a
-- nexus query comes from joining through the chronicles table.
CREATE TABLE IF NOT EXISTS nexuses (
	id              TEXT NOT NULL PRIMARY KEY,
	origin_id       TEXT NOT NULL,
	linked_id       TEXT NOT NULL,
	bond_type       TEXT NOT NULL,
	strength        REAL NOT NULL,
	effective_from  DATETIME NOT NULL,
	effective_until DATETIME,
	metadata        TEXT
);

CREATE INDEX IF NOT EXISTS idx_nexuses_origin ON nexuses(origin_id);
CREATE INDEX IF NOT EXISTS idx_nexuses_linked ON nexuses(linked_id);
`
