// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists translations and run history in a local SQLite
// database.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trackport/pkg/types"
)

// DefaultPath is where the database lives when the configuration names none.
const DefaultPath = ".trackport/trackport.db"

// Store manages the trackport SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database at cfg.Path, creating its parent
// directory and schema as needed.
func NewStore(cfg types.CacheConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS translations (
			backend TEXT NOT NULL,
			src_lang TEXT NOT NULL,
			dest_lang TEXT NOT NULL,
			source_text TEXT NOT NULL,
			translated TEXT NOT NULL,
			created_at TEXT NOT NULL,
			hits INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (backend, src_lang, dest_lang, source_text)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT,
			target TEXT NOT NULL,
			output TEXT,
			backend TEXT,
			changes INTEGER NOT NULL,
			inserts INTEGER NOT NULL,
			deletes INTEGER NOT NULL,
			replaces INTEGER NOT NULL,
			formats INTEGER NOT NULL,
			bolds INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			delete_misses INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
