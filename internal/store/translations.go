// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Lookup returns a cached translation of text. The boolean is false on a
// cache miss.
func (s *Store) Lookup(ctx context.Context, backend, src, dest, text string) (string, bool, error) {
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated FROM translations
		 WHERE backend = ? AND src_lang = ? AND dest_lang = ? AND source_text = ?`,
		backend, src, dest, text,
	).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up translation: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE translations SET hits = hits + 1
		 WHERE backend = ? AND src_lang = ? AND dest_lang = ? AND source_text = ?`,
		backend, src, dest, text,
	); err != nil {
		return "", false, fmt.Errorf("counting cache hit: %w", err)
	}

	return translated, true, nil
}

// Put stores a translation, replacing any earlier one for the same key.
func (s *Store) Put(ctx context.Context, backend, src, dest, text, translated string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (backend, src_lang, dest_lang, source_text, translated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(backend, src_lang, dest_lang, source_text) DO UPDATE SET
			translated=excluded.translated, created_at=excluded.created_at`,
		backend, src, dest, text, translated, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("storing translation: %w", err)
	}
	return nil
}

// CacheStats summarises the translation cache.
type CacheStats struct {
	Entries int
	Hits    int
}

// Stats counts cached translations and the hits they have served.
func (s *Store) Stats(ctx context.Context) (CacheStats, error) {
	var st CacheStats
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(hits), 0) FROM translations`,
	).Scan(&st.Entries, &st.Hits)
	if err != nil {
		return CacheStats{}, fmt.Errorf("reading cache stats: %w", err)
	}
	return st, nil
}
