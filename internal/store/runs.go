// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trackport/pkg/types"
)

// RecordRun persists run, assigning a fresh ID when it has none.
func (s *Store) RecordRun(ctx context.Context, run *types.RunRecord) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	c := run.Counters
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, target, output, backend, changes,
			inserts, deletes, replaces, formats, bolds, skipped, delete_misses,
			started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Target, run.Output, run.Backend, run.Changes,
		c.Insert, c.Delete, c.Replace, c.Format, c.Bold, c.Skipped, c.DeleteMisses,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// Runs returns recorded runs, newest first. A limit of zero or less returns
// every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, coalesce(source, ''), target, coalesce(output, ''), coalesce(backend, ''), changes,
			inserts, deletes, replaces, formats, bolds, skipped, delete_misses,
			started_at, finished_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunRecord
	for rows.Next() {
		var (
			r                 types.RunRecord
			started, finished string
		)
		c := &r.Counters
		if err := rows.Scan(&r.ID, &r.Source, &r.Target, &r.Output, &r.Backend, &r.Changes,
			&c.Insert, &c.Delete, &c.Replace, &c.Format, &c.Bold, &c.Skipped, &c.DeleteMisses,
			&started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ExportYAML writes the most recent runs (see Runs) to w as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	runs, err := s.Runs(ctx, limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []types.RunRecord{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
