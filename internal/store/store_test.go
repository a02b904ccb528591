// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trackport/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.CacheConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "nested", "trackport.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_ReopensExistingSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackport.db")
	cfg := types.CacheConfig{Path: path}

	s, err := NewStore(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "google", "en", "zh-CN", "hello", "你好"))
	require.NoError(t, s.Close())

	s, err = NewStore(cfg)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Lookup(context.Background(), "google", "en", "zh-CN", "hello")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "你好", got)
	assert.Equal(t, path, s.Path())
}

// --- translations ---

func TestLookup_Miss(t *testing.T) {
	s := testStore(t)

	got, ok, err := s.Lookup(context.Background(), "google", "en", "zh-CN", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestPut_KeyIncludesBackendAndLanguages(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "google", "en", "zh-CN", "cat", "猫"))
	require.NoError(t, s.Put(ctx, "llm", "en", "zh-CN", "cat", "貓"))

	got, ok, err := s.Lookup(ctx, "llm", "en", "zh-CN", "cat")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "貓", got)

	_, ok, err = s.Lookup(ctx, "google", "en", "ja", "cat")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPut_Overwrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "google", "en", "zh-CN", "cat", "old"))
	require.NoError(t, s.Put(ctx, "google", "en", "zh-CN", "cat", "猫"))

	got, _, err := s.Lookup(ctx, "google", "en", "zh-CN", "cat")
	require.NoError(t, err)
	assert.Equal(t, "猫", got)
}

func TestStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "google", "en", "zh-CN", "a", "甲"))
	require.NoError(t, s.Put(ctx, "google", "en", "zh-CN", "b", "乙"))
	for range 3 {
		_, _, err := s.Lookup(ctx, "google", "en", "zh-CN", "a")
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Entries: 2, Hits: 3}, st)
}

// --- runs ---

func TestRecordRun_AssignsID(t *testing.T) {
	s := testStore(t)
	run := &types.RunRecord{Target: "chinese.docx", StartedAt: time.Now(), FinishedAt: time.Now()}

	require.NoError(t, s.RecordRun(context.Background(), run))
	assert.Len(t, run.ID, 36)
}

func TestRuns_NewestFirstWithCounters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := &types.RunRecord{
		Source: "a.docx", Target: "b.docx", Output: "b_with_tracked_changes.docx",
		Backend: "google", Changes: 3,
		Counters:  types.ChangeCounters{Insert: 1, Replace: 1, Skipped: 1, DeleteMisses: 2},
		StartedAt: base, FinishedAt: base.Add(2 * time.Second),
	}
	newer := &types.RunRecord{
		Target: "c.docx", Changes: 1,
		Counters:  types.ChangeCounters{Bold: 1},
		StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour),
	}
	require.NoError(t, s.RecordRun(ctx, older))
	require.NoError(t, s.RecordRun(ctx, newer))

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, *older, runs[1])
	assert.Equal(t, 2*time.Second, runs[1].Duration())

	limited, err := s.Runs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c.docx", limited[0].Target)
}

func TestRuns_Empty(t *testing.T) {
	s := testStore(t)

	runs, err := s.Runs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordRun(ctx, &types.RunRecord{
		ID: "run-1", Target: "t.docx", Counters: types.ChangeCounters{Insert: 4},
		StartedAt: now, FinishedAt: now,
	}))

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &buf, 0))

	var got []types.RunRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "run-1", got[0].ID)
	assert.Equal(t, 4, got[0].Counters.Insert)
	assert.Contains(t, buf.String(), "delete_misses: 0")
}

func TestExportYAML_NoRuns(t *testing.T) {
	s := testStore(t)

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(context.Background(), &buf, 0))
	assert.Equal(t, "[]\n", buf.String())
}
