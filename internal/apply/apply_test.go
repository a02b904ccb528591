// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package apply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trackport/internal/docx"
	"github.com/pdiddy/trackport/internal/docx/docxtest"
	"github.com/pdiddy/trackport/internal/extract"
	"github.com/pdiddy/trackport/internal/logging"
	"github.com/pdiddy/trackport/pkg/types"
)

func init() {
	color.NoColor = true
}

// --- fakes ---

type fakeDoc struct {
	paras   []string
	track   bool
	editErr error
	edits   []string
}

func (f *fakeDoc) Paragraphs() []string {
	out := make([]string, len(f.paras))
	copy(out, f.paras)
	return out
}

func (f *fakeDoc) SetTrackRevisions(on bool) { f.track = on }

func (f *fakeDoc) InsertAfter(i int, text string) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.paras[i] += text
	f.edits = append(f.edits, fmt.Sprintf("insert %d %q", i, text))
	return nil
}

func (f *fakeDoc) Delete(i, start, end int) error {
	if f.editErr != nil {
		return f.editErr
	}
	r := []rune(f.paras[i])
	f.paras[i] = string(r[:start]) + string(r[end:])
	f.edits = append(f.edits, fmt.Sprintf("delete %d [%d,%d)", i, start, end))
	return nil
}

func (f *fakeDoc) Replace(i, start, end int, text string) error {
	if f.editErr != nil {
		return f.editErr
	}
	r := []rune(f.paras[i])
	f.paras[i] = string(r[:start]) + text + string(r[end:])
	f.edits = append(f.edits, fmt.Sprintf("replace %d [%d,%d) %q", i, start, end, text))
	return nil
}

// dictionary translates by lookup; missing entries fail.
type dictionary map[string]string

func (d dictionary) Text(_ context.Context, text string) (string, bool) {
	out, ok := d[text]
	return out, ok && out != ""
}

func run(t *testing.T, doc Target, changes []types.ChangeRecord, tr Translator, opts Options) (types.ChangeCounters, string) {
	t.Helper()
	var buf bytes.Buffer
	c, err := Apply(context.Background(), doc, changes, tr, opts, &buf)
	require.NoError(t, err)
	return c, buf.String()
}

var zh = dictionary{
	"Revenue grew sharply this year.": "收入今年大幅增长。",
	"sharply":                         "大幅",
	"Costs were highlow.":             "成本很高低。",
	"high":                            "高",
	"low":                             "低",
	"Costs were high.":                "成本很高。",
	"Staff numbers were flat.":        "员工人数持平。",
	"flat":                            "持平",
	"rising":                          "上升",
	"Revenue grew this year.":         "收入今年增长。",
}

// --- Apply ---

func TestApply_InsertAndReplace(t *testing.T) {
	doc := &fakeDoc{paras: []string{"收入今年增长。", "成本很高。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeInsert, Text: "sharply", Context: "Revenue grew sharply this year."},
		{Type: types.ChangeReplace, TextDeleted: "high", TextInserted: "low", Context: "Costs were highlow."},
	}

	c, out := run(t, doc, changes, zh, Options{})

	assert.True(t, doc.track, "tracking enabled")
	assert.Equal(t, types.ChangeCounters{Insert: 1, Replace: 1}, c)
	assert.Equal(t, len(changes), c.Total())
	assert.Equal(t, []string{"收入今年增长。大幅", "成本很低。"}, doc.paras)
	assert.Equal(t, []string{`insert 0 "大幅"`, `replace 1 [3,4) "低"`}, doc.edits)
	assert.Contains(t, out, "insert   #1 in paragraph 1")
	assert.Contains(t, out, "replace  #2 in paragraph 2")
}

func TestApply_Delete(t *testing.T) {
	doc := &fakeDoc{paras: []string{"收入今年增长。", "员工人数持平。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeDelete, Text: "flat", Context: "Staff numbers were flat."},
	}

	c, _ := run(t, doc, changes, zh, Options{})

	assert.Equal(t, types.ChangeCounters{Delete: 1}, c)
	assert.Equal(t, []string{"delete 1 [4,6)"}, doc.edits)
	assert.Equal(t, "员工人数。", doc.paras[1])
}

func TestApply_DeleteMissIsNeitherAppliedNorSkipped(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	doc := &fakeDoc{paras: []string{"员工人数持平。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeDelete, Text: "rising", Context: "Staff numbers were flat."},
	}

	c, out := run(t, doc, changes, zh, Options{Log: logger})

	assert.Equal(t, types.ChangeCounters{DeleteMisses: 1}, c)
	assert.Zero(t, c.Total())
	assert.Empty(t, doc.edits)
	assert.Contains(t, out, "missed")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "deleted text not found in paragraph", hook.LastEntry().Message)
}

func TestApply_ReplaceMissIsSkipped(t *testing.T) {
	doc := &fakeDoc{paras: []string{"员工人数持平。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeReplace, TextDeleted: "high", TextInserted: "low", Context: "Staff numbers were flat."},
	}

	c, out := run(t, doc, changes, zh, Options{})

	assert.Equal(t, types.ChangeCounters{Skipped: 1}, c)
	assert.Empty(t, doc.edits)
	assert.Contains(t, out, `skipped  #1 replace: "高" not found in paragraph 1`)
}

func TestApply_FormatMarkers(t *testing.T) {
	doc := &fakeDoc{paras: []string{"员工人数持平。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeFormat, Text: "flat", Context: "Staff numbers were flat.", Bold: true},
		{Type: types.ChangeFormat, Text: "flat", Context: "Staff numbers were flat."},
	}

	c, _ := run(t, doc, changes, zh, Options{})

	assert.Equal(t, types.ChangeCounters{Bold: 1, Format: 1}, c)
	require.Len(t, doc.edits, 2)
	assert.True(t, strings.HasPrefix(strings.Split(doc.edits[0], " ")[2], `"[BOLD:`))
	assert.True(t, strings.HasPrefix(strings.Split(doc.edits[1], " ")[2], `"[FORMATTED:`))
	assert.Equal(t, "员工人数持平。[BOLD:持平][FORMATTED:持平]", doc.paras[0])
}

func TestApply_Skips(t *testing.T) {
	tests := []struct {
		name   string
		paras  []string
		change types.ChangeRecord
		reason string
	}{
		{
			name:   "missing type",
			paras:  []string{"员工人数持平。"},
			change: types.ChangeRecord{Text: "flat", Context: "Staff numbers were flat."},
			reason: "unknown change type",
		},
		{
			name:   "untranslatable text",
			paras:  []string{"员工人数持平。"},
			change: types.ChangeRecord{Type: types.ChangeInsert, Text: "untranslatable", Context: "Staff numbers were flat."},
			reason: "translation failed",
		},
		{
			name:   "untranslatable context",
			paras:  []string{"员工人数持平。"},
			change: types.ChangeRecord{Type: types.ChangeInsert, Text: "flat", Context: "unknown"},
			reason: "translation failed",
		},
		{
			name:   "one side of a replace untranslatable",
			paras:  []string{"员工人数持平。"},
			change: types.ChangeRecord{Type: types.ChangeReplace, TextDeleted: "flat", TextInserted: "?", Context: "Staff numbers were flat."},
			reason: "translation failed",
		},
		{
			name:   "empty document",
			paras:  nil,
			change: types.ChangeRecord{Type: types.ChangeInsert, Text: "flat", Context: "Staff numbers were flat."},
			reason: "no matching paragraph",
		},
		{
			name:   "nothing in common",
			paras:  []string{"abc", ""},
			change: types.ChangeRecord{Type: types.ChangeInsert, Text: "flat", Context: "Staff numbers were flat."},
			reason: "no matching paragraph",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &fakeDoc{paras: tt.paras}
			c, out := run(t, doc, []types.ChangeRecord{tt.change}, zh, Options{})
			assert.Equal(t, types.ChangeCounters{Skipped: 1}, c)
			assert.Empty(t, doc.edits)
			assert.Contains(t, out, tt.reason)
		})
	}
}

func TestApply_EditErrorIsSkipped(t *testing.T) {
	doc := &fakeDoc{paras: []string{"员工人数持平。"}, editErr: docx.ErrSpanLocked}
	changes := []types.ChangeRecord{
		{Type: types.ChangeDelete, Text: "flat", Context: "Staff numbers were flat."},
	}

	c, out := run(t, doc, changes, zh, Options{})

	assert.Equal(t, types.ChangeCounters{Skipped: 1}, c)
	assert.Contains(t, out, "span crosses locked content")
}

func TestApply_MinSimilarity(t *testing.T) {
	doc := &fakeDoc{paras: []string{"员工人数持平。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeInsert, Text: "flat", Context: "Costs were high."},
	}

	c, _ := run(t, doc, changes, zh, Options{})
	assert.Equal(t, 1, c.Insert, "poor match accepted without a threshold")

	doc = &fakeDoc{paras: []string{"员工人数持平。"}}
	c, _ = run(t, doc, changes, zh, Options{MinSimilarity: 0.5})
	assert.Equal(t, types.ChangeCounters{Skipped: 1}, c)
}

func TestApply_MatchesLiveParagraphs(t *testing.T) {
	// The second record only matches once the first has edited the paragraph.
	doc := &fakeDoc{paras: []string{"员工人数", "收入今年增长。"}}
	tr := dictionary{
		"a": "员工人数", "b": "持平。",
		"c": "员工人数持平。", "d": "持平",
	}
	changes := []types.ChangeRecord{
		{Type: types.ChangeInsert, Text: "b", Context: "a"},
		{Type: types.ChangeDelete, Text: "d", Context: "c"},
	}

	c, _ := run(t, doc, changes, tr, Options{})

	assert.Equal(t, types.ChangeCounters{Insert: 1, Delete: 1}, c)
	assert.Equal(t, "员工人数。", doc.paras[0])
}

func TestApply_RescanPicksFirstEqualParagraph(t *testing.T) {
	doc := &fakeDoc{paras: []string{"  员工人数持平。 ", "员工人数持平。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeDelete, Text: "flat", Context: "Staff numbers were flat."},
	}

	run(t, doc, changes, zh, Options{})

	assert.Equal(t, []string{"delete 0 [6,8)"}, doc.edits)
}

func TestApply_Verbose(t *testing.T) {
	doc := &fakeDoc{paras: []string{"成本很高。"}}
	changes := []types.ChangeRecord{
		{Type: types.ChangeReplace, TextDeleted: "high", TextInserted: "low", Context: "Costs were high."},
	}

	_, out := run(t, doc, changes, zh, Options{Verbose: true})
	assert.Contains(t, out, "成本很[-高-]{+低+}。")
}

func TestApply_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &fakeDoc{paras: []string{"成本很高。"}}
	c, err := Apply(ctx, doc, []types.ChangeRecord{{Type: types.ChangeInsert}}, zh, Options{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, c)
}

// --- helpers ---

func TestLocate(t *testing.T) {
	tests := []struct {
		s, sub     string
		start, end int
		ok         bool
	}{
		{"成本很高。", "高", 3, 4, true},
		{"abc abc", "abc", 0, 3, true},
		{"naïve café", "café", 6, 10, true},
		{"abc", "x", 0, 0, false},
		{"abc", "", 0, 0, false},
	}
	for _, tt := range tests {
		start, end, ok := locate(tt.s, tt.sub)
		assert.Equal(t, tt.ok, ok, "%q in %q", tt.sub, tt.s)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}

func TestFormatMarker(t *testing.T) {
	assert.Equal(t, "[BOLD:粗体]", FormatMarker("粗体", true))
	assert.Equal(t, "[FORMATTED:格式]", FormatMarker("格式", false))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/docs/report_with_tracked_changes.docx", OutputPath("/docs/report.docx", ""))
	assert.Equal(t, "/docs/a.docx.v2.docx", OutputPath("/docs/a.docx.docx", ".v2"))
	assert.Equal(t, "notes_with_tracked_changes", OutputPath("notes", ""))
}

func TestReadChangeSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changes.yaml")
	changes := []types.ChangeRecord{{Type: types.ChangeDelete, Text: "x", Context: "y"}}
	require.NoError(t, extract.WriteChangeSet(path, "en.docx", changes))

	set, err := ReadChangeSet(path)
	require.NoError(t, err)
	assert.Equal(t, "en.docx", set.Source)
	assert.Equal(t, changes, set.Changes)

	_, err = ReadChangeSet(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "reading change set")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("changes: [unterminated"), 0o644))
	_, err = ReadChangeSet(bad)
	assert.ErrorContains(t, err, "parsing change set")
}

// --- end to end ---

func TestEndToEnd(t *testing.T) {
	source := docxtest.Write(t, "english.docx",
		docxtest.P(docxtest.Run("Revenue grew "), docxtest.Ins(1, "Ann", "sharply "), docxtest.Run("this year.")),
		docxtest.P(docxtest.Run("Costs were "), docxtest.Del(2, "Ann", "high"), docxtest.Ins(3, "Ann", "low"), docxtest.Run(".")),
	)
	target := docxtest.Write(t, "chinese.docx",
		docxtest.Para("收入今年增长。"),
		docxtest.Para("成本很高。"),
	)

	changes, err := extract.FromFile(source, logging.Discard())
	require.NoError(t, err)
	require.Len(t, changes, 2)

	output := OutputPath(target, "")
	var buf bytes.Buffer
	c, err := ApplyFile(context.Background(), target, output, changes, zh, FileOptions{Author: "reviewer"}, &buf)
	require.NoError(t, err)

	assert.Equal(t, types.ChangeCounters{Insert: 1, Replace: 1}, c)
	assert.Equal(t, len(changes), c.Total())

	out, err := docx.Open(output)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, []string{"收入今年增长。大幅", "成本很低。"}, out.Paragraphs())

	revs := out.Revisions()
	require.Len(t, revs, 3)
	wantTypes := []int{docx.RevisionInsert, docx.RevisionDelete, docx.RevisionInsert}
	for i, r := range revs {
		assert.Equal(t, wantTypes[i], r.Type())
		assert.Equal(t, "reviewer", r.Author())
	}
	assert.Contains(t, docxtest.ReadPart(t, output, "word/settings.xml"), "<w:trackRevisions/>")

	// The target is untouched.
	orig, err := docx.Open(target)
	require.NoError(t, err)
	defer orig.Close()
	assert.Equal(t, []string{"收入今年增长。", "成本很高。"}, orig.Paragraphs())
}

func TestApplyFile_NotADocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.docx")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	_, err := ApplyFile(context.Background(), path, path+".out", nil, zh, FileOptions{}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, docx.ErrNotDocx))
}

func TestApplyFile_SummaryPrecedesSaveFailure(t *testing.T) {
	target := docxtest.Write(t, "chinese.docx", docxtest.Para("成本很高。"))
	output := filepath.Join(t.TempDir(), "missing", "out.docx")
	changes := []types.ChangeRecord{
		{Type: types.ChangeReplace, TextDeleted: "high", TextInserted: "low", Context: "Costs were high."},
	}

	var buf bytes.Buffer
	c, err := ApplyFile(context.Background(), target, output, changes, zh, FileOptions{}, &buf)
	require.ErrorContains(t, err, "saving")

	assert.Equal(t, types.ChangeCounters{Replace: 1}, c)
	assert.Contains(t, buf.String(), "Change Detection SumUp:\n  - insert: 0\n  - delete: 0\n  - replace: 1\n")
	assert.NoFileExists(t, output)
}
