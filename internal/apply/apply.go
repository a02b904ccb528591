// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apply replays extracted change records onto a target-language
// document. Each record's text and context are translated, the context
// locates the closest paragraph, and the edit is made there as a tracked
// revision.
package apply

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/trackport/internal/logging"
	"github.com/pdiddy/trackport/internal/match"
	"github.com/pdiddy/trackport/internal/report"
	"github.com/pdiddy/trackport/pkg/types"
)

// Target is a document whose paragraphs can be edited by rune offset.
type Target interface {
	Paragraphs() []string
	InsertAfter(i int, text string) error
	Delete(i, start, end int) error
	Replace(i, start, end int, text string) error
	SetTrackRevisions(on bool)
}

// Translator translates text into the target language. The second result
// is false when no translation is available.
type Translator interface {
	Text(ctx context.Context, text string) (string, bool)
}

// Options tunes a run.
type Options struct {
	// MinSimilarity rejects paragraph matches scoring below it.
	MinSimilarity float64

	// Verbose prints a diff of every edited paragraph.
	Verbose bool

	// Log receives per-record diagnostics. Nil discards them.
	Log logrus.FieldLogger
}

// outcome is the counter category a record lands in.
type outcome int

const (
	outSkipped outcome = iota
	outInsert
	outDelete
	outReplace
	outFormat
	outBold
	outDeleteMiss
)

var outcomeNames = map[outcome]string{
	outSkipped:    "skipped",
	outInsert:     "insert",
	outDelete:     "delete",
	outReplace:    "replace",
	outFormat:     "format",
	outBold:       "bold",
	outDeleteMiss: "missed",
}

func (o outcome) String() string { return outcomeNames[o] }

func (o outcome) count(c *types.ChangeCounters) {
	switch o {
	case outInsert:
		c.Insert++
	case outDelete:
		c.Delete++
	case outReplace:
		c.Replace++
	case outFormat:
		c.Format++
	case outBold:
		c.Bold++
	case outDeleteMiss:
		c.DeleteMisses++
	default:
		c.Skipped++
	}
}

// Apply replays changes onto doc in order with revision tracking on and
// returns how each category fared. One progress line per record goes to w.
// Records that cannot be translated, matched or applied are counted as
// skipped; Apply only fails when ctx is done.
func Apply(ctx context.Context, doc Target, changes []types.ChangeRecord, tr Translator, opts Options, w io.Writer) (types.ChangeCounters, error) {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}

	doc.SetTrackRevisions(true)

	var counters types.ChangeCounters
	for i, ch := range changes {
		if err := ctx.Err(); err != nil {
			return counters, err
		}

		res := applyOne(ctx, doc, ch, tr, opts.MinSimilarity)
		res.outcome.count(&counters)

		entry := log.WithFields(logrus.Fields{"record": i, "type": ch.Type})
		switch {
		case res.outcome == outSkipped:
			entry.WithField("reason", res.reason).Info("change skipped")
			fmt.Fprintf(w, "skipped  #%d %s: %s\n", i+1, ch.Type, res.reason)
		case res.outcome == outDeleteMiss:
			entry.WithField("paragraph", res.para).Warn("deleted text not found in paragraph")
			fmt.Fprintf(w, "missed   #%d delete in paragraph %d: %s\n", i+1, res.para+1, res.reason)
		default:
			entry.WithFields(logrus.Fields{"paragraph": res.para, "score": res.score}).Debug("change applied")
			fmt.Fprintf(w, "%-8s #%d in paragraph %d (similarity %.2f)\n", res.outcome, i+1, res.para+1, res.score)
			if opts.Verbose {
				fmt.Fprintf(w, "         %s\n", report.Diff(res.before, res.after))
			}
		}
	}

	return counters, nil
}

type result struct {
	outcome       outcome
	reason        string
	para          int
	score         float64
	before, after string
}

func skip(format string, args ...any) result {
	return result{outcome: outSkipped, reason: fmt.Sprintf(format, args...)}
}

// translated holds a record's strings in the target language.
type translated struct {
	context, text, deleted, inserted string
}

func translateRecord(ctx context.Context, ch types.ChangeRecord, tr Translator) (translated, bool) {
	var t translated
	var okCtx, okText bool
	t.context, okCtx = tr.Text(ctx, ch.Context)
	if ch.Type == types.ChangeReplace {
		var okDel, okIns bool
		t.deleted, okDel = tr.Text(ctx, ch.TextDeleted)
		t.inserted, okIns = tr.Text(ctx, ch.TextInserted)
		return t, okCtx && okDel && okIns
	}
	t.text, okText = tr.Text(ctx, ch.Text)
	return t, okCtx && okText
}

func applyOne(ctx context.Context, doc Target, ch types.ChangeRecord, tr Translator, minScore float64) result {
	if !ch.Type.Valid() {
		return skip("unknown change type %q", ch.Type)
	}

	t, ok := translateRecord(ctx, ch, tr)
	if !ok {
		return skip("translation failed")
	}

	paras := doc.Paragraphs()
	trimmed := make([]string, len(paras))
	for i, p := range paras {
		trimmed[i] = strings.TrimSpace(p)
	}

	m, ok := match.Best(t.context, trimmed, minScore)
	if !ok {
		return skip("no matching paragraph")
	}

	idx := -1
	for i, p := range trimmed {
		if p == m.Text {
			idx = i
			break
		}
	}
	if idx < 0 {
		return skip("matched paragraph no longer present")
	}

	res := result{para: idx, score: m.Score, before: paras[idx]}
	var err error

	switch ch.Type {
	case types.ChangeDelete:
		start, end, found := locate(paras[idx], t.text)
		if !found {
			res.outcome = outDeleteMiss
			res.reason = fmt.Sprintf("%q not found", t.text)
			return res
		}
		err = doc.Delete(idx, start, end)
		res.outcome = outDelete

	case types.ChangeInsert:
		err = doc.InsertAfter(idx, t.text)
		res.outcome = outInsert

	case types.ChangeReplace:
		start, end, found := locate(paras[idx], t.deleted)
		if !found {
			return skip("%q not found in paragraph %d", t.deleted, idx+1)
		}
		err = doc.Replace(idx, start, end, t.inserted)
		res.outcome = outReplace

	case types.ChangeFormat:
		err = doc.InsertAfter(idx, FormatMarker(t.text, ch.Bold))
		res.outcome = outFormat
		if ch.Bold {
			res.outcome = outBold
		}
	}

	if err != nil {
		return skip("editing paragraph %d: %v", idx+1, err)
	}

	if after := doc.Paragraphs(); idx < len(after) {
		res.after = after[idx]
	}
	return res
}

// FormatMarker returns the bracketed stand-in appended for a formatting
// change: [BOLD:text] or [FORMATTED:text].
func FormatMarker(text string, bold bool) string {
	if bold {
		return "[BOLD:" + text + "]"
	}
	return "[FORMATTED:" + text + "]"
}

// locate returns the rune span of the first occurrence of sub in s.
func locate(s, sub string) (start, end int, ok bool) {
	i := strings.Index(s, sub)
	if i < 0 || sub == "" {
		return 0, 0, false
	}
	start = utf8.RuneCountInString(s[:i])
	return start, start + utf8.RuneCountInString(sub), true
}
