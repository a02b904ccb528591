// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns the tracked revisions of an edited source document
// into an ordered list of change records.
package extract

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trackport/internal/docx"
	"github.com/pdiddy/trackport/pkg/types"
)

// Revision type numbers as the document host reports them. Types 3 through
// 6 (property, paragraph number, display field, reconcile) all count as
// formatting changes; every other type is ignored.
const (
	typeInsert      = 1
	typeDelete      = 2
	typeFormatFirst = 3
	typeFormatLast  = 6
)

// Revision is one tracked change as the document host exposes it. Each
// accessor may fail independently.
type Revision interface {
	Type() int
	Text() (string, error)
	Context() (string, error)
	Bold() (bool, error)
}

// Source lists a document's revisions in document order.
type Source interface {
	Revisions() ([]Revision, error)
}

// docxSource adapts a docx.Document to Source.
type docxSource struct {
	doc *docx.Document
}

// FromDocx returns a Source over an open document.
func FromDocx(doc *docx.Document) Source {
	return docxSource{doc: doc}
}

func (s docxSource) Revisions() ([]Revision, error) {
	revs := s.doc.Revisions()
	out := make([]Revision, len(revs))
	for i, r := range revs {
		out[i] = r
	}
	return out, nil
}

// FromFile opens the document at path, extracts its changes and closes it.
func FromFile(path string, log logrus.FieldLogger) ([]types.ChangeRecord, error) {
	doc, err := docx.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()
	return Changes(FromDocx(doc), log)
}

// Changes walks the revisions of src and returns one record per change.
//
// A delete immediately followed by an insert whose enclosing paragraph text
// is identical collapses into a single replace record, and the insert is
// consumed. A revision that cannot be read is logged and skipped; the walk
// continues with the next one.
func Changes(src Source, log logrus.FieldLogger) ([]types.ChangeRecord, error) {
	revs, err := src.Revisions()
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}

	var changes []types.ChangeRecord
	skipNext := false

	for i := range revs {
		if skipNext {
			skipNext = false
			continue
		}

		rec, consumed, err := convert(revs, i)
		if err != nil {
			log.WithError(err).WithField("revision", i).Warn("skipping unreadable revision")
			continue
		}
		if rec != nil {
			changes = append(changes, *rec)
		}
		skipNext = consumed
	}

	log.WithField("records", len(changes)).Debugf("extracted %d revisions", len(revs))
	return changes, nil
}

// fields is a revision read in full.
type fields struct {
	typ     int
	text    string
	context string
	bold    bool
}

func read(rev Revision) (fields, error) {
	text, err := rev.Text()
	if err != nil {
		return fields{}, fmt.Errorf("reading text: %w", err)
	}
	context, err := rev.Context()
	if err != nil {
		return fields{}, fmt.Errorf("reading context: %w", err)
	}
	bold, err := rev.Bold()
	if err != nil {
		return fields{}, fmt.Errorf("reading font: %w", err)
	}
	return fields{
		typ:     rev.Type(),
		text:    strings.TrimSpace(text),
		context: strings.TrimSpace(context),
		bold:    bold,
	}, nil
}

// convert builds the record for revs[i]. consumed reports whether revs[i+1]
// was folded into a replace.
func convert(revs []Revision, i int) (rec *types.ChangeRecord, consumed bool, err error) {
	cur, err := read(revs[i])
	if err != nil {
		return nil, false, err
	}

	if cur.typ == typeDelete && i+1 < len(revs) && revs[i+1].Type() == typeInsert {
		nextContext, err := revs[i+1].Context()
		if err != nil {
			return nil, false, fmt.Errorf("reading following insert: %w", err)
		}
		if strings.TrimSpace(nextContext) == cur.context {
			next, err := read(revs[i+1])
			if err != nil {
				return nil, false, fmt.Errorf("reading following insert: %w", err)
			}
			return &types.ChangeRecord{
				Type:         types.ChangeReplace,
				TextDeleted:  cur.text,
				TextInserted: next.text,
				Context:      cur.context,
				Bold:         next.bold,
			}, true, nil
		}
	}

	var typ types.ChangeType
	switch {
	case cur.typ == typeInsert:
		typ = types.ChangeInsert
	case cur.typ == typeDelete:
		typ = types.ChangeDelete
	case cur.typ >= typeFormatFirst && cur.typ <= typeFormatLast:
		typ = types.ChangeFormat
	default:
		return nil, false, nil
	}

	return &types.ChangeRecord{
		Type:    typ,
		Text:    cur.text,
		Context: cur.context,
		Bold:    cur.bold,
	}, false, nil
}

// WriteChangeSet marshals the records extracted from source to a YAML file.
func WriteChangeSet(path, source string, changes []types.ChangeRecord) error {
	set := types.ChangeSet{
		Source:      source,
		ExtractedAt: time.Now().UTC().Truncate(time.Second),
		Changes:     changes,
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshaling change set: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
