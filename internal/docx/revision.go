// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import "strings"

// Revision type numbers follow the editor's revision-type enumeration so
// that callers can map them the same way for either host.
const (
	RevisionInsert            = 1
	RevisionDelete            = 2
	RevisionProperty          = 3
	RevisionParagraphProperty = 10
	RevisionMovedFrom         = 14
	RevisionMovedTo           = 15
)

var revisionTypes = map[revKind]int{
	revIns:      RevisionInsert,
	revDel:      RevisionDelete,
	revMoveFrom: RevisionMovedFrom,
	revMoveTo:   RevisionMovedTo,
}

// Revision is one tracked change in a document.
type Revision struct {
	kind   int
	author string
	wrap   *wrapper
	para   *paragraph
	segs   []segment
}

// Type returns the revision type number.
func (r *Revision) Type() int { return r.kind }

// Author returns the name recorded on the revision.
func (r *Revision) Author() string { return r.author }

// Text returns the revised text: inserted text for insertions, removed text
// for deletions, the reformatted text for property changes.
func (r *Revision) Text() (string, error) {
	var b strings.Builder
	for _, s := range r.segs {
		b.WriteString(s.content())
	}
	return b.String(), nil
}

// Context returns the text of the enclosing paragraph with inserted and
// deleted text both present.
func (r *Revision) Context() (string, error) {
	return r.para.markupText(), nil
}

// Bold reports whether any run in the revision is bold.
func (r *Revision) Bold() (bool, error) {
	for _, s := range r.segs {
		if s.run == nil {
			continue
		}
		b, err := s.run.bold()
		if err != nil {
			return false, err
		}
		if b {
			return true, nil
		}
	}
	return false, nil
}

// Revisions lists every tracked change in document order, including those
// inside hyperlinks and content controls. A change spanning several
// paragraphs is reported once per paragraph. Adjacent formatting changes by
// the same author merge into one revision. Revisions of the paragraph mark
// itself are not reported.
func (d *Document) Revisions() []*Revision {
	var out []*Revision
	for _, p := range d.paras {
		out = append(out, p.revisions()...)
	}
	return out
}

func (p *paragraph) revisions() []*Revision {
	var (
		out      []*Revision
		byWrap   = map[*wrapper]*Revision{}
		propRev  *Revision
		propLast = -1
	)

	for i, s := range flatten(p.segs) {
		if s.wrap != nil {
			rev, ok := byWrap[s.wrap]
			if !ok {
				rev = &Revision{kind: revisionTypes[s.wrap.kind], author: s.wrap.author, wrap: s.wrap, para: p}
				byWrap[s.wrap] = rev
				out = append(out, rev)
			}
			rev.segs = append(rev.segs, s)
		}

		if s.run == nil || s.run.change == nil {
			continue
		}
		author := s.run.change.author
		if propRev == nil || propLast != i-1 || propRev.author != author {
			propRev = &Revision{kind: RevisionProperty, author: author, para: p}
			out = append(out, propRev)
		}
		propRev.segs = append(propRev.segs, s)
		propLast = i
	}

	if p.pPrChange != nil {
		out = append(out, &Revision{kind: RevisionParagraphProperty, author: p.pPrChange.author, para: p})
	}
	return out
}
