// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// revKind classifies the tracked-change element wrapping a segment.
type revKind int

const (
	revIns revKind = iota + 1
	revDel
	revMoveFrom
	revMoveTo
)

var wrapperKinds = map[string]revKind{
	"w:ins":      revIns,
	"w:del":      revDel,
	"w:moveFrom": revMoveFrom,
	"w:moveTo":   revMoveTo,
}

// wrapper is a w:ins, w:del, w:moveFrom or w:moveTo element grouping one or
// more segments.
type wrapper struct {
	kind   revKind
	open   string
	close  string
	author string
	// parent is the enclosing wrapper when one revision sits inside
	// another, as when a reviewer deletes someone else's insertion.
	parent *wrapper
	// own marks wrappers created in this session. Their content may be
	// split or removed freely.
	own bool
}

// hidden reports whether content under w is absent from the final view.
func (w *wrapper) hidden() bool {
	for x := w; x != nil; x = x.parent {
		if x.kind == revDel || x.kind == revMoveFrom {
			return true
		}
	}
	return false
}

// locked reports whether content under w belongs to someone else's pending
// insertion and must not be edited.
func (w *wrapper) locked() bool {
	for x := w; x != nil; x = x.parent {
		if !x.own && (x.kind == revIns || x.kind == revMoveTo) {
			return true
		}
	}
	return false
}

// chain returns w and its ancestors, outermost first.
func (w *wrapper) chain() []*wrapper {
	var out []*wrapper
	for x := w; x != nil; x = x.parent {
		out = append(out, x)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// piece is one content child of a run. Text pieces have an empty raw and are
// re-rendered from text; every other piece is copied verbatim.
type piece struct {
	text string
	raw  string
}

type propChange struct {
	author string
}

// run is a w:r element.
type run struct {
	open    string
	rPr     string
	pieces  []piece
	hasBold bool
	boldVal string
	change  *propChange
}

func (r *run) text() string {
	var b strings.Builder
	for _, p := range r.pieces {
		b.WriteString(p.text)
	}
	return b.String()
}

// bold reports the run's direct bold setting. Style inheritance is not
// resolved.
func (r *run) bold() (bool, error) {
	if !r.hasBold {
		return false, nil
	}
	return parseOnOff(r.boldVal)
}

// split cuts r at rune offset k of its text.
func (r *run) split(k int) (*run, *run) {
	left := &run{open: r.open, rPr: r.rPr, hasBold: r.hasBold, boldVal: r.boldVal, change: r.change}
	right := &run{open: r.open, rPr: r.rPr, hasBold: r.hasBold, boldVal: r.boldVal, change: r.change}

	c := 0
	for _, p := range r.pieces {
		n := utf8.RuneCountInString(p.text)
		switch {
		case c+n <= k:
			left.pieces = append(left.pieces, p)
		case c >= k || p.raw != "":
			right.pieces = append(right.pieces, p)
		default:
			runes := []rune(p.text)
			left.pieces = append(left.pieces, piece{text: string(runes[:k-c])})
			right.pieces = append(right.pieces, piece{text: string(runes[k-c:])})
		}
		c += n
	}
	return left, right
}

func (r *run) render(b *strings.Builder, deleted bool) {
	b.WriteString(r.open)
	b.WriteString(r.rPr)
	for _, p := range r.pieces {
		if p.raw != "" {
			b.WriteString(p.raw)
			continue
		}
		if deleted {
			b.WriteString(`<w:delText xml:space="preserve">`)
			b.WriteString(escape(p.text))
			b.WriteString(`</w:delText>`)
		} else {
			b.WriteString(`<w:t xml:space="preserve">`)
			b.WriteString(escape(p.text))
			b.WriteString(`</w:t>`)
		}
	}
	b.WriteString("</w:r>")
}

// segment is a direct content child of a paragraph, possibly under a
// tracked-change wrapper. Segments without a run are opaque markup such as
// bookmarks, or inline containers such as hyperlinks whose parsed content
// is kept in inner. Opaque segments are copied through verbatim.
type segment struct {
	wrap  *wrapper
	run   *run
	raw   string
	text  string
	inner []segment
}

// content returns the segment's text with inserted and deleted text both
// present.
func (s segment) content() string {
	switch {
	case s.run != nil:
		return s.run.text()
	case s.inner != nil:
		var b strings.Builder
		for _, c := range s.inner {
			b.WriteString(c.content())
		}
		return b.String()
	}
	return s.text
}

// visible returns the segment's text in the final view.
func (s segment) visible() string {
	if s.wrap.hidden() {
		return ""
	}
	if s.run == nil && s.inner != nil {
		var b strings.Builder
		for _, c := range s.inner {
			b.WriteString(c.visible())
		}
		return b.String()
	}
	return s.content()
}

// visibleLen is the segment's length in runes in the final view.
func (s segment) visibleLen() int {
	return utf8.RuneCountInString(s.visible())
}

func (s segment) locked() bool {
	if s.run == nil {
		return s.visible() != ""
	}
	return s.wrap.locked()
}

// flatten expands inline containers into the segments they hold.
func flatten(segs []segment) []segment {
	var out []segment
	for _, s := range segs {
		if s.run == nil && s.inner != nil {
			out = append(out, flatten(s.inner)...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// paragraph is a w:p element and its parsed content.
type paragraph struct {
	start, end int
	open       string
	pPr        string
	pPrChange  *propChange
	segs       []segment
	dirty      bool
}

func newParagraph(data []byte, n *node) *paragraph {
	p := &paragraph{start: n.start, end: n.end, open: n.openTag(data)}

	for _, c := range n.children {
		if c.name == "w:pPr" {
			p.pPr = c.raw(data)
			if ch := c.child("w:pPrChange"); ch != nil {
				author, _ := ch.attr("author")
				p.pPrChange = &propChange{author: author}
			}
			continue
		}
		p.segs = append(p.segs, newSegments(data, c, nil)...)
	}
	return p
}

// inlineContainers maps elements that hold runs inside a paragraph to the
// child carrying their content. An empty value means the element itself.
var inlineContainers = map[string]string{
	"w:hyperlink": "",
	"w:smartTag":  "",
	"w:fldSimple": "",
	"w:customXml": "",
	"w:sdt":       "w:sdtContent",
	"w:dir":       "",
	"w:bdo":       "",
}

// newSegments parses one paragraph content element under wrap.
func newSegments(data []byte, c *node, wrap *wrapper) []segment {
	switch {
	case c.name == "w:r":
		return []segment{{wrap: wrap, run: newRun(data, c)}}

	case wrapperKinds[c.name] != 0:
		if len(c.children) == 0 {
			return []segment{{wrap: wrap, raw: c.raw(data)}}
		}
		author, _ := c.attr("author")
		w := &wrapper{
			kind:   wrapperKinds[c.name],
			open:   c.openTag(data),
			close:  "</" + c.name + ">",
			author: author,
			parent: wrap,
		}
		var out []segment
		for _, cc := range c.children {
			out = append(out, newSegments(data, cc, w)...)
		}
		return out
	}

	if inner, ok := inlineContainers[c.name]; ok {
		holder := c
		if inner != "" {
			holder = c.child(inner)
		}
		s := segment{wrap: wrap, raw: c.raw(data), inner: []segment{}}
		if holder != nil {
			for _, cc := range holder.children {
				s.inner = append(s.inner, newSegments(data, cc, wrap)...)
			}
		}
		return []segment{s}
	}

	if wrap != nil {
		return []segment{{wrap: wrap, raw: c.raw(data), text: c.text("w:t", "w:delText")}}
	}
	return []segment{{raw: c.raw(data), text: c.text("w:t")}}
}

func newRun(data []byte, n *node) *run {
	r := &run{open: n.openTag(data)}
	for _, c := range n.children {
		switch c.name {
		case "w:rPr":
			r.rPr = c.raw(data)
			if b := c.child("w:b"); b != nil {
				r.hasBold = true
				r.boldVal, _ = b.attr("val")
			}
			if ch := c.child("w:rPrChange"); ch != nil {
				author, _ := ch.attr("author")
				r.change = &propChange{author: author}
			}
		case "w:t", "w:delText":
			r.pieces = append(r.pieces, piece{text: c.chars.String()})
		case "w:tab":
			r.pieces = append(r.pieces, piece{text: "\t", raw: c.raw(data)})
		case "w:br", "w:cr":
			r.pieces = append(r.pieces, piece{text: "\n", raw: c.raw(data)})
		default:
			r.pieces = append(r.pieces, piece{raw: c.raw(data)})
		}
	}
	return r
}

// Text returns the paragraph as it reads with every pending revision
// accepted: inserted text included, deleted text excluded.
func (p *paragraph) Text() string {
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteString(s.visible())
	}
	return b.String()
}

// markupText returns the paragraph with both inserted and deleted text, the
// way an editor reports a range while revisions are shown.
func (p *paragraph) markupText() string {
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteString(s.content())
	}
	return b.String()
}

// splitAt ensures a segment boundary at visible rune offset pos.
func (p *paragraph) splitAt(pos int) error {
	c := 0
	for i, s := range p.segs {
		n := s.visibleLen()
		if c < pos && pos < c+n {
			if s.run == nil || s.locked() {
				return ErrSpanLocked
			}
			left, right := s.run.split(pos - c)
			segs := make([]segment, 0, len(p.segs)+1)
			segs = append(segs, p.segs[:i]...)
			segs = append(segs, segment{wrap: s.wrap, run: left}, segment{wrap: s.wrap, run: right})
			segs = append(segs, p.segs[i+1:]...)
			p.segs = segs
			return nil
		}
		c += n
	}
	return nil
}

// deleteSpan removes visible runes [start, end). With track set, the runs
// are kept under fresh w:del wrappers from newWrap; text this session
// inserted is dropped outright either way. It returns the segment index
// just past the deletion and the first run it touched.
func (p *paragraph) deleteSpan(start, end int, track bool, newWrap func(revKind) *wrapper) (int, *run, error) {
	total := utf8.RuneCountInString(p.Text())
	if start < 0 || end > total || start >= end {
		return 0, nil, fmt.Errorf("%w: [%d, %d) in paragraph of %d runes", ErrOutOfRange, start, end, total)
	}

	c := 0
	for _, s := range p.segs {
		n := s.visibleLen()
		if n > 0 && c < end && c+n > start && s.locked() {
			return 0, nil, ErrSpanLocked
		}
		c += n
	}

	if err := p.splitAt(start); err != nil {
		return 0, nil, err
	}
	if err := p.splitAt(end); err != nil {
		return 0, nil, err
	}

	var (
		out   []segment
		first *run
		cur   *wrapper
		at    int
	)
	c = 0
	for _, s := range p.segs {
		n := s.visibleLen()
		covered := n > 0 && c >= start && c+n <= end
		c += n
		if !covered {
			out = append(out, s)
			cur = nil
			continue
		}

		if first == nil {
			first = s.run
		}
		if s.wrap == nil && track {
			if cur == nil {
				cur = newWrap(revDel)
			}
			s.wrap = cur
			out = append(out, s)
		}
		at = len(out)
	}

	p.segs = out
	p.dirty = true
	return at, first, nil
}

var propChangePattern = regexp.MustCompile(`(?s)<w:rPrChange\b[^>]*/>|<w:rPrChange\b.*?</w:rPrChange>`)

// insertAt places a new run carrying text at segment index at, copying run
// properties from like.
func (p *paragraph) insertAt(at int, text string, like *run, wrap *wrapper) {
	r := &run{open: "<w:r>", pieces: []piece{{text: text}}}
	if like != nil {
		r.rPr = propChangePattern.ReplaceAllString(like.rPr, "")
		r.hasBold, r.boldVal = like.hasBold, like.boldVal
	}

	segs := make([]segment, 0, len(p.segs)+1)
	segs = append(segs, p.segs[:at]...)
	segs = append(segs, segment{wrap: wrap, run: r})
	segs = append(segs, p.segs[at:]...)
	p.segs = segs
	p.dirty = true
}

// lastVisibleRun returns the final run that shows in the final view.
func (p *paragraph) lastVisibleRun() *run {
	for i := len(p.segs) - 1; i >= 0; i-- {
		s := p.segs[i]
		if s.run != nil && !s.wrap.hidden() {
			return s.run
		}
	}
	return nil
}

func (p *paragraph) render() string {
	var b strings.Builder
	b.WriteString(p.open)
	b.WriteString(p.pPr)

	var open []*wrapper
	for _, s := range p.segs {
		want := s.wrap.chain()
		k := 0
		for k < len(open) && k < len(want) && open[k] == want[k] {
			k++
		}
		for i := len(open) - 1; i >= k; i-- {
			b.WriteString(open[i].close)
		}
		for _, w := range want[k:] {
			b.WriteString(w.open)
		}
		open = want

		if s.run != nil {
			s.run.render(&b, s.wrap.hidden())
		} else {
			b.WriteString(s.raw)
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString(open[i].close)
	}

	b.WriteString("</w:p>")
	return b.String()
}

// parseOnOff interprets an ST_OnOff attribute value. An absent value means on.
func parseOnOff(v string) (bool, error) {
	switch v {
	case "", "1", "true", "on":
		return true, nil
	case "0", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("%w: on/off value %q", ErrMalformed, v)
}
