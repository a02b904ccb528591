// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// node is a parsed element that remembers where it sits in the source bytes,
// so untouched markup can be copied through verbatim.
type node struct {
	name     string // prefixed name as written, e.g. "w:r"
	attrs    []xml.Attr
	start    int // offset of '<'
	openEnd  int // offset just past the start tag
	end      int // offset just past the end tag
	children []*node
	chars    strings.Builder
}

// parseTree builds a node tree over data using raw tokens, which keep the
// namespace prefixes exactly as they appear in the part.
func parseTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	root := &node{end: len(data)}
	stack := []*node{root}

	for {
		off := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xml at offset %d: %w", off, err)
		}

		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{
				name:    qualified(t.Name),
				attrs:   append([]xml.Attr(nil), t.Attr...),
				start:   off,
				openEnd: int(dec.InputOffset()),
			}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 1 {
				return nil, fmt.Errorf("unexpected end element %s at offset %d", qualified(t.Name), off)
			}
			top.end = int(dec.InputOffset())
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top.chars.Write(t)
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("unclosed element %s", stack[len(stack)-1].name)
	}
	return root, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// raw returns the full source markup of n.
func (n *node) raw(data []byte) string {
	return string(data[n.start:n.end])
}

// openTag returns n's start tag, rewritten as an open tag if it was
// self-closing.
func (n *node) openTag(data []byte) string {
	tag := string(data[n.start:n.openEnd])
	if strings.HasSuffix(tag, "/>") {
		tag = strings.TrimSuffix(tag, "/>") + ">"
	}
	return tag
}

// attr returns the value of the attribute with the given local name.
func (n *node) attr(local string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// child returns the first direct child named name.
func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// text concatenates the character data of every descendant named one of
// names, in document order.
func (n *node) text(names ...string) string {
	var b strings.Builder
	var walk func(*node)
	walk = func(m *node) {
		for _, c := range m.children {
			for _, name := range names {
				if c.name == name {
					b.WriteString(c.chars.String())
				}
			}
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// escape writes s as XML character data or attribute content.
func escape(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
