// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docx reads and edits Office Open XML word-processing packages with
// revision tracking. It plays the part of the document editor: it lists the
// tracked revisions of a source document and applies tracked insertions and
// deletions to the paragraphs of a target document.
//
// Paragraph offsets are rune offsets into the paragraph's final-view text,
// in which pending insertions are shown and pending deletions are not.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	documentPart     = "word/document.xml"
	settingsPart     = "word/settings.xml"
	contentTypesPart = "[Content_Types].xml"
	documentRelsPart = "word/_rels/document.xml.rels"

	settingsContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	settingsRelType     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"

	// DefaultAuthor is recorded on revisions when no author is set.
	DefaultAuthor = "trackport"
)

var (
	// ErrNotDocx is returned when a file is not a word-processing package.
	ErrNotDocx = errors.New("not a docx package")

	// ErrSpanLocked is returned when an edit would cut through another
	// author's pending insertion or through non-run content.
	ErrSpanLocked = errors.New("span crosses locked content")

	// ErrOutOfRange is returned for paragraph indexes or offsets outside
	// the document.
	ErrOutOfRange = errors.New("out of range")

	// ErrMalformed is returned for attribute values the schema does not allow.
	ErrMalformed = errors.New("malformed document")
)

type part struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document is an open word-processing package held in memory.
type Document struct {
	path   string
	parts  []*part
	body   []byte
	paras  []*paragraph
	track  bool
	nextID int

	// Author is recorded on every revision this Document writes.
	Author string

	// Now supplies revision timestamps. Tests pin it.
	Now func() time.Time
}

// Open reads the package at path and parses its main document part.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrNotDocx, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	d := &Document{path: path, Author: DefaultAuthor, Now: time.Now}

	for _, f := range zr.File {
		data, err := readPart(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s in %s: %w", f.Name, path, err)
		}
		d.parts = append(d.parts, &part{name: f.Name, method: f.Method, modified: f.Modified, data: data})
		if f.Name == documentPart {
			d.body = data
		}
	}

	if d.body == nil {
		return nil, fmt.Errorf("%w: %s has no %s", ErrNotDocx, path, documentPart)
	}

	root, err := parseTree(d.body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", documentPart, err)
	}
	d.paras = collectParagraphs(d.body, root)
	d.nextID = maxRevisionID(d.parts) + 1

	return d, nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// collectParagraphs returns every outermost w:p in document order. Table
// cell paragraphs are included; paragraphs nested inside another paragraph
// (text boxes) stay part of their host.
func collectParagraphs(data []byte, root *node) []*paragraph {
	var out []*paragraph
	var walk func(*node)
	walk = func(n *node) {
		for _, c := range n.children {
			if c.name == "w:p" {
				out = append(out, newParagraph(data, c))
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

var idPattern = regexp.MustCompile(`w:id="(-?\d+)"`)

func maxRevisionID(parts []*part) int {
	highest := 0
	for _, p := range parts {
		if !strings.HasPrefix(p.name, "word/") || !strings.HasSuffix(p.name, ".xml") {
			continue
		}
		for _, m := range idPattern.FindAllSubmatch(p.data, -1) {
			if n, err := strconv.Atoi(string(m[1])); err == nil && n > highest {
				highest = n
			}
		}
	}
	return highest
}

// Path returns the file the document was opened from.
func (d *Document) Path() string { return d.path }

// Close releases the in-memory package. The Document must not be used
// afterwards.
func (d *Document) Close() error {
	d.parts = nil
	d.body = nil
	d.paras = nil
	return nil
}

// SetTrackRevisions switches revision tracking for subsequent edits and
// for the saved package's settings.
func (d *Document) SetTrackRevisions(on bool) { d.track = on }

// TrackRevisions reports whether edits are recorded as revisions.
func (d *Document) TrackRevisions() bool { return d.track }

// Paragraphs returns the final-view text of every paragraph in order.
func (d *Document) Paragraphs() []string {
	out := make([]string, len(d.paras))
	for i, p := range d.paras {
		out[i] = p.Text()
	}
	return out
}

func (d *Document) paragraph(i int) (*paragraph, error) {
	if i < 0 || i >= len(d.paras) {
		return nil, fmt.Errorf("%w: paragraph %d of %d", ErrOutOfRange, i, len(d.paras))
	}
	return d.paras[i], nil
}

// InsertAfter appends text to the end of paragraph i.
func (d *Document) InsertAfter(i int, text string) error {
	p, err := d.paragraph(i)
	if err != nil {
		return err
	}
	p.insertAt(len(p.segs), text, p.lastVisibleRun(), d.wrapperFor(revIns))
	return nil
}

// Delete removes runes [start, end) of paragraph i.
func (d *Document) Delete(i, start, end int) error {
	p, err := d.paragraph(i)
	if err != nil {
		return err
	}
	_, _, err = p.deleteSpan(start, end, d.track, d.newWrapper)
	return err
}

// Replace overwrites runes [start, end) of paragraph i with text. The
// replacement takes the formatting of the first replaced run.
func (d *Document) Replace(i, start, end int, text string) error {
	p, err := d.paragraph(i)
	if err != nil {
		return err
	}
	at, like, err := p.deleteSpan(start, end, d.track, d.newWrapper)
	if err != nil {
		return err
	}
	p.insertAt(at, text, like, d.wrapperFor(revIns))
	return nil
}

func (d *Document) wrapperFor(kind revKind) *wrapper {
	if !d.track {
		return nil
	}
	return d.newWrapper(kind)
}

func (d *Document) newWrapper(kind revKind) *wrapper {
	name := "w:ins"
	if kind == revDel {
		name = "w:del"
	}
	author := d.Author
	if author == "" {
		author = DefaultAuthor
	}
	open := fmt.Sprintf(`<%s w:id="%d" w:author="%s" w:date="%s">`,
		name, d.nextID, escape(author), d.Now().UTC().Format("2006-01-02T15:04:05Z"))
	d.nextID++
	return &wrapper{kind: kind, open: open, close: "</" + name + ">", author: author, own: true}
}

// SaveAs writes the package, with every edit applied, to path. With
// tracking on, a package without a settings part gets one.
func (d *Document) SaveAs(path string) error {
	if d.body == nil {
		return fmt.Errorf("saving %s: document is closed", path)
	}

	addSettings := d.track && d.part(settingsPart) == nil

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range d.parts {
		data := p.data
		switch p.name {
		case documentPart:
			data = d.renderBody()
		case settingsPart:
			if d.track {
				data = enableTracking(data)
			}
		case contentTypesPart:
			if addSettings {
				data = appendChild(data, "Types",
					`<Override PartName="/`+settingsPart+`" ContentType="`+settingsContentType+`"/>`)
			}
		case documentRelsPart:
			if addSettings {
				data = appendChild(data, "Relationships", settingsRelationship)
			}
		}
		if err := writePart(zw, p.name, p.method, p.modified, data); err != nil {
			return err
		}
	}

	if addSettings {
		if err := writePart(zw, settingsPart, zip.Deflate, d.Now(), []byte(newSettingsXML)); err != nil {
			return err
		}
		if d.part(documentRelsPart) == nil {
			if err := writePart(zw, documentRelsPart, zip.Deflate, d.Now(), []byte(newRelsXML)); err != nil {
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", path, err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func (d *Document) part(name string) *part {
	for _, p := range d.parts {
		if p.name == name {
			return p
		}
	}
	return nil
}

func writePart(zw *zip.Writer, name string, method uint16, modified time.Time, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: method, Modified: modified})
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (d *Document) renderBody() []byte {
	var b bytes.Buffer
	prev := 0
	for _, p := range d.paras {
		if !p.dirty {
			continue
		}
		b.Write(d.body[prev:p.start])
		b.WriteString(p.render())
		prev = p.end
	}
	b.Write(d.body[prev:])
	return b.Bytes()
}

const (
	settingsRelationship = `<Relationship Id="rIdTrackRevisionsSettings" Type="` + settingsRelType + `" Target="settings.xml"/>`

	newSettingsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:trackRevisions/></w:settings>`

	newRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + settingsRelationship + `</Relationships>`
)

// enableTracking adds w:trackRevisions to a settings part that lacks it.
func enableTracking(settings []byte) []byte {
	if bytes.Contains(settings, []byte("<w:trackRevisions")) {
		return settings
	}
	return prependChild(settings, "w:settings", "<w:trackRevisions/>")
}

// prependChild inserts child as the first child of the first root element,
// expanding it if it is self-closing. data is returned unchanged when root
// is absent.
func prependChild(data []byte, root, child string) []byte {
	i, end, selfClosing := findStartTag(data, root)
	if i < 0 {
		return data
	}
	if selfClosing {
		return splice(data, end-1, end+1, ">"+child+"</"+root+">")
	}
	return splice(data, end+1, end+1, child)
}

// appendChild inserts child as the last child of root.
func appendChild(data []byte, root, child string) []byte {
	i, end, selfClosing := findStartTag(data, root)
	if i < 0 {
		return data
	}
	if selfClosing {
		return splice(data, end-1, end+1, ">"+child+"</"+root+">")
	}
	closing := bytes.LastIndex(data, []byte("</"+root+">"))
	if closing < 0 {
		return data
	}
	return splice(data, closing, closing, child)
}

// findStartTag locates the start tag of root. It returns the offset of '<',
// the offset of the closing '>' and whether the tag is self-closing.
func findStartTag(data []byte, root string) (int, int, bool) {
	open := []byte("<" + root)
	for from := 0; ; {
		i := bytes.Index(data[from:], open)
		if i < 0 {
			return -1, -1, false
		}
		i += from
		after := i + len(open)
		if after < len(data) && (data[after] == '>' || data[after] == '/' || isSpace(data[after])) {
			j := bytes.IndexByte(data[i:], '>')
			if j < 0 {
				return -1, -1, false
			}
			end := i + j
			return i, end, data[end-1] == '/'
		}
		from = after
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func splice(data []byte, from, to int, insert string) []byte {
	out := make([]byte, 0, len(data)-(to-from)+len(insert))
	out = append(out, data[:from]...)
	out = append(out, insert...)
	out = append(out, data[to:]...)
	return out
}
