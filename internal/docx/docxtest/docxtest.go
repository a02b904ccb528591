// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docxtest builds minimal word-processing packages for tests.
package docxtest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const documentTmpl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s<w:sectPr/></w:body></w:document>`

const settingsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:zoom w:percent="100"/></w:settings>`

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`

// Write stores a package named name in a fresh temp dir. Its body is the
// concatenated paragraph markup. It returns the file path.
func Write(t testing.TB, name string, body ...string) string {
	t.Helper()
	return WriteParts(t, name,
		Part{"[Content_Types].xml", contentTypesXML},
		Part{"word/document.xml", Document(body...)},
		Part{"word/settings.xml", settingsXML},
	)
}

// Part is one named member of a package.
type Part struct {
	Name string
	Data string
}

// WriteParts stores a package holding exactly parts, in order.
func WriteParts(t testing.TB, name string, parts ...Part) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, p := range parts {
		w, err := zw.Create(p.Name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(w, p.Data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// Document returns a main document part whose body is the concatenated
// paragraph markup.
func Document(body ...string) string {
	return fmt.Sprintf(documentTmpl, strings.Join(body, ""))
}

// ContentTypes returns a content types part with no overrides.
func ContentTypes() string { return contentTypesXML }

// Para returns a paragraph holding one plain run.
func Para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

// Ins returns an insertion revision holding one run.
func Ins(id int, author, text string) string {
	return fmt.Sprintf(`<w:ins w:id="%d" w:author="%s" w:date="2026-01-01T00:00:00Z"><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:ins>`, id, author, text)
}

// Del returns a deletion revision holding one run.
func Del(id int, author, text string) string {
	return fmt.Sprintf(`<w:del w:id="%d" w:author="%s" w:date="2026-01-01T00:00:00Z"><w:r><w:delText xml:space="preserve">%s</w:delText></w:r></w:del>`, id, author, text)
}

// Run returns a plain run.
func Run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// P wraps content in a paragraph.
func P(content ...string) string {
	return "<w:p>" + strings.Join(content, "") + "</w:p>"
}

// ReadPart returns the named part of the package at path.
func ReadPart(t testing.TB, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return string(data)
	}
	t.Fatalf("part %s not found in %s", name, path)
	return ""
}
