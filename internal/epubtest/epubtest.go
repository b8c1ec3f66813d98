// Package epubtest builds small EPUB archives for tests.
package epubtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type Item struct {
	ID        string
	Href      string
	MediaType string // defaults to application/xhtml+xml
	Content   string
	Missing   bool // listed in the manifest but not stored in the archive
}

type Fixture struct {
	Title  string
	Author string
	Items  []Item
	Spine  []string // defaults to every item id in order
}

// XHTML wraps body in a minimal XHTML document.
func XHTML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter</title></head>
<body>` + body + `</body>
</html>`
}

// Bytes returns the archive for f.
func Bytes(t testing.TB, f Fixture) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	mime, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("epubtest: create mimetype: %v", err)
	}
	mime.Write([]byte("application/epub+zip"))

	writeFile(t, w, "META-INF/container.xml", `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	writeFile(t, w, "OEBPS/content.opf", opf(f))

	for _, item := range f.Items {
		if item.Missing {
			continue
		}
		writeFile(t, w, "OEBPS/"+item.Href, item.Content)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("epubtest: close writer: %v", err)
	}
	return buf.Bytes()
}

// Write stores the archive for f in a temporary directory and returns its path.
func Write(t testing.TB, f Fixture) string {
	t.Helper()

	fp := filepath.Join(t.TempDir(), "book.epub")
	if err := os.WriteFile(fp, Bytes(t, f), 0644); err != nil {
		t.Fatalf("epubtest: write file: %v", err)
	}
	return fp
}

func opf(f Fixture) string {
	var manifest, spine strings.Builder
	for _, item := range f.Items {
		mediaType := item.MediaType
		if mediaType == "" {
			mediaType = "application/xhtml+xml"
		}
		fmt.Fprintf(&manifest, "    <item id=%q href=%q media-type=%q/>\n", item.ID, item.Href, mediaType)
	}

	ids := f.Spine
	if ids == nil {
		for _, item := range f.Items {
			ids = append(ids, item.ID)
		}
	}
	for _, id := range ids {
		fmt.Fprintf(&spine, "    <itemref idref=%q/>\n", id)
	}

	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>` + f.Title + `</dc:title>
    <dc:creator>` + f.Author + `</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">test-book</dc:identifier>
  </metadata>
  <manifest>
` + manifest.String() + `  </manifest>
  <spine>
` + spine.String() + `  </spine>
</package>`
}

func writeFile(t testing.TB, w *zip.Writer, name, content string) {
	t.Helper()

	fw, err := w.Create(name)
	if err != nil {
		t.Fatalf("epubtest: create %s: %v", name, err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("epubtest: write %s: %v", name, err)
	}
}
