package text

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"epub-locations/books"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// ParagraphSeparator joins paragraphs inside a document and documents inside
// a book.
const ParagraphSeparator = "\n\n"

var xmlEncoding = regexp.MustCompile(`^(?:\x{FEFF})?\s*<\?xml[^>]*encoding\s*=\s*["']([^"']+)["']`)

// ExtractDocument returns the paragraph text of one XHTML document. Every <p>
// element contributes its trimmed text nodes joined by a single space; empty
// paragraphs are dropped and the rest are joined with ParagraphSeparator.
func ExtractDocument(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(decodeReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: %w", books.ErrMarkupParse, err)
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := paragraphText(s); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.TrimSpace(strings.Join(paragraphs, ParagraphSeparator)), nil
}

func paragraphText(s *goquery.Selection) string {
	var parts []string
	for _, n := range s.Nodes {
		collectText(n, &parts)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if text := strings.TrimSpace(c.Data); text != "" {
				*parts = append(*parts, text)
			}
		case html.ElementNode:
			if c.DataAtom == atom.Script || c.DataAtom == atom.Style {
				continue
			}
			collectText(c, parts)
		}
	}
}

// decodeReader honors the encoding named by an XML declaration. Documents
// without one are read as UTF-8.
func decodeReader(content []byte) io.Reader {
	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}

	m := xmlEncoding.FindSubmatch(head)
	if m == nil {
		return bytes.NewReader(content)
	}

	label := strings.ToLower(strings.TrimSpace(string(m[1])))
	if label == "utf-8" || label == "utf8" {
		return bytes.NewReader(content)
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(content))
	if err != nil {
		return bytes.NewReader(content)
	}
	return r
}
