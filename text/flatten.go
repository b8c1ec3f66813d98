package text

import (
	"fmt"
	"strings"

	"epub-locations/books"
)

// FlattenBook concatenates the text of every spine document in reading order.
// Spine ids without a document resource and documents without paragraph text
// are skipped.
func FlattenBook(book *books.Book) (string, error) {
	docs := book.Documents()

	var chapters []string
	for _, entry := range book.Spine {
		res, ok := docs[entry.ID]
		if !ok {
			continue
		}

		chapterText, err := ExtractDocument(res.Content)
		if err != nil {
			return "", fmt.Errorf("error extracting %s: %w", entry.ID, err)
		}
		if chapterText != "" {
			chapters = append(chapters, chapterText)
		}
	}

	return strings.Join(chapters, ParagraphSeparator), nil
}
