package text

import (
	"testing"

	"epub-locations/books"
	"epub-locations/internal/epubtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func document(id, body string) books.Resource {
	return books.Resource{
		ID:        id,
		Href:      id + ".xhtml",
		MediaType: books.MediaTypeXHTML,
		Content:   []byte(epubtest.XHTML(body)),
	}
}

func spine(ids ...string) []books.SpineEntry {
	entries := make([]books.SpineEntry, len(ids))
	for i, id := range ids {
		entries[i] = books.SpineEntry{ID: id, Linear: true}
	}
	return entries
}

func TestFlattenBookPreservesSpineOrder(t *testing.T) {
	book := &books.Book{
		Spine: spine("c", "a", "b"),
		Resources: []books.Resource{
			document("a", "<p>Text A</p>"),
			document("b", "<p>Text B</p>"),
			document("c", "<p>Text C</p>"),
		},
	}

	got, err := FlattenBook(book)
	require.NoError(t, err)
	assert.Equal(t, "Text C\n\nText A\n\nText B", got)
}

func TestFlattenBookSkipsMissingSpineIDs(t *testing.T) {
	book := &books.Book{
		Spine: spine("ch1", "ch2", "ch3", "ch4"),
		Resources: []books.Resource{
			document("ch1", "<p>One</p>"),
			document("ch2", "<p>Two</p>"),
			document("ch4", "<p>Four</p>"),
		},
	}

	got, err := FlattenBook(book)
	require.NoError(t, err)
	assert.Equal(t, "One\n\nTwo\n\nFour", got)
}

func TestFlattenBookSkipsEmptyDocuments(t *testing.T) {
	book := &books.Book{
		Spine: spine("cover", "ch1", "blank", "ch2"),
		Resources: []books.Resource{
			document("cover", `<div><img src="cover.jpg"/></div>`),
			document("ch1", "<p>First</p>"),
			document("blank", "<p> </p><p></p>"),
			document("ch2", "<p>Second</p>"),
		},
	}

	got, err := FlattenBook(book)
	require.NoError(t, err)
	assert.Equal(t, "First\n\nSecond", got)
}

func TestFlattenBookIgnoresNonDocumentResources(t *testing.T) {
	book := &books.Book{
		Spine: spine("img", "ch1"),
		Resources: []books.Resource{
			{ID: "img", Href: "cover.jpg", MediaType: "image/jpeg", Content: []byte("<p>not text</p>")},
			document("ch1", "<p>Only chapter</p>"),
		},
	}

	got, err := FlattenBook(book)
	require.NoError(t, err)
	assert.Equal(t, "Only chapter", got)
}

func TestFlattenBookIgnoresLinearFlag(t *testing.T) {
	book := &books.Book{
		Spine: []books.SpineEntry{{ID: "notes", Linear: false}, {ID: "ch1", Linear: true}},
		Resources: []books.Resource{
			document("ch1", "<p>Chapter</p>"),
			document("notes", "<p>Notes</p>"),
		},
	}

	got, err := FlattenBook(book)
	require.NoError(t, err)
	assert.Equal(t, "Notes\n\nChapter", got)
}

func TestFlattenBookEmpty(t *testing.T) {
	got, err := FlattenBook(&books.Book{})
	require.NoError(t, err)
	assert.Empty(t, got)
}
