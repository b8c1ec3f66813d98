package storage

import (
	"path/filepath"
	"testing"
	"time"

	"epub-locations/books"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateStore(t *testing.T) *StateStore {
	t.Helper()
	store, err := NewStateStore(filepath.Join(t.TempDir(), "state", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReadingState(t *testing.T) {
	store := newTestStateStore(t)

	state, err := store.GetReadingState("b1")
	require.NoError(t, err)
	assert.Nil(t, state)

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveReadingState("b1", books.ReadingState{Location: 12, UpdatedAt: now}))
	require.NoError(t, store.SaveReadingState("b1", books.ReadingState{Location: 14, UpdatedAt: now.Add(time.Minute)}))

	state, err = store.GetReadingState("b1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 14, state.Location)
	assert.True(t, state.UpdatedAt.Equal(now.Add(time.Minute)))
}

func TestHighlights(t *testing.T) {
	store := newTestStateStore(t)
	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	highlights, err := store.GetHighlights("b1")
	require.NoError(t, err)
	assert.Empty(t, highlights)

	require.NoError(t, store.SaveHighlight("b1", books.Highlight{ID: "zz", Location: 3, Text: "second", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.SaveHighlight("b1", books.Highlight{ID: "aa", Location: 1, Text: "first", CreatedAt: base}))
	require.NoError(t, store.SaveHighlight("b2", books.Highlight{ID: "cc", Location: 0, Text: "other book", CreatedAt: base}))

	highlights, err = store.GetHighlights("b1")
	require.NoError(t, err)
	require.Len(t, highlights, 2)
	assert.Equal(t, "first", highlights[0].Text)
	assert.Equal(t, "second", highlights[1].Text)

	require.NoError(t, store.DeleteHighlight("b1", "aa"))
	assert.ErrorIs(t, store.DeleteHighlight("b1", "aa"), books.ErrHighlightNotFound)
	assert.ErrorIs(t, store.DeleteHighlight("missing", "aa"), books.ErrHighlightNotFound)

	highlights, err = store.GetHighlights("b1")
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.Equal(t, "zz", highlights[0].ID)
}

func TestStateStoreDeleteBook(t *testing.T) {
	store := newTestStateStore(t)

	require.NoError(t, store.SaveReadingState("b1", books.ReadingState{Location: 2}))
	require.NoError(t, store.SaveHighlight("b1", books.Highlight{ID: "h1"}))
	require.NoError(t, store.SaveSummary("b1", books.Summary{Key: "chapter-1", Summary: "A rabbit."}))
	require.NoError(t, store.DeleteBook("b1"))
	require.NoError(t, store.DeleteBook("never-seen"))

	state, err := store.GetReadingState("b1")
	require.NoError(t, err)
	assert.Nil(t, state)

	highlights, err := store.GetHighlights("b1")
	require.NoError(t, err)
	assert.Empty(t, highlights)

	_, err = store.GetSummary("b1", "chapter-1")
	assert.ErrorIs(t, err, books.ErrSummaryNotFound)
}

func TestSummaries(t *testing.T) {
	store := newTestStateStore(t)

	_, err := store.GetSummary("b1", "chapter-1")
	assert.ErrorIs(t, err, books.ErrSummaryNotFound)

	require.NoError(t, store.SaveSummary("b1", books.Summary{Key: "chapter-1", Summary: "Alice follows a rabbit."}))
	require.NoError(t, store.SaveSummary("b1", books.Summary{Key: "chapter-1", Summary: "Alice falls down a hole."}))
	require.NoError(t, store.SaveSummary("b2", books.Summary{Key: "chapter-1", Summary: "Another book."}))

	summary, err := store.GetSummary("b1", "chapter-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice falls down a hole.", summary.Summary)

	_, err = store.GetSummary("b1", "chapter-2")
	assert.ErrorIs(t, err, books.ErrSummaryNotFound)
}
