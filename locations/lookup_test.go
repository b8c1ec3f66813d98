package locations

import (
	"testing"

	"epub-locations/books"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	doc, err := Chunk("Hello world", 5)
	require.NoError(t, err)

	loc, err := At(doc, 1)
	require.NoError(t, err)
	assert.Equal(t, " worl", loc.Text)

	testCases := []struct {
		offset int
		index  int
	}{
		{0, 0}, {4, 0}, {5, 1}, {9, 1}, {10, 2},
	}
	for _, tc := range testCases {
		loc, err := AtOffset(doc, tc.offset)
		require.NoError(t, err)
		assert.Equal(t, tc.index, loc.Index, "offset %d", tc.offset)
	}

	start, err := Offset(doc, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, start)
}

func TestLookupOutOfRange(t *testing.T) {
	doc, err := Chunk("Hello world", 5)
	require.NoError(t, err)

	_, err = At(doc, 3)
	assert.ErrorIs(t, err, books.ErrLocationOutOfRange)
	_, err = At(doc, -1)
	assert.ErrorIs(t, err, books.ErrLocationOutOfRange)
	_, err = AtOffset(doc, 11)
	assert.ErrorIs(t, err, books.ErrLocationOutOfRange)
	_, err = Offset(doc, 7)
	assert.ErrorIs(t, err, books.ErrLocationOutOfRange)

	empty, err := Chunk("", 5)
	require.NoError(t, err)
	_, err = AtOffset(empty, 0)
	assert.ErrorIs(t, err, books.ErrLocationOutOfRange)
}
