package storage

import (
	"os"
	"path/filepath"
	"testing"

	"epub-locations/books"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *books.LocationsDocument {
	return &books.LocationsDocument{
		CharsPerLocation: 5,
		TotalChars:       10,
		TotalLocations:   2,
		Locations: []books.Location{
			{Index: 0, Text: "Ça <b"},
			{Index: 1, Text: "> & é"},
		},
	}
}

func TestEncodeLocationsFormat(t *testing.T) {
	data, err := EncodeLocations(sampleDocument())
	require.NoError(t, err)

	expected := `{
  "charsPerLocation": 5,
  "totalChars": 10,
  "totalLocations": 2,
  "locations": [
    {
      "index": 0,
      "text": "Ça <b"
    },
    {
      "index": 1,
      "text": "> & é"
    }
  ]
}`
	assert.Equal(t, expected, string(data))
}

func TestEncodeLocationsEmpty(t *testing.T) {
	data, err := EncodeLocations(books.NewLocationsDocument(1600))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"locations": []`)
}

func TestWriteLocations(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "deeper", "locations.json")

		require.NoError(t, WriteLocations(path, sampleDocument(), atomic))

		doc, err := ReadLocations(path)
		require.NoError(t, err)
		assert.Equal(t, sampleDocument(), doc)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "no temporary files left behind")
	}
}

func TestWriteLocationsOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the new document by quite a bit"), 0644))

	require.NoError(t, WriteLocations(path, books.NewLocationsDocument(3), false))

	doc, err := ReadLocations(path)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.CharsPerLocation)
	assert.Empty(t, doc.Locations)
}

func TestWriteLocationsWorkingDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	require.NoError(t, WriteLocations("out.json", sampleDocument(), false))
	assert.True(t, Exists("out.json"))
}

func TestWriteLocationsParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := WriteLocations(filepath.Join(blocker, "out.json"), sampleDocument(), false)
	assert.Error(t, err)
}

func TestReadLocationsMissing(t *testing.T) {
	_, err := ReadLocations(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
