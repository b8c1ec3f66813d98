package storage

import (
	"path/filepath"
	"testing"
	"time"

	"epub-locations/books"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "repository.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryBooks(t *testing.T) {
	repo := newTestRepository(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)

	alice := books.Record{
		ID:               "b1",
		Title:            "Alice",
		Author:           "Lewis Carroll",
		LocationsPath:    "books/b1/locations.json",
		CharsPerLocation: 1600,
		TotalLocations:   97,
		CreatedAt:        created,
	}
	require.NoError(t, repo.AddBook(alice))
	require.NoError(t, repo.AddBook(books.Record{ID: "b2", Title: "Emma", CreatedAt: created.Add(time.Hour)}))

	has, err := repo.HasBook("Alice")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasBook("Persuasion")
	require.NoError(t, err)
	assert.False(t, has)

	got, err := repo.GetBook("b1")
	require.NoError(t, err)
	assert.Equal(t, alice, *got)

	library, err := repo.GetAllBooks()
	require.NoError(t, err)
	require.Len(t, library.Books, 2)
	assert.Equal(t, "b1", library.Books[0].ID)
	assert.Equal(t, "b2", library.Books[1].ID)

	require.NoError(t, repo.DeleteBook("b1"))
	_, err = repo.GetBook("b1")
	assert.ErrorIs(t, err, books.ErrBookNotFound)
	assert.ErrorIs(t, repo.DeleteBook("b1"), books.ErrBookNotFound)
}

func TestRepositoryEmpty(t *testing.T) {
	repo := newTestRepository(t)

	library, err := repo.GetAllBooks()
	require.NoError(t, err)
	assert.NotNil(t, library.Books)
	assert.Empty(t, library.Books)
}

func TestRepositoryDuplicateID(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.AddBook(books.Record{ID: "b1", Title: "A", CreatedAt: time.Now()}))
	assert.Error(t, repo.AddBook(books.Record{ID: "b1", Title: "B", CreatedAt: time.Now()}))
}

func TestRepositoryDuplicateTitle(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.AddBook(books.Record{ID: "b1", Title: "Emma", CreatedAt: time.Now()}))
	err := repo.AddBook(books.Record{ID: "b2", Title: "Emma", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, books.ErrDuplicateBook)

	library, err := repo.GetAllBooks()
	require.NoError(t, err)
	assert.Len(t, library.Books, 1)
}
