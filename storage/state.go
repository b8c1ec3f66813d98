package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"epub-locations/books"

	bolt "go.etcd.io/bbolt"
)

var (
	readingStateBucket = []byte("reading_state")
	highlightsBucket   = []byte("highlights")
	summariesBucket    = []byte("summaries")
)

// StateStore keeps per-book reader state: the current location, the reader's
// highlights and cached summaries. Highlights and summaries live in one nested
// bucket per book.
type StateStore struct {
	db *bolt.DB
}

func NewStateStore(path string) (*StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for state store: %w", err)
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{readingStateBucket, highlightsBucket, summariesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &StateStore{db: db}, nil
}

func (s *StateStore) Close() error {
	return s.db.Close()
}

func (s *StateStore) SaveReadingState(bookID string, state books.ReadingState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(readingStateBucket).Put([]byte(bookID), data)
	})
}

// GetReadingState returns nil when nothing was saved for the book.
func (s *StateStore) GetReadingState(bookID string) (*books.ReadingState, error) {
	var state *books.ReadingState
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(readingStateBucket).Get([]byte(bookID))
		if v == nil {
			return nil
		}
		state = &books.ReadingState{}
		return json.Unmarshal(v, state)
	})
	return state, err
}

func (s *StateStore) SaveHighlight(bookID string, highlight books.Highlight) error {
	data, err := json.Marshal(highlight)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(highlightsBucket).CreateBucketIfNotExists([]byte(bookID))
		if err != nil {
			return err
		}
		return b.Put([]byte(highlight.ID), data)
	})
}

// GetHighlights returns the book's highlights, oldest first.
func (s *StateStore) GetHighlights(bookID string) ([]books.Highlight, error) {
	highlights := []books.Highlight{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(highlightsBucket).Bucket([]byte(bookID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var h books.Highlight
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			highlights = append(highlights, h)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(highlights, func(i, j int) bool {
		return highlights[i].CreatedAt.Before(highlights[j].CreatedAt)
	})
	return highlights, nil
}

func (s *StateStore) DeleteHighlight(bookID, highlightID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(highlightsBucket).Bucket([]byte(bookID))
		if b == nil || b.Get([]byte(highlightID)) == nil {
			return fmt.Errorf("%w: %s", books.ErrHighlightNotFound, highlightID)
		}
		return b.Delete([]byte(highlightID))
	})
}

// SaveSummary stores summary under key for the book, replacing any earlier
// one.
func (s *StateStore) SaveSummary(bookID string, summary books.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(summariesBucket).CreateBucketIfNotExists([]byte(bookID))
		if err != nil {
			return err
		}
		return b.Put([]byte(summary.Key), data)
	})
}

func (s *StateStore) GetSummary(bookID, key string) (*books.Summary, error) {
	var summary *books.Summary
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(summariesBucket).Bucket([]byte(bookID))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v == nil {
			return nil
		}
		summary = &books.Summary{}
		return json.Unmarshal(v, summary)
	})
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("%w: %s", books.ErrSummaryNotFound, key)
	}
	return summary, nil
}

// DeleteBook drops all state kept for the book.
func (s *StateStore) DeleteBook(bookID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(readingStateBucket).Delete([]byte(bookID)); err != nil {
			return err
		}
		for _, name := range [][]byte{highlightsBucket, summariesBucket} {
			err := tx.Bucket(name).DeleteBucket([]byte(bookID))
			if err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
		}
		return nil
	})
}
