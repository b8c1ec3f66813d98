package books

import "errors"

var (
	// ErrInvalidArgument is returned when the number of characters per
	// location is not positive.
	ErrInvalidArgument = errors.New("books: chars per location must be positive")

	// ErrContainerParse wraps failures to read the EPUB container.
	ErrContainerParse = errors.New("books: cannot read epub container")

	// ErrMarkupParse wraps failures to parse a document's markup.
	ErrMarkupParse = errors.New("books: cannot parse document markup")

	ErrBookNotFound       = errors.New("books: book not found")
	ErrDuplicateBook      = errors.New("books: book has already been uploaded")
	ErrLocationOutOfRange = errors.New("books: location out of range")
	ErrHighlightNotFound  = errors.New("books: highlight not found")
	ErrSummaryNotFound    = errors.New("books: summary not found")
)
