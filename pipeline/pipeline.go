// Package pipeline turns an EPUB file into a locations JSON file.
package pipeline

import (
	"fmt"

	"epub-locations/books"
	"epub-locations/locations"
	"epub-locations/storage"
	"epub-locations/text"

	"go.uber.org/zap"
)

const DefaultCharsPerLocation = 1600

type Converter struct {
	logger           *zap.Logger
	charsPerLocation int
	atomicWrite      bool
}

type Option func(*Converter)

// WithCharsPerLocation sets the size reported by CharsPerLocation.
func WithCharsPerLocation(chars int) Option {
	return func(c *Converter) {
		c.charsPerLocation = chars
	}
}

// WithAtomicWrite makes Run write through a temporary file and rename it over
// the destination.
func WithAtomicWrite(atomic bool) Option {
	return func(c *Converter) {
		c.atomicWrite = atomic
	}
}

func NewConverter(logger *zap.Logger, opts ...Option) *Converter {
	c := &Converter{
		logger:           logger,
		charsPerLocation: DefaultCharsPerLocation,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert reads the book at epubPath and slices its text into locations
// without writing anything.
func (c *Converter) Convert(epubPath string, charsPerLocation int) (*books.Book, *books.LocationsDocument, error) {
	if charsPerLocation < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", books.ErrInvalidArgument, charsPerLocation)
	}

	book, err := text.OpenBook(epubPath)
	if err != nil {
		return nil, nil, err
	}

	fullText, err := text.FlattenBook(book)
	if err != nil {
		return nil, nil, err
	}

	doc, err := locations.Chunk(fullText, charsPerLocation)
	if err != nil {
		return nil, nil, err
	}

	c.logger.Debug("flattened book",
		zap.String("epub", epubPath),
		zap.String("title", book.Title),
		zap.Int("spine_items", len(book.Spine)),
		zap.Int("total_chars", doc.TotalChars))

	return book, doc, nil
}

// Run converts the EPUB at epubPath and writes the locations document to
// jsonOutPath.
func (c *Converter) Run(epubPath, jsonOutPath string, charsPerLocation int) (*books.LocationsDocument, error) {
	_, doc, err := c.Convert(epubPath, charsPerLocation)
	if err != nil {
		return nil, err
	}

	if err := c.Write(jsonOutPath, doc); err != nil {
		return nil, err
	}

	c.logger.Info("wrote locations",
		zap.String("epub", epubPath),
		zap.String("output", jsonOutPath),
		zap.Int("chars_per_location", doc.CharsPerLocation),
		zap.Int("locations", doc.TotalLocations))

	return doc, nil
}

// CharsPerLocation is the configured location size, DefaultCharsPerLocation
// unless overridden.
func (c *Converter) CharsPerLocation() int {
	return c.charsPerLocation
}

// Write stores doc at path using the converter's write mode.
func (c *Converter) Write(path string, doc *books.LocationsDocument) error {
	return storage.WriteLocations(path, doc, c.atomicWrite)
}
