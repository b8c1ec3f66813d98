package locations

import (
	"fmt"

	"epub-locations/books"
)

// At returns the location with the given index.
func At(doc *books.LocationsDocument, index int) (books.Location, error) {
	if index < 0 || index >= len(doc.Locations) {
		return books.Location{}, fmt.Errorf("%w: index %d of %d", books.ErrLocationOutOfRange, index, len(doc.Locations))
	}
	return doc.Locations[index], nil
}

// AtOffset returns the location containing the character at offset.
func AtOffset(doc *books.LocationsDocument, offset int) (books.Location, error) {
	if offset < 0 || offset >= doc.TotalChars {
		return books.Location{}, fmt.Errorf("%w: offset %d of %d", books.ErrLocationOutOfRange, offset, doc.TotalChars)
	}
	return At(doc, offset/doc.CharsPerLocation)
}

// Offset is the character offset at which the location with index starts.
func Offset(doc *books.LocationsDocument, index int) (int, error) {
	if _, err := At(doc, index); err != nil {
		return 0, err
	}
	return index * doc.CharsPerLocation, nil
}
