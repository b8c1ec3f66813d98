// Package locations slices flattened book text into fixed-size reading
// locations and resolves positions against them.
//
// Sizes and offsets count Unicode code points, not bytes, so a location never
// splits a multi-byte character.
package locations

import (
	"fmt"

	"epub-locations/books"
)

// Chunk partitions fullText into consecutive windows of charsPerLocation
// characters. The last window holds the remainder. An empty text yields no
// locations.
func Chunk(fullText string, charsPerLocation int) (*books.LocationsDocument, error) {
	if charsPerLocation < 1 {
		return nil, fmt.Errorf("%w: got %d", books.ErrInvalidArgument, charsPerLocation)
	}

	runes := []rune(fullText)
	n := len(runes)

	doc := books.NewLocationsDocument(charsPerLocation)
	doc.TotalChars = n
	doc.Locations = make([]books.Location, 0, (n+charsPerLocation-1)/charsPerLocation)

	for start := 0; start < n; start += charsPerLocation {
		end := min(start+charsPerLocation, n)
		doc.Locations = append(doc.Locations, books.Location{
			Index: len(doc.Locations),
			Text:  string(runes[start:end]),
		})
	}
	doc.TotalLocations = len(doc.Locations)

	return doc, nil
}
