package books

import "time"

// Media types the flattener treats as text documents.
const (
	MediaTypeXHTML = "application/xhtml+xml"
	MediaTypeHTML  = "text/html"
)

type Book struct {
	Title     string
	Author    string
	Spine     []SpineEntry
	Resources []Resource
}

// SpineEntry is one itemref of the spine. Linear is carried but not honored.
type SpineEntry struct {
	ID     string
	Linear bool
}

type Resource struct {
	ID        string
	Href      string
	MediaType string
	Content   []byte
}

func (r *Resource) IsDocument() bool {
	return r.MediaType == MediaTypeXHTML || r.MediaType == MediaTypeHTML
}

// Documents maps resource ids to the text documents of the book. Images,
// stylesheets and other non-document resources are left out.
func (b *Book) Documents() map[string]*Resource {
	docs := make(map[string]*Resource)
	for i := range b.Resources {
		res := &b.Resources[i]
		if res.IsDocument() {
			docs[res.ID] = res
		}
	}
	return docs
}

func NewLocationsDocument(charsPerLocation int) *LocationsDocument {
	return &LocationsDocument{
		CharsPerLocation: charsPerLocation,
		TotalChars:       0,
		TotalLocations:   0,
		Locations:        []Location{},
	}
}

type LocationsDocument struct {
	CharsPerLocation int        `json:"charsPerLocation"`
	TotalChars       int        `json:"totalChars"`
	TotalLocations   int        `json:"totalLocations"`
	Locations        []Location `json:"locations"`
}

type Location struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type Library struct {
	Books []Record `json:"books"`
}

// Record is the library entry of a converted book.
type Record struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	LocationsPath    string    `json:"-"`
	CharsPerLocation int       `json:"charsPerLocation"`
	TotalLocations   int       `json:"totalLocations"`
	CreatedAt        time.Time `json:"createdAt"`
}

type ReadingState struct {
	Location  int       `json:"location"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Highlight struct {
	ID        string    `json:"id"`
	Location  int       `json:"location"`
	Text      string    `json:"text"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is cached summary text for some part of a book, such as a chapter
// or a range of locations. Key is chosen by the client.
type Summary struct {
	Key       string    `json:"key"`
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updatedAt"`
}
