package text

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"epub-locations/books"

	"github.com/taylorskalyo/goreader/epub"
)

const containerPath = "META-INF/container.xml"

// OpenBook reads the EPUB at epubPath into a Book. Document content is loaded
// eagerly; documents listed in the manifest but absent from the archive are
// left out so the flattener skips them. Spine entries that name no manifest
// item are kept, and so is an empty spine.
func OpenBook(epubPath string) (*books.Book, error) {
	f, err := os.Open(epubPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", books.ErrContainerParse, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", books.ErrContainerParse, err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", books.ErrContainerParse, err)
	}
	files := archiveFiles(zr)
	if files[containerPath] == nil {
		return nil, fmt.Errorf("%w: missing %s", books.ErrContainerParse, containerPath)
	}

	r, err := epub.NewReader(f, info.Size())
	switch {
	case err == nil:
		return newBook(r.Rootfiles[0], files)
	case errors.Is(err, epub.ErrBadItemref), errors.Is(err, epub.ErrNoItemref):
		// goreader rejects these packages outright.
		rf, err := readRootfile(files)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", books.ErrContainerParse, err)
		}
		return newBook(rf, files)
	default:
		return nil, fmt.Errorf("%w: %w", books.ErrContainerParse, err)
	}
}

func archiveFiles(zr *zip.Reader) map[string]*zip.File {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return files
}

// readRootfile decodes the container and the first package document without
// resolving the spine against the manifest.
func readRootfile(files map[string]*zip.File) (*epub.Rootfile, error) {
	var container epub.Container
	if err := decodeXML(files[containerPath], &container); err != nil {
		return nil, err
	}
	if len(container.Rootfiles) == 0 {
		return nil, epub.ErrNoRootfile
	}

	rf := container.Rootfiles[0]
	if files[rf.FullPath] == nil {
		return nil, epub.ErrBadRootfile
	}
	if err := decodeXML(files[rf.FullPath], &rf.Package); err != nil {
		return nil, err
	}
	return rf, nil
}

func decodeXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("error decoding %s: %w", f.Name, err)
	}
	return nil
}

func newBook(rf *epub.Rootfile, files map[string]*zip.File) (*books.Book, error) {
	book := &books.Book{
		Title:  rf.Title,
		Author: rf.Creator,
	}

	// goreader does not decode the linear attribute.
	for _, ref := range rf.Spine.Itemrefs {
		book.Spine = append(book.Spine, books.SpineEntry{ID: ref.IDREF, Linear: true})
	}

	base := path.Dir(rf.FullPath)
	for _, item := range rf.Manifest.Items {
		res := books.Resource{
			ID:        item.ID,
			Href:      item.HREF,
			MediaType: item.MediaType,
		}
		if res.IsDocument() {
			content, err := readItem(files[path.Join(base, item.HREF)])
			if errors.Is(err, epub.ErrBadManifest) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", books.ErrContainerParse, item.HREF, err)
			}
			res.Content = content
		}
		book.Resources = append(book.Resources, res)
	}

	return book, nil
}

func readItem(f *zip.File) ([]byte, error) {
	if f == nil {
		return nil, epub.ErrBadManifest
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
