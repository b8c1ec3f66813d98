package uploader

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"epub-locations/api"
	"epub-locations/books"
	"epub-locations/pipeline"
	"epub-locations/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocationsFile is the name of the locations document inside a book's
// output directory.
const LocationsFile = "locations.json"

const maxUploadMemory = 10 << 20

type Uploader struct {
	converter         *pipeline.Converter
	repo              *storage.Repository
	downloadDirectory string
	outputDirectory   string
	logger            *zap.Logger
}

func NewUploader(converter *pipeline.Converter, repo *storage.Repository, downloadDir, outputDir string, logger *zap.Logger) *Uploader {
	return &Uploader{
		converter:         converter,
		repo:              repo,
		downloadDirectory: downloadDir,
		outputDirectory:   outputDir,
		logger:            logger,
	}
}

func (u *Uploader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	record, err := u.UploadBook(r)
	if err != nil {
		api.WriteError(w, u.logger, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, record)
}

// UploadBook converts the EPUB posted in the "file" form field, stores its
// locations document and adds the book to the library.
func (u *Uploader) UploadBook(r *http.Request) (*books.Record, error) {
	filename, err := recvFileFromForm(r, ".epub", u.downloadDirectory)
	if err != nil {
		return nil, err
	}
	defer storage.DeleteFile(filename)

	book, doc, err := u.converter.Convert(filename, u.converter.CharsPerLocation())
	if err != nil {
		return nil, fmt.Errorf("ebook format is not supported: %w", err)
	}

	title := book.Title
	if title == "" {
		title = originalName(filename)
	}

	// Check for Duplicates
	has, err := u.repo.HasBook(title)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, fmt.Errorf("%w: %s", books.ErrDuplicateBook, title)
	}

	record := books.Record{
		ID:               uuid.NewString(),
		Title:            title,
		Author:           book.Author,
		CharsPerLocation: doc.CharsPerLocation,
		TotalLocations:   doc.TotalLocations,
		CreatedAt:        time.Now().UTC(),
	}
	record.LocationsPath = filepath.Join(u.outputDirectory, record.ID, LocationsFile)

	if err := u.converter.Write(record.LocationsPath, doc); err != nil {
		return nil, err
	}

	if err := u.repo.AddBook(record); err != nil {
		os.RemoveAll(filepath.Dir(record.LocationsPath))
		return nil, err
	}

	u.logger.Info("book uploaded",
		zap.String("id", record.ID),
		zap.String("title", record.Title),
		zap.Int("locations", record.TotalLocations))

	return &record, nil
}

func recvFileFromForm(r *http.Request, extension string, destination string) (string, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return "", fmt.Errorf("%w: there was an issue loading the file: %w", api.ErrBadRequest, err)
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("%w: there was an issue loading the file: %w", api.ErrBadRequest, err)
	}
	defer file.Close()

	name := filepath.Base(handler.Filename)
	if !strings.EqualFold(filepath.Ext(name), extension) {
		return "", fmt.Errorf("%w: uploaded file was not an ebook: %s", api.ErrBadRequest, name)
	}

	if err := storage.CreateDirectoryIfNotExists(destination); err != nil {
		return "", fmt.Errorf("error creating download directory: %w", err)
	}

	dst, err := os.CreateTemp(destination, "*-"+name)
	if err != nil {
		return "", fmt.Errorf("error creating output file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("error saving file: %w", err)
	}

	return dst.Name(), nil
}

// originalName strips the temp prefix and extension from a downloaded file.
func originalName(filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "-"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
