package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"epub-locations/books"
)

/* Local File Storage */
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func CreateDirectoryIfNotExists(path string) error {
	if Exists(path) {
		return nil
	}
	return os.MkdirAll(path, 0755)
}

func DeleteFile(filename string) {
	os.Remove(filename)
}

// EncodeLocations renders doc as indented JSON with non-ASCII characters and
// HTML-significant characters left unescaped. The output has no trailing
// newline.
func EncodeLocations(doc *books.LocationsDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteLocations writes doc to path, creating missing parent directories and
// replacing any existing file. With atomic set the JSON is written to a
// temporary file next to path and renamed into place.
func WriteLocations(path string, doc *books.LocationsDocument, atomic bool) error {
	jsonData, err := EncodeLocations(doc)
	if err != nil {
		return fmt.Errorf("error encoding locations: %w", err)
	}

	dir := filepath.Dir(path)
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	if !atomic {
		if err := os.WriteFile(path, jsonData, 0644); err != nil {
			return fmt.Errorf("error writing locations: %w", err)
		}
		return nil
	}

	if err := writeAtomic(dir, path, jsonData); err != nil {
		return fmt.Errorf("error writing locations: %w", err)
	}
	return nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".locations-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func ReadLocations(path string) (*books.LocationsDocument, error) {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading locations: %w", err)
	}

	var doc books.LocationsDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("error decoding locations %s: %w", path, err)
	}
	return &doc, nil
}
