package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"epub-locations/books"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var COL_ID = "id"
var COL_TITLE = "title"
var COL_AUTHOR = "author"
var COL_LOCATIONS_PATH = "locationsPath"
var COL_CHARS_PER_LOCATION = "charsPerLocation"
var COL_TOTAL_LOCATIONS = "totalLocations"
var COL_CREATED_AT = "createdAt"

/* Access Database */
type Repository struct {
	db *sql.DB
}

// NewRepository opens the sqlite library at path and creates the Books table
// if needed.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening repository: %w", err)
	}

	// One connection serializes writers instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	r := &Repository{db: db}
	if err := r.InitializeRepository(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) InitializeRepository() error {
	createTableSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS Books (
		"%s" TEXT PRIMARY KEY,
		"%s" TEXT NOT NULL,
		"%s" TEXT NOT NULL,
		"%s" TEXT NOT NULL,
		"%s" INTEGER NOT NULL,
		"%s" INTEGER NOT NULL,
		"%s" TEXT NOT NULL
	);`, COL_ID, COL_TITLE, COL_AUTHOR, COL_LOCATIONS_PATH, COL_CHARS_PER_LOCATION, COL_TOTAL_LOCATIONS, COL_CREATED_AT)

	if _, err := r.db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("error creating books table: %w", err)
	}

	createIndexSQL := fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS books_title ON Books ("%s");`, COL_TITLE)
	if _, err := r.db.Exec(createIndexSQL); err != nil {
		return fmt.Errorf("error creating title index: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) AddBook(book books.Record) error {
	insertSQL := fmt.Sprintf(`INSERT INTO Books ("%s", "%s", "%s", "%s", "%s", "%s", "%s") VALUES (?, ?, ?, ?, ?, ?, ?)`,
		COL_ID, COL_TITLE, COL_AUTHOR, COL_LOCATIONS_PATH, COL_CHARS_PER_LOCATION, COL_TOTAL_LOCATIONS, COL_CREATED_AT)

	_, err := r.db.Exec(insertSQL, book.ID, book.Title, book.Author, book.LocationsPath,
		book.CharsPerLocation, book.TotalLocations, book.CreatedAt.UTC().Format(time.RFC3339Nano))
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %s", books.ErrDuplicateBook, book.Title)
	}
	if err != nil {
		return fmt.Errorf("error inserting book: %w", err)
	}
	return nil
}

func (r *Repository) HasBook(title string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM Books WHERE "%s" = ?`, COL_TITLE)

	var count int
	if err := r.db.QueryRow(query, title).Scan(&count); err != nil {
		return false, fmt.Errorf("error querying db: %w", err)
	}
	return count > 0, nil
}

func (r *Repository) GetAllBooks() (*books.Library, error) {
	query := fmt.Sprintf(`SELECT %s FROM Books ORDER BY "%s"`, selectColumns(), COL_CREATED_AT)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying db: %w", err)
	}
	defer rows.Close()

	booklist := []books.Record{}
	for rows.Next() {
		book, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		booklist = append(booklist, *book)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &books.Library{Books: booklist}, nil
}

func (r *Repository) GetBook(id string) (*books.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM Books WHERE "%s" = ?`, selectColumns(), COL_ID)

	book, err := scanRecord(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", books.ErrBookNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return book, nil
}

func (r *Repository) DeleteBook(id string) error {
	query := fmt.Sprintf(`DELETE FROM Books WHERE "%s" = ?`, COL_ID)

	res, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", books.ErrBookNotFound, id)
	}
	return nil
}

func selectColumns() string {
	return fmt.Sprintf(`"%s", "%s", "%s", "%s", "%s", "%s", "%s"`,
		COL_ID, COL_TITLE, COL_AUTHOR, COL_LOCATIONS_PATH, COL_CHARS_PER_LOCATION, COL_TOTAL_LOCATIONS, COL_CREATED_AT)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*books.Record, error) {
	var book books.Record
	var createdAt string

	err := s.Scan(&book.ID, &book.Title, &book.Author, &book.LocationsPath,
		&book.CharsPerLocation, &book.TotalLocations, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning item: %w", err)
	}

	book.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", COL_CREATED_AT, err)
	}
	return &book, nil
}
