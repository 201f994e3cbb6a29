// Package jsonstore keeps the library in two flat JSON files:
//
//	books.json   array of books
//	genres.json  array of genre names
//
// Files live on an afero.Fs so tests can run against memory. A missing or
// unreadable file is treated as empty. Every write replaces the file
// atomically. Genre ids are the 1-based positions in genres.json.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/genres"
)

const (
	BooksFile  = "books.json"
	GenresFile = "genres.json"
)

type Store struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// New opens a store rooted at dir, creating the directory and a default
// genres.json when needed.
func New(fs afero.Fs, dir string) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &Store{fs: fs, dir: dir, now: time.Now}

	exists, err := afero.Exists(fs, s.path(GenresFile))
	if err != nil {
		return nil, err
	}
	if !exists {
		names := make([]string, 0)
		for _, g := range entities.DefaultGenres() {
			names = append(names, g.Name)
		}
		if err := s.writeGenres(names); err != nil {
			return nil, fmt.Errorf("failed to seed genres: %w", err)
		}
	}
	return s, nil
}

// NewOnDisk opens a store on the real filesystem.
func NewOnDisk(dir string) (*Store, error) {
	return New(afero.NewOsFs(), dir)
}

func (s *Store) Name() string {
	return "json"
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.fs.Stat(s.dir)
	return err
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// fileBook accepts the legacy shapes found in older books.json files:
// numeric ids and genres stored as strings, ids or {id,name} objects.
type fileBook struct {
	entities.Book
	RawID  json.RawMessage `json:"id"`
	Genre  genres.Refs     `json:"genre"`
	Genres genres.Refs     `json:"genres"`
}

func (f *fileBook) toBook() entities.Book {
	b := f.Book
	b.ID = gjson.ParseBytes(f.RawID).String()
	b.SetGenreNames(genres.Names(genres.Merge(f.Genres, f.Genre)))
	if status, err := entities.ParseReadingStatus(string(b.Status)); err == nil {
		b.Status = status
	} else {
		b.Status = entities.StatusWantToRead
	}
	return b
}

func (s *Store) readBooks() []entities.Book {
	data, err := afero.ReadFile(s.fs, s.path(BooksFile))
	if err != nil {
		return []entities.Book{}
	}

	var raw []fileBook
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("[JSONSTORE] ignoring unreadable %s: %v", BooksFile, err)
		return []entities.Book{}
	}

	books := make([]entities.Book, 0, len(raw))
	for i := range raw {
		books = append(books, raw[i].toBook())
	}
	return books
}

func (s *Store) readGenres() []string {
	data, err := afero.ReadFile(s.fs, s.path(GenresFile))
	if err != nil {
		return []string{}
	}
	refs, err := genres.Normalize(data)
	if err != nil {
		log.Printf("[JSONSTORE] ignoring unreadable %s: %v", GenresFile, err)
		return []string{}
	}
	return genres.Names(refs)
}

func (s *Store) writeBooks(books []entities.Book) error {
	return writeJSON(s.fs, s.dir, BooksFile, books)
}

func (s *Store) writeGenres(names []string) error {
	return writeJSON(s.fs, s.dir, GenresFile, names)
}

// writeJSON writes v pretty-printed to dir/name via a temp file and rename.
func writeJSON(fs afero.Fs, dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := afero.TempFile(fs, dir, strings.TrimSuffix(name, ".json")+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		fs.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := fs.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		fs.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// WriteSnapshot writes books and genres to dir in the same layout the store
// reads, so a snapshot directory can be opened as a json store.
func WriteSnapshot(fs afero.Fs, dir string, books []entities.Book, catalogue []entities.Genre) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	names := make([]string, 0, len(catalogue))
	for _, g := range catalogue {
		names = append(names, g.Name)
	}
	if books == nil {
		books = []entities.Book{}
	}

	if err := writeJSON(fs, dir, BooksFile, books); err != nil {
		return err
	}
	return writeJSON(fs, dir, GenresFile, names)
}
