// Package remote implements the bookshelf store on top of a remote REST API
// exposing /books and /genres.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/genres"
)

type Store struct {
	client *Client
}

func New(cfg Config) *Store {
	return &Store{client: NewClient(cfg)}
}

func (s *Store) Name() string {
	return "remote"
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.do(ctx, http.MethodGet, "/genres", nil)
	return err
}

func (s *Store) Close() error {
	s.client.httpClient.CloseIdleConnections()
	return nil
}

func bookPath(id string) string {
	return "/books/" + url.PathEscape(id)
}

func (s *Store) ListBooks(ctx context.Context) ([]entities.Book, error) {
	data, err := s.client.do(ctx, http.MethodGet, "/books", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	raw, err := unwrapList(data, "books", "data", "items")
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	var items []apiBook
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}

	catalogue, _ := s.ListGenres(ctx)
	books := make([]entities.Book, 0, len(items))
	for i := range items {
		books = append(books, items[i].toBook(catalogue))
	}
	return books, nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*entities.Book, error) {
	data, err := s.client.do(ctx, http.MethodGet, bookPath(id), nil)
	if err != nil {
		return nil, err
	}
	return s.decodeBook(ctx, data)
}

func (s *Store) decodeBook(ctx context.Context, data []byte) (*entities.Book, error) {
	var item apiBook
	if err := json.Unmarshal(unwrapObject(data, "book", "data"), &item); err != nil {
		return nil, fmt.Errorf("failed to decode book: %w", err)
	}
	catalogue, _ := s.ListGenres(ctx)
	book := item.toBook(catalogue)
	return &book, nil
}

// CreateBook posts b and replaces it with what the API stored.
func (s *Store) CreateBook(ctx context.Context, b *entities.Book) error {
	return s.send(ctx, http.MethodPost, "/books", b)
}

// UpdateBook sends the whole book as a PATCH, which is what the API
// accepts for edits.
func (s *Store) UpdateBook(ctx context.Context, b *entities.Book) error {
	return s.send(ctx, http.MethodPatch, bookPath(b.ID), b)
}

func (s *Store) send(ctx context.Context, method, path string, b *entities.Book) error {
	catalogue, err := s.ListGenres(ctx)
	if err != nil {
		return err
	}
	payload, err := newBookPayload(b, catalogue)
	if err != nil {
		return err
	}

	data, err := s.client.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	stored, err := s.decodeBook(ctx, data)
	if err != nil {
		return err
	}
	if stored.ID == "" {
		stored.ID = b.ID
	}
	*b = *stored
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	_, err := s.client.do(ctx, http.MethodDelete, bookPath(id), nil)
	return err
}

// ListGenres returns the remote catalogue, or the default genres when the
// remote list is unavailable or empty.
func (s *Store) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	catalogue, err := s.fetchGenres(ctx)
	if err != nil {
		log.Printf("[REMOTE] genre list unavailable, using defaults: %v", err)
		return entities.DefaultGenres(), nil
	}
	if len(catalogue) == 0 {
		return entities.DefaultGenres(), nil
	}
	return catalogue, nil
}

func (s *Store) fetchGenres(ctx context.Context) ([]entities.Genre, error) {
	data, err := s.client.do(ctx, http.MethodGet, "/genres", nil)
	if err != nil {
		return nil, err
	}
	raw, err := unwrapList(data, "genres", "data", "items")
	if err != nil {
		return nil, err
	}
	refs, err := genres.Normalize([]byte(raw))
	if err != nil {
		return nil, err
	}
	return genresFromRefs(refs), nil
}

func (s *Store) GetGenre(ctx context.Context, id uint) (*entities.Genre, error) {
	data, err := s.client.do(ctx, http.MethodGet, "/genres/"+strconv.FormatUint(uint64(id), 10), nil)
	if err != nil {
		return nil, err
	}
	refs, err := genres.Normalize(unwrapObject(data, "genre", "data"))
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 || refs[0].Name == "" {
		return nil, entities.ErrNotFound
	}
	genre := entities.Genre{ID: refs[0].ID, Name: refs[0].Name}
	if genre.ID == 0 {
		genre.ID = id
	}
	return &genre, nil
}

func (s *Store) CreateGenre(ctx context.Context, name string) (*entities.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("genre name is required")
	}

	data, err := s.client.do(ctx, http.MethodPost, "/genres", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	refs, err := genres.Normalize(unwrapObject(data, "genre", "data"))
	if err != nil || len(refs) == 0 {
		return &entities.Genre{Name: name}, nil
	}
	genre := entities.Genre{ID: refs[0].ID, Name: refs[0].Name}
	if genre.Name == "" {
		genre.Name = name
	}
	return &genre, nil
}

func (s *Store) DeleteGenre(ctx context.Context, id uint) error {
	_, err := s.client.do(ctx, http.MethodDelete, "/genres/"+strconv.FormatUint(uint64(id), 10), nil)
	return err
}

func (s *Store) DeleteGenreByName(ctx context.Context, name string) error {
	catalogue, err := s.fetchGenres(ctx)
	if err != nil {
		return err
	}
	genre, ok := entities.FindGenre(catalogue, name)
	if !ok {
		return entities.ErrNotFound
	}
	return s.DeleteGenre(ctx, genre.ID)
}
