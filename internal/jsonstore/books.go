package jsonstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func (s *Store) ListBooks(ctx context.Context) ([]entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readBooks(), nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := s.readBooks()
	i := indexOf(books, id)
	if i < 0 {
		return nil, entities.ErrNotFound
	}
	return &books[i], nil
}

// CreateBook appends b to books.json and registers any new genre name.
func (s *Store) CreateBook(ctx context.Context, b *entities.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := s.readBooks()
	if b.ID == "" {
		b.ID = uuid.NewString()
	} else if indexOf(books, b.ID) >= 0 {
		return entities.ErrConflict
	}

	now := s.now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	names, err := s.registerGenres(b.GenreNames())
	if err != nil {
		return err
	}
	b.SetGenreNames(names)
	return s.writeBooks(append(books, *b))
}

func (s *Store) UpdateBook(ctx context.Context, b *entities.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := s.readBooks()
	i := indexOf(books, b.ID)
	if i < 0 {
		return entities.ErrNotFound
	}

	b.CreatedAt = books[i].CreatedAt
	b.UpdatedAt = s.now().UTC()
	names, err := s.registerGenres(b.GenreNames())
	if err != nil {
		return err
	}
	b.SetGenreNames(names)
	books[i] = *b
	return s.writeBooks(books)
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books := s.readBooks()
	i := indexOf(books, id)
	if i < 0 {
		return entities.ErrNotFound
	}
	return s.writeBooks(append(books[:i], books[i+1:]...))
}

func indexOf(books []entities.Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}
