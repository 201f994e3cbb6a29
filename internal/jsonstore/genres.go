package jsonstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/bookshelf/internal/entities"
)

func catalogue(names []string) []entities.Genre {
	genres := make([]entities.Genre, len(names))
	for i, name := range names {
		genres[i] = entities.Genre{ID: uint(i + 1), Name: name}
	}
	return genres
}

func (s *Store) ListGenres(ctx context.Context) ([]entities.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return catalogue(s.readGenres()), nil
}

func (s *Store) GetGenre(ctx context.Context, id uint) (*entities.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.readGenres()
	if id == 0 || int(id) > len(names) {
		return nil, entities.ErrNotFound
	}
	return &entities.Genre{ID: id, Name: names[id-1]}, nil
}

// CreateGenre appends name to genres.json. Adding an existing name leaves
// the file untouched and returns the existing genre with ErrConflict.
func (s *Store) CreateGenre(ctx context.Context, name string) (*entities.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("genre name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.readGenres()
	if existing, ok := entities.FindGenre(catalogue(names), name); ok {
		return &existing, entities.ErrConflict
	}

	names = append(names, name)
	if err := s.writeGenres(names); err != nil {
		return nil, err
	}
	return &entities.Genre{ID: uint(len(names)), Name: name}, nil
}

func (s *Store) DeleteGenre(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.readGenres()
	if id == 0 || int(id) > len(names) {
		return entities.ErrNotFound
	}
	return s.removeGenres(names, []string{names[id-1]})
}

func (s *Store) DeleteGenreByName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.readGenres()
	genre, ok := entities.FindGenre(catalogue(names), name)
	if !ok {
		return entities.ErrNotFound
	}
	return s.removeGenres(names, []string{genre.Name})
}

// DeleteOrphanGenres drops user-added genres that no book uses.
func (s *Store) DeleteOrphanGenres(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := make(map[string]bool)
	for _, b := range s.readBooks() {
		for _, g := range b.GenreNames() {
			used[strings.ToLower(g)] = true
		}
	}

	names := s.readGenres()
	var orphans []string
	for _, name := range names {
		if !used[strings.ToLower(name)] && !entities.IsDefaultGenre(name) {
			orphans = append(orphans, name)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	if err := s.removeGenres(names, orphans); err != nil {
		return 0, err
	}
	return int64(len(orphans)), nil
}

// removeGenres drops the given names from the catalogue and from every
// book that carries them. Callers hold s.mu.
func (s *Store) removeGenres(names, remove []string) error {
	drop := func(name string) bool {
		for _, r := range remove {
			if strings.EqualFold(r, name) {
				return true
			}
		}
		return false
	}

	kept := make([]string, 0, len(names))
	for _, name := range names {
		if !drop(name) {
			kept = append(kept, name)
		}
	}

	books := s.readBooks()
	changed := false
	for i := range books {
		current := books[i].GenreNames()
		filtered := make([]string, 0, len(current))
		for _, g := range current {
			if !drop(g) {
				filtered = append(filtered, g)
			}
		}
		if len(filtered) != len(current) {
			books[i].SetGenreNames(filtered)
			changed = true
		}
	}
	if changed {
		if err := s.writeBooks(books); err != nil {
			return err
		}
	}
	return s.writeGenres(kept)
}

// registerGenres appends names missing from the catalogue and returns the
// book's genres spelled the way the catalogue spells them. Callers hold s.mu.
func (s *Store) registerGenres(bookGenres []string) ([]string, error) {
	names := s.readGenres()
	known := catalogue(names)
	canonical := make([]string, 0, len(bookGenres))
	added := false
	for _, g := range bookGenres {
		if existing, ok := entities.FindGenre(known, g); ok {
			canonical = append(canonical, existing.Name)
			continue
		}
		names = append(names, g)
		known = catalogue(names)
		canonical = append(canonical, g)
		added = true
	}
	if !added {
		return canonical, nil
	}
	return canonical, s.writeGenres(names)
}
