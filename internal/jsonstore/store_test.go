package jsonstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/entities"
)

const testDir = "/data"

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := New(fs, testDir)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return s, fs
}

func readFile(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, filepath.Join(testDir, name))
	require.NoError(t, err)
	return string(data)
}

func TestNew_SeedsGenres(t *testing.T) {
	s, fs := newTestStore(t)

	genres, err := s.ListGenres(context.Background())
	require.NoError(t, err)
	require.Len(t, genres, len(entities.DefaultGenres()))
	assert.Equal(t, uint(1), genres[0].ID)
	assert.Equal(t, "Literatura Brasileira", genres[0].Name)

	content := readFile(t, fs, GenresFile)
	assert.Contains(t, content, "[\n  \"Literatura Brasileira\",")
}

func TestNew_KeepsExistingGenres(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, GenresFile), []byte(`["Terror"]`), 0o644))

	s, err := New(fs, testDir)
	require.NoError(t, err)

	genres, err := s.ListGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entities.Genre{{ID: 1, Name: "Terror"}}, genres)
}

func TestMissingAndCorruptFiles(t *testing.T) {
	s, fs := newTestStore(t)
	ctx := context.Background()

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, BooksFile), []byte(`{not json`), 0o644))
	books, err = s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestBookLifecycle(t *testing.T) {
	s, fs := newTestStore(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Duna", Author: "Frank Herbert", Pages: 600}
	book.SetGenreNames([]string{"fantasia", "Space Opera"})

	require.NoError(t, s.CreateBook(ctx, book))
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, s.now(), book.CreatedAt)

	t.Run("new genres are registered", func(t *testing.T) {
		genres, err := s.ListGenres(ctx)
		require.NoError(t, err)
		assert.Len(t, genres, len(entities.DefaultGenres())+1)
		assert.Equal(t, "Space Opera", genres[len(genres)-1].Name)
	})

	t.Run("file is pretty printed", func(t *testing.T) {
		content := readFile(t, fs, BooksFile)
		assert.Contains(t, content, "\n  {\n    \"id\": ")
	})

	t.Run("get", func(t *testing.T) {
		stored, err := s.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Duna", stored.Title)
		assert.Equal(t, []string{"Fantasia", "Space Opera"}, stored.Genres)
	})

	t.Run("update keeps createdAt", func(t *testing.T) {
		later := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return later }

		book.CurrentPage = 50
		require.NoError(t, s.UpdateBook(ctx, book))

		stored, err := s.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 50, stored.CurrentPage)
		assert.Equal(t, later, stored.UpdatedAt)
		assert.True(t, stored.CreatedAt.Before(later))
	})

	t.Run("update missing", func(t *testing.T) {
		err := s.UpdateBook(ctx, &entities.Book{ID: "nope"})
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		dup := &entities.Book{ID: book.ID, Title: "x", Author: "y"}
		assert.ErrorIs(t, s.CreateBook(ctx, dup), entities.ErrConflict)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteBook(ctx, book.ID))
		_, err := s.GetBook(ctx, book.ID)
		assert.ErrorIs(t, err, entities.ErrNotFound)
		assert.ErrorIs(t, s.DeleteBook(ctx, book.ID), entities.ErrNotFound)
	})
}

func TestLegacyBookShapes(t *testing.T) {
	s, fs := newTestStore(t)

	legacy := `[
		{"id": 1700000000000, "title": "Dom Casmurro", "author": "Machado de Assis",
		 "genre": "Literatura Brasileira", "status": "lido", "pages": 256},
		{"id": "b2", "title": "O Hobbit", "author": "Tolkien",
		 "genres": [{"id": 5, "name": "Fantasia"}, "Aventura"], "status": "???"}
	]`
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testDir, BooksFile), []byte(legacy), 0o644))

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)

	assert.Equal(t, "1700000000000", books[0].ID)
	assert.Equal(t, []string{"Literatura Brasileira"}, books[0].Genres)
	assert.Equal(t, entities.StatusFinished, books[0].Status)

	assert.Equal(t, "b2", books[1].ID)
	assert.Equal(t, []string{"Fantasia", "Aventura"}, books[1].Genres)
	assert.Equal(t, "Fantasia", books[1].Genre)
	assert.Equal(t, entities.StatusWantToRead, books[1].Status)
}

func TestGenreOperations(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	defaults := len(entities.DefaultGenres())

	t.Run("create", func(t *testing.T) {
		genre, err := s.CreateGenre(ctx, " Culinária ")
		require.NoError(t, err)
		assert.Equal(t, uint(defaults+1), genre.ID)
		assert.Equal(t, "Culinária", genre.Name)
	})

	t.Run("create is idempotent", func(t *testing.T) {
		genre, err := s.CreateGenre(ctx, "culinária")
		assert.ErrorIs(t, err, entities.ErrConflict)
		assert.Equal(t, "Culinária", genre.Name)

		genres, err := s.ListGenres(ctx)
		require.NoError(t, err)
		assert.Len(t, genres, defaults+1)
	})

	t.Run("get by position", func(t *testing.T) {
		genre, err := s.GetGenre(ctx, 5)
		require.NoError(t, err)
		assert.Equal(t, "Fantasia", genre.Name)

		_, err = s.GetGenre(ctx, 0)
		assert.ErrorIs(t, err, entities.ErrNotFound)
		_, err = s.GetGenre(ctx, 999)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("delete by name removes it from books", func(t *testing.T) {
		book := &entities.Book{Title: "A", Author: "B"}
		book.SetGenreNames([]string{"Poesia", "Romance"})
		require.NoError(t, s.CreateBook(ctx, book))

		require.NoError(t, s.DeleteGenreByName(ctx, "POESIA"))

		stored, err := s.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Romance"}, stored.Genres)
		assert.Equal(t, "Romance", stored.Genre)

		assert.ErrorIs(t, s.DeleteGenreByName(ctx, "poesia"), entities.ErrNotFound)
	})

	t.Run("delete by id", func(t *testing.T) {
		require.NoError(t, s.DeleteGenre(ctx, 1))
		genres, err := s.ListGenres(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Ficção Científica", genres[0].Name)
	})
}

func TestDeleteOrphanGenres(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateGenre(ctx, "Orphan")
	require.NoError(t, err)

	book := &entities.Book{Title: "A", Author: "B"}
	book.SetGenreNames([]string{"Used"})
	require.NoError(t, s.CreateBook(ctx, book))

	deleted, err := s.DeleteOrphanGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	genres, err := s.ListGenres(ctx)
	require.NoError(t, err)
	_, ok := entities.FindGenre(genres, "Orphan")
	assert.False(t, ok)
	_, ok = entities.FindGenre(genres, "Used")
	assert.True(t, ok)
}

func TestWriteSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	books := []entities.Book{{ID: "1", Title: "T", Author: "A", Genres: []string{"X"}, Status: entities.StatusReading}}

	require.NoError(t, WriteSnapshot(fs, "/backup/2025", books, []entities.Genre{{ID: 1, Name: "X"}}))

	data, err := afero.ReadFile(fs, "/backup/2025/genres.json")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal(data, &names))
	assert.Equal(t, []string{"X"}, names)

	restored, err := New(fs, "/backup/2025")
	require.NoError(t, err)
	got, err := restored.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T", got[0].Title)
	assert.Equal(t, entities.StatusReading, got[0].Status)
}
