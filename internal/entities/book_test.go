package entities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadingStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected ReadingStatus
		wantErr  bool
	}{
		{"LENDO", StatusReading, false},
		{"lido", StatusFinished, false},
		{"  quero_ler ", StatusWantToRead, false},
		{"PAUSADO", StatusPaused, false},
		{"Abandonado", StatusAbandoned, false},
		{"READING", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			status, err := ParseReadingStatus(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidStatus))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestReadingStatus_Label(t *testing.T) {
	assert.Equal(t, "Quero Ler", StatusWantToRead.Label())
	assert.Equal(t, "Abandonado", StatusAbandoned.Label())
	assert.Equal(t, "Não definido", ReadingStatus("X").Label())
	assert.Len(t, AllReadingStatuses(), 5)
}

func TestBook_SetGenreNames(t *testing.T) {
	book := &Book{}

	book.SetGenreNames([]string{"Fantasia", "Romance"})
	assert.Equal(t, "Fantasia", book.Genre)
	assert.Equal(t, []string{"Fantasia", "Romance"}, book.Genres)

	book.SetGenreNames(nil)
	assert.Empty(t, book.Genre)
	assert.NotNil(t, book.Genres)
}

func TestBook_GenreNames(t *testing.T) {
	t.Run("prefers list", func(t *testing.T) {
		b := Book{Genre: "Poesia", Genres: []string{"Ficção"}}
		assert.Equal(t, []string{"Ficção"}, b.GenreNames())
	})

	t.Run("falls back to single genre", func(t *testing.T) {
		b := Book{Genre: "Poesia"}
		assert.Equal(t, []string{"Poesia"}, b.GenreNames())
	})

	t.Run("ignores placeholder", func(t *testing.T) {
		b := Book{Genre: NoGenre}
		assert.Empty(t, b.GenreNames())
	})
}

func TestBookRecord_RoundTrip(t *testing.T) {
	book := Book{
		ID:          "abc",
		Title:       "Dom Casmurro",
		Author:      "Machado de Assis",
		Pages:       256,
		CurrentPage: 10,
		Status:      StatusReading,
	}

	record := NewBookRecord(&book)
	record.Genres = []Genre{{ID: 1, Name: "Literatura Brasileira"}}

	back := record.ToBook()
	assert.Equal(t, "abc", back.ID)
	assert.Equal(t, "Literatura Brasileira", back.Genre)
	assert.Equal(t, []string{"Literatura Brasileira"}, back.Genres)
	assert.Equal(t, 10, back.CurrentPage)
}

func TestDefaultGenres(t *testing.T) {
	genres := DefaultGenres()
	require.Len(t, genres, 16)
	assert.Equal(t, uint(1), genres[0].ID)
	assert.Equal(t, "Literatura Brasileira", genres[0].Name)
	assert.Equal(t, "Mistério", genres[15].Name)

	assert.True(t, IsDefaultGenre("fantasia"))
	assert.False(t, IsDefaultGenre("Culinária"))

	g, ok := FindGenre(genres, " poesia ")
	assert.True(t, ok)
	assert.Equal(t, uint(15), g.ID)
}
