package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/genres"
)

const genresJSON = `[{"id": 1, "name": "Fantasia"}, {"id": 2, "name": "Romance"}, {"id": 7, "name": "Poesia"}]`

type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string][]byte
}

func newFakeAPI(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Store, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{bodies: make(map[string][]byte)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		key := r.Method + " " + r.URL.Path
		api.requests = append(api.requests, key)
		api.bodies[key] = body
		api.mu.Unlock()

		if r.Method == http.MethodGet && r.URL.Path == "/genres" {
			w.Write([]byte(genresJSON))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return New(Config{BaseURL: server.URL + "/", RateLimit: -1}), api
}

func TestListBooks_NormalizesShapes(t *testing.T) {
	store, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 12, "title": "O Hobbit", "author": "Tolkien", "genres": [{"id": 1, "name": "Fantasia"}], "status": "LENDO", "pages": 300, "currentPage": 30, "updatedAt": "2025-01-02T03:04:05.000Z"},
			{"id": "abc", "title": "Orgulho e Preconceito", "author": "Austen", "genre": "Romance"},
			{"id": 13, "title": "Odes", "author": "Ricardo Reis", "genres": [7]}
		]`))
	})

	books, err := store.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 3)

	assert.Equal(t, "12", books[0].ID)
	assert.Equal(t, []string{"Fantasia"}, books[0].Genres)
	assert.Equal(t, entities.StatusReading, books[0].Status)
	assert.Equal(t, 2025, books[0].UpdatedAt.Year())

	assert.Equal(t, "abc", books[1].ID)
	assert.Equal(t, "Romance", books[1].Genre)
	assert.Equal(t, entities.StatusWantToRead, books[1].Status)

	assert.Equal(t, []string{"Poesia"}, books[2].Genres)
}

func TestListBooks_WrappedResponse(t *testing.T) {
	store, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"books": [{"id": 1, "title": "T", "author": "A"}]}`))
	})

	books, err := store.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "1", books[0].ID)
}

func TestListBooks_LooseNumbers(t *testing.T) {
	store, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "title": "T", "author": "A", "rating": 4.5, "pages": "320", "currentPage": null, "year": 1999.0},
			{"id": 2, "title": "U", "author": "B", "rating": 9, "pages": {"n": 1}},
			{"id": 3, "title": "V", "author": "C", "rating": 3}
		]`))
	})

	books, err := store.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 3)

	assert.Equal(t, 5, books[0].Rating)
	assert.Equal(t, 320, books[0].Pages)
	assert.Equal(t, 0, books[0].CurrentPage)
	assert.Equal(t, 1999, books[0].Year)

	assert.Equal(t, 5, books[1].Rating)
	assert.Equal(t, 0, books[1].Pages)

	assert.Equal(t, 3, books[2].Rating)
}

func TestNewClient_RateLimit(t *testing.T) {
	assert.Equal(t, rate.Inf, NewClient(Config{}).limiter.Limit())
	assert.Equal(t, rate.Inf, NewClient(Config{RateLimit: -1}).limiter.Limit())
	assert.Equal(t, rate.Limit(5), NewClient(Config{RateLimit: 5}).limiter.Limit())
}

func TestGetBook_NotFound(t *testing.T) {
	store, _ := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not found"}`))
	})

	_, err := store.GetBook(context.Background(), "99")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "/books/99", apiErr.Path)
}

func TestCreateBook_SendsGenreIDsAndDefaults(t *testing.T) {
	store, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 42, "title": "Duna", "author": "Herbert", "genres": [{"id": 1, "name": "Fantasia"}], "cover": "https://via.placeholder.com/150", "synopsis": "Sem sinopse"}`))
	})

	book := &entities.Book{Title: "Duna", Author: "Herbert", Status: entities.StatusWantToRead}
	book.SetGenreNames([]string{"fantasia", "poesia"})

	require.NoError(t, store.CreateBook(context.Background(), book))
	assert.Equal(t, "42", book.ID)
	assert.Equal(t, PlaceholderCover, book.Cover)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(api.bodies["POST /books"], &sent))
	assert.Equal(t, []any{float64(1), float64(7)}, sent["genreIds"])
	assert.Equal(t, PlaceholderCover, sent["cover"])
	assert.Equal(t, NoSynopsis, sent["synopsis"])
	assert.Equal(t, "QUERO_LER", sent["status"])
}

func TestCreateBook_UnknownGenre(t *testing.T) {
	store, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	book := &entities.Book{Title: "T", Author: "A"}
	book.SetGenreNames([]string{"Culinária"})

	err := store.CreateBook(context.Background(), book)
	assert.ErrorIs(t, err, genres.ErrUnknownGenre)
	assert.Equal(t, []string{"GET /genres"}, api.requests)
}

func TestUpdateBook_UsesPatch(t *testing.T) {
	store, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	book := &entities.Book{ID: "5", Title: "T", Author: "A", CurrentPage: 10}
	require.NoError(t, store.UpdateBook(context.Background(), book))
	assert.Contains(t, api.requests, "PATCH /books/5")
	assert.Equal(t, "5", book.ID)
}

func TestDeleteBook(t *testing.T) {
	store, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, store.DeleteBook(context.Background(), "5"))
	assert.Equal(t, []string{"DELETE /books/5"}, api.requests)
}

func TestListGenres_FallsBackToDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := New(Config{BaseURL: server.URL, RateLimit: -1})
	catalogue, err := store.ListGenres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultGenres(), catalogue)

	assert.Error(t, store.Ping(context.Background()))
}

func TestGenreEndpoints(t *testing.T) {
	store, api := newFakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/genres/7":
			w.Write([]byte(`{"id": 7, "name": "Poesia"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/genres":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": 8, "name": "Culinária"}`))
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	genre, err := store.GetGenre(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Poesia", genre.Name)

	_, err = store.GetGenre(ctx, 99)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	created, err := store.CreateGenre(ctx, "Culinária")
	require.NoError(t, err)
	assert.Equal(t, uint(8), created.ID)

	require.NoError(t, store.DeleteGenreByName(ctx, "ROMANCE"))
	assert.Contains(t, api.requests, "DELETE /genres/2")

	assert.ErrorIs(t, store.DeleteGenreByName(ctx, "Terror"), entities.ErrNotFound)
}

func TestAPIError_Conflict(t *testing.T) {
	err := &APIError{Method: "POST", Path: "/genres", StatusCode: http.StatusConflict, Body: "exists"}
	assert.ErrorIs(t, err, entities.ErrConflict)
	assert.Contains(t, err.Error(), "HTTP 409")
}
