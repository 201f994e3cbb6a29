package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/covers"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newCoverServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path == "/gone.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHeader)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCoversController_GetCover(t *testing.T) {
	var hits int32
	server := newCoverServer(t, &hits)

	db, _ := setupBooksTestDB(t)
	cache, err := covers.NewCacheFs(afero.NewMemMapFs(), "/covers")
	require.NoError(t, err)
	router := NewRouter(RouterConfig{Store: db, CoverCache: cache})

	book := createBook(t, router, `{"title": "T", "author": "A", "cover": "`+server.URL+`/a.png"}`)
	path := "/api/books/" + book.ID + "/cover"

	t.Run("serves and caches the cover", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			w := doJSON(router, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
			assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
			assert.Equal(t, pngHeader, w.Body.Bytes())
		}
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("changing the cover drops the cached copy", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/api/books/"+book.ID, `{"cover": "`+server.URL+`/b.png"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	})

	t.Run("redirects to the source when it cannot be cached", func(t *testing.T) {
		w := doJSON(router, http.MethodPatch, "/api/books/"+book.ID, `{"cover": "`+server.URL+`/gone.png"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, server.URL+"/gone.png", w.Header().Get("Location"))
	})

	t.Run("book without cover", func(t *testing.T) {
		bare := createBook(t, router, `{"title": "Sem capa", "author": "A"}`)
		w := doJSON(router, http.MethodGet, "/api/books/"+bare.ID+"/cover", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doJSON(router, http.MethodGet, "/api/books/missing/cover", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
