package http

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CoversController handles book cover requests.
type CoversController struct {
	cache CoverCache
	books BookStore
}

// NewCoversController creates a new CoversController.
func NewCoversController(cache CoverCache, books BookStore) *CoversController {
	return &CoversController{
		cache: cache,
		books: books,
	}
}

// GetCover serves a cached book cover image.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	book, err := cc.books.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}

	if book.Cover == "" {
		respondNotFound(c, "cover")
		return
	}

	// Fetches on a cache miss.
	cachePath, err := cc.cache.GetCover(c.Request.Context(), book.ID, book.Cover)
	if err != nil || cachePath == "" {
		if err != nil {
			log.Printf("[COVERS] falling back to source for book %s: %v", book.ID, err)
		}
		c.Redirect(http.StatusTemporaryRedirect, book.Cover)
		return
	}

	f, err := cc.cache.Open(cachePath)
	if err != nil {
		c.Redirect(http.StatusTemporaryRedirect, book.Cover)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		respondInternalError(c, err, "read cover")
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
