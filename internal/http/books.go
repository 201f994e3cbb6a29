package http

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/library"
)

const defaultRecentLimit = 5

type BooksController struct {
	store  LibraryStore
	covers CoverCache
}

func NewBooksController(store LibraryStore) *BooksController {
	registerValidators()
	return &BooksController{
		store: store,
	}
}

// SetCoverCache makes the controller drop cached covers of edited and
// deleted books.
func (bc *BooksController) SetCoverCache(cache CoverCache) {
	bc.covers = cache
}

// ListBooks handles GET /api/books.
// Query: q (or query), genre, status, sort, order, limit, offset.
func (bc *BooksController) ListBooks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		query = c.Query("query")
	}
	filter := library.Filter{
		Query:  query,
		Genre:  c.Query("genre"),
		Status: c.Query("status"),
	}
	if status := strings.TrimSpace(filter.Status); status != "" && !strings.EqualFold(status, library.FilterAll) {
		if _, err := entities.ParseReadingStatus(status); err != nil {
			respondBadRequest(c, "invalid status")
			return
		}
	}

	order := strings.ToLower(c.DefaultQuery("order", "asc"))
	if order != "asc" && order != "desc" {
		respondBadRequest(c, "order must be asc or desc")
		return
	}
	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := parseIntQuery(c, "offset", 0)
	if !ok {
		return
	}

	books, err := bc.store.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	books = filter.Apply(books)
	if field := c.Query("sort"); field != "" {
		if err := library.SortBooks(books, field, order == "desc"); err != nil {
			respondBadRequest(c, err.Error())
			return
		}
	}

	total := len(books)
	books = paginate(books, limit, offset)
	library.AnnotateAll(books)

	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books), "total": total})
}

// paginate applies offset and then limit; a zero limit means no limit.
func paginate(books []entities.Book, limit, offset int) []entities.Book {
	if offset >= len(books) {
		return []entities.Book{}
	}
	books = books[offset:]
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	return books
}

// GetBook handles GET /api/books/:id.
func (bc *BooksController) GetBook(c *gin.Context) {
	book, err := bc.store.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}
	library.Annotate(book)
	c.JSON(http.StatusOK, book)
}

// CreateBook handles POST /api/books.
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	book := &entities.Book{}
	if !bc.applyRequest(c, &req, book) {
		return
	}

	if err := bc.store.CreateBook(c.Request.Context(), book); err != nil {
		respondStoreError(c, err, "book", "create book")
		return
	}

	library.Annotate(book)
	respondCreated(c, book)
}

// ReplaceBook handles PUT /api/books/:id. Fields missing from the body are
// cleared; the status is re-derived unless one is sent.
func (bc *BooksController) ReplaceBook(c *gin.Context) {
	bc.update(c, true)
}

// PatchBook handles PATCH /api/books/:id. Fields missing from the body are
// left as they are.
func (bc *BooksController) PatchBook(c *gin.Context) {
	bc.update(c, false)
}

func (bc *BooksController) update(c *gin.Context, replace bool) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	existing, err := bc.store.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}

	book := *existing
	if replace {
		book = entities.Book{
			ID:        existing.ID,
			Status:    existing.Status,
			CreatedAt: existing.CreatedAt,
		}
	}
	if !bc.applyRequest(c, &req, &book) {
		return
	}

	bc.save(c, &book, existing.Cover)
}

// UpdateProgress handles PATCH /api/books/:id/progress.
func (bc *BooksController) UpdateProgress(c *gin.Context) {
	var req progressRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := bc.store.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err, "book", "get book")
		return
	}

	book.CurrentPage = *req.CurrentPage
	if err := library.ValidateBook(book); err != nil {
		respondStoreError(c, err, "book", "validate book")
		return
	}
	library.ApplyReadingState(book, false)

	bc.save(c, book, book.Cover)
}

// applyRequest fills book from req and enforces the book invariants,
// answering 400 itself when they do not hold. Validation sees the values
// as sent, before a finished status moves the page counter.
func (bc *BooksController) applyRequest(c *gin.Context, req *bookRequest, book *entities.Book) bool {
	explicit, err := req.apply(c.Request.Context(), book, bc.store)
	if err != nil {
		respondStoreError(c, err, "genre", "resolve genres")
		return false
	}

	library.Normalize(book)
	if err := library.ValidateBook(book); err != nil {
		respondStoreError(c, err, "book", "validate book")
		return false
	}
	library.ApplyReadingState(book, explicit)
	return true
}

func (bc *BooksController) save(c *gin.Context, book *entities.Book, previousCover string) {
	if err := bc.store.UpdateBook(c.Request.Context(), book); err != nil {
		respondStoreError(c, err, "book", "update book")
		return
	}
	if book.Cover != previousCover {
		bc.invalidateCover(book.ID)
	}

	library.Annotate(book)
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id := c.Param("id")
	if err := bc.store.DeleteBook(c.Request.Context(), id); err != nil {
		respondStoreError(c, err, "book", "delete book")
		return
	}
	bc.invalidateCover(id)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (bc *BooksController) invalidateCover(id string) {
	if bc.covers == nil {
		return
	}
	if err := bc.covers.InvalidateCover(id); err != nil {
		log.Printf("[HTTP] failed to invalidate cover of book %s: %v", id, err)
	}
}

// GetStats handles GET /api/books/stats.
func (bc *BooksController) GetStats(c *gin.Context) {
	books, err := bc.store.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, library.CalculateStats(books))
}

// GetRecent handles GET /api/books/recent.
func (bc *BooksController) GetRecent(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", defaultRecentLimit)
	if !ok {
		return
	}

	books, err := bc.store.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	recent := library.RecentBooks(books, limit)
	library.AnnotateAll(recent)
	c.JSON(http.StatusOK, gin.H{"books": recent, "count": len(recent)})
}

// GetReading handles GET /api/books/reading.
func (bc *BooksController) GetReading(c *gin.Context) {
	books, err := bc.store.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	reading := library.CurrentlyReading(books)
	library.AnnotateAll(reading)
	c.JSON(http.StatusOK, gin.H{"books": reading, "count": len(reading)})
}

// DashboardResponse is everything the home page shows.
type DashboardResponse struct {
	Stats            library.Stats   `json:"stats"`
	CurrentlyReading []entities.Book `json:"currentlyReading"`
	Recent           []entities.Book `json:"recent"`
}

// GetDashboard handles GET /api/dashboard.
func (bc *BooksController) GetDashboard(c *gin.Context) {
	books, err := bc.store.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	resp := DashboardResponse{
		Stats:            library.CalculateStats(books),
		CurrentlyReading: library.CurrentlyReading(books),
		Recent:           library.RecentBooks(books, defaultRecentLimit),
	}
	library.AnnotateAll(resp.CurrentlyReading)
	library.AnnotateAll(resp.Recent)
	c.JSON(http.StatusOK, resp)
}
