package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/library"
	"github.com/mrlokans/bookshelf/internal/metadata"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

const (
	enrichTimeout    = 30 * time.Second
	enrichAllTimeout = 10 * time.Minute
)

// MetadataController handles book metadata enrichment endpoints.
type MetadataController struct {
	enricher  BookEnricher
	books     BookStore
	taskQueue TaskQueue
}

// NewMetadataController creates a new MetadataController. With a nil
// taskQueue enrichment runs within the request.
func NewMetadataController(enricher BookEnricher, books BookStore, taskQueue TaskQueue) *MetadataController {
	return &MetadataController{
		enricher:  enricher,
		books:     books,
		taskQueue: taskQueue,
	}
}

// EnrichBook handles POST /api/books/:id/enrich.
func (mc *MetadataController) EnrichBook(c *gin.Context) {
	id := c.Param("id")

	if mc.taskQueue != nil {
		if _, err := mc.books.GetBook(c.Request.Context(), id); err != nil {
			respondStoreError(c, err, "book", "get book")
			return
		}
		taskID, err := mc.taskQueue.Enqueue(tasks.EnrichBookTask{BookID: id})
		if err != nil {
			respondInternalError(c, err, "enqueue enrichment")
			return
		}
		respondAccepted(c, "enrichment queued", gin.H{"taskId": taskID})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), enrichTimeout)
	defer cancel()

	result, err := mc.enricher.EnrichBook(ctx, id)
	if err != nil {
		if errors.Is(err, metadata.ErrNoMatch) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no metadata found for this book", Code: CodeNoMatch})
			return
		}
		respondStoreError(c, err, "book", "enrich book")
		return
	}

	library.Annotate(result.Book)
	c.JSON(http.StatusOK, result)
}

// EnrichAll handles POST /api/books/enrich.
func (mc *MetadataController) EnrichAll(c *gin.Context) {
	if mc.taskQueue != nil {
		taskID, err := mc.taskQueue.Enqueue(tasks.EnrichAllBooksTask{})
		if err != nil {
			respondInternalError(c, err, "enqueue bulk enrichment")
			return
		}
		respondAccepted(c, "bulk enrichment queued", gin.H{"taskId": taskID})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), enrichAllTimeout)
	defer cancel()

	result, err := mc.enricher.EnrichAllMissing(ctx)
	if err != nil {
		respondInternalError(c, err, "enrich all books")
		return
	}
	c.JSON(http.StatusOK, result)
}
