package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// GenresController manages the genre catalogue.
type GenresController struct {
	store     GenreStore
	cleaner   OrphanCleaner
	taskQueue TaskQueue
}

func NewGenresController(store GenreStore, cleaner OrphanCleaner, taskQueue TaskQueue) *GenresController {
	registerValidators()
	return &GenresController{
		store:     store,
		cleaner:   cleaner,
		taskQueue: taskQueue,
	}
}

// ListGenres handles GET /api/genres.
func (gc *GenresController) ListGenres(c *gin.Context) {
	list, err := gc.store.ListGenres(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list genres")
		return
	}
	if list == nil {
		list = []entities.Genre{}
	}
	c.JSON(http.StatusOK, list)
}

// GetGenre handles GET /api/genres/:id.
func (gc *GenresController) GetGenre(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	genre, err := gc.store.GetGenre(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, err, "genre", "get genre")
		return
	}
	c.JSON(http.StatusOK, genre)
}

// CreateGenre handles POST /api/genres. A duplicate name answers 409 with
// the existing genre in details.
func (gc *GenresController) CreateGenre(c *gin.Context) {
	var req genreRequest
	if !bindJSON(c, &req) {
		return
	}

	genre, err := gc.store.CreateGenre(c.Request.Context(), strings.TrimSpace(req.Name))
	if errors.Is(err, entities.ErrConflict) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "genre already exists",
			Code:    CodeConflict,
			Details: genre,
		})
		return
	}
	if err != nil {
		respondStoreError(c, err, "genre", "create genre")
		return
	}
	respondCreated(c, genre)
}

// DeleteGenre handles DELETE /api/genres/:id. A numeric id deletes by id;
// anything else is treated as a genre name.
func (gc *GenresController) DeleteGenre(c *gin.Context) {
	param := strings.TrimSpace(c.Param("id"))

	var err error
	if id, parseErr := strconv.ParseUint(param, 10, 32); parseErr == nil {
		err = gc.store.DeleteGenre(c.Request.Context(), uint(id))
	} else {
		err = gc.store.DeleteGenreByName(c.Request.Context(), param)
	}
	if err != nil {
		respondStoreError(c, err, "genre", "delete genre")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CleanupOrphanGenres handles POST /api/genres/cleanup. It is queued when a
// task queue is configured and runs inline otherwise.
func (gc *GenresController) CleanupOrphanGenres(c *gin.Context) {
	if gc.taskQueue != nil {
		taskID, err := gc.taskQueue.Enqueue(tasks.CleanupOrphanGenresTask{})
		if err != nil {
			respondInternalError(c, err, "enqueue genre cleanup")
			return
		}
		respondAccepted(c, "genre cleanup queued", gin.H{"taskId": taskID})
		return
	}

	deleted, err := gc.cleaner.DeleteOrphanGenres(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "cleanup genres")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// StatusInfo is one reading status option.
type StatusInfo struct {
	Value entities.ReadingStatus `json:"value"`
	Label string                 `json:"label"`
}

// ListStatuses handles GET /api/statuses.
func ListStatuses(c *gin.Context) {
	statuses := entities.AllReadingStatuses()
	out := make([]StatusInfo, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, StatusInfo{Value: s, Label: s.Label()})
	}
	c.JSON(http.StatusOK, out)
}
