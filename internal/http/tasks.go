package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue         TaskQueue
	cleanupQueued bool
}

// NewTasksController creates a new TasksController. cleanupQueued tells it
// whether the cleanup_orphan_genres queue is registered.
func NewTasksController(queue TaskQueue, cleanupQueued bool) *TasksController {
	return &TasksController{queue: queue, cleanupQueued: cleanupQueued}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ListTaskTypes handles GET /api/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        tasks.EnrichBookTask{}.Config().Name,
			Description: "Enrich a single book's metadata from OpenLibrary",
		},
		{
			Type:        tasks.EnrichAllBooksTask{}.Config().Name,
			Description: "Enrich all books missing metadata",
		},
	}
	if tc.cleanupQueued {
		types = append(types, TaskTypeInfo{
			Type:        tasks.CleanupOrphanGenresTask{}.Config().Name,
			Description: "Delete custom genres no book uses",
		})
	}

	c.JSON(http.StatusOK, gin.H{"taskTypes": types})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if errors.Is(err, tasks.ErrTaskNotFound) {
		respondNotFound(c, "task")
		return
	}
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	// BookID is required for enrich_book task
	BookID string `json:"bookId,omitempty"`
}

// RunTask handles POST /api/tasks/:type/run
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	var task backlite.Task
	switch taskType {
	case "enrich_book":
		if req.BookID == "" {
			respondBadRequest(c, "bookId is required for enrich_book task")
			return
		}
		task = tasks.EnrichBookTask{BookID: req.BookID}
	case "enrich_all_books":
		task = tasks.EnrichAllBooksTask{}
	case "cleanup_orphan_genres":
		if !tc.cleanupQueued {
			respondBadRequest(c, "genre cleanup is not available for this storage backend")
			return
		}
		task = tasks.CleanupOrphanGenresTask{}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	taskID, err := tc.queue.Enqueue(task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":  taskID,
		"type":    taskType,
		"message": "task enqueued",
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
