// Package http exposes the bookshelf REST API over gin.
package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Routes of optional dependencies missing from cfg are not registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Store, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", Ping)

	api := router.Group("/api")
	api.GET("/statuses", ListStatuses)

	if cfg.Store == nil {
		return router
	}

	// Books
	books := NewBooksController(cfg.Store)
	if cfg.CoverCache != nil {
		books.SetCoverCache(cfg.CoverCache)
	}
	api.GET("/books", books.ListBooks)
	api.POST("/books", books.CreateBook)
	api.GET("/books/stats", books.GetStats)
	api.GET("/books/recent", books.GetRecent)
	api.GET("/books/reading", books.GetReading)
	api.GET("/books/:id", books.GetBook)
	api.PUT("/books/:id", books.ReplaceBook)
	api.PATCH("/books/:id", books.PatchBook)
	api.PATCH("/books/:id/progress", books.UpdateProgress)
	api.DELETE("/books/:id", books.DeleteBook)
	api.GET("/dashboard", books.GetDashboard)

	// Book cover endpoint
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Store)
		api.GET("/books/:id/cover", coversController.GetCover)
	}

	// Book metadata enrichment endpoints
	if cfg.Enricher != nil {
		metadataController := NewMetadataController(cfg.Enricher, cfg.Store, cfg.TaskQueue)
		api.POST("/books/:id/enrich", metadataController.EnrichBook)
		api.POST("/books/enrich", metadataController.EnrichAll)
	}

	// Genres
	genresController := NewGenresController(cfg.Store, cfg.OrphanCleaner, cfg.TaskQueue)
	api.GET("/genres", genresController.ListGenres)
	api.POST("/genres", genresController.CreateGenre)
	api.GET("/genres/:id", genresController.GetGenre)
	api.DELETE("/genres/:id", genresController.DeleteGenre)
	if cfg.OrphanCleaner != nil {
		api.POST("/genres/cleanup", genresController.CleanupOrphanGenres)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.OrphanCleaner != nil)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	// Snapshot backups
	if cfg.Backups != nil {
		backupsController := NewBackupsController(cfg.Backups)
		api.GET("/backups", backupsController.GetStatus)
		api.POST("/backups", backupsController.RunNow)
	}

	return router
}
