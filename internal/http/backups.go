package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BackupsController exposes the snapshot backup scheduler.
type BackupsController struct {
	runner BackupRunner
}

func NewBackupsController(runner BackupRunner) *BackupsController {
	return &BackupsController{runner: runner}
}

// GetStatus handles GET /api/backups.
func (bc *BackupsController) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, bc.runner.Status())
}

// RunNow handles POST /api/backups.
func (bc *BackupsController) RunNow(c *gin.Context) {
	bc.runner.RunNow()
	respondAccepted(c, "backup started", nil)
}
