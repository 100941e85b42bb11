package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
)

// TaskLoader finds a task within a viewer's visibility.
type TaskLoader interface {
	GetTask(ctx context.Context, taskID, viewerID string) (*models.Task, error)
}

// RequireTaskAccess loads the task named by the :id parameter. Tasks the
// user neither created nor is assigned to are reported as missing.
func RequireTaskAccess(tasks TaskLoader, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		task, err := tasks.GetTask(c.Request.Context(), c.Param("id"), userID)
		if err != nil {
			if errors.Is(err, services.ErrTaskNotFound) {
				apierrors.NotFound(c, "Task not found")
				return
			}
			logger.Error("failed to load task",
				slog.String("task_id", c.Param("id")),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(c, "")
			return
		}

		if !task.VisibleTo(userID) {
			apierrors.NotFound(c, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// CurrentTask returns the task loaded by RequireTaskAccess
func CurrentTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok && task != nil
}
