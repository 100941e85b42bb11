package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/services"
)

func respondAuthError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrPasswordTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at most %d bytes", constants.MaxPasswordLength))
	case errors.Is(err, services.ErrUserExists):
		apierrors.Conflict(c, "User with this email or username already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrAccountDeactivated):
		apierrors.AccountDisabled(c)
	case errors.Is(err, services.ErrIncorrectPassword):
		apierrors.BadRequest(c, "Current password is incorrect")
	case errors.Is(err, services.ErrNoProfileChanges):
		apierrors.BadRequest(c, "No profile fields to update")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		respondInternal(c, logger, err)
	}
}

func respondTaskError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, "Title is required")
	case errors.Is(err, services.ErrTitleTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Title must be at most %d characters", constants.MaxTitleLength))
	case errors.Is(err, services.ErrDescriptionTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Description must be at most %d characters", constants.MaxDescriptionLength))
	case errors.Is(err, services.ErrInvalidStatus):
		apierrors.BadRequest(c, "Invalid task status")
	case errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, "Invalid task priority")
	case errors.Is(err, services.ErrDueDateNotFuture):
		apierrors.BadRequest(c, "Due date must be in the future")
	case errors.Is(err, services.ErrTagTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Tags must be at most %d characters", constants.MaxTagLength))
	case errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.BadRequest(c, "Assigned user does not exist")
	case errors.Is(err, services.ErrSuggestionTextRequired):
		apierrors.BadRequest(c, "Text is required")
	case errors.Is(err, services.ErrSuggestionTextTooLong):
		apierrors.BadRequest(c, fmt.Sprintf("Text must be at most %d characters", constants.MaxAIInputLength))
	case errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, "No tasks could be suggested from the text")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "Task suggestions are not configured")
	case errors.Is(err, services.ErrAIServiceFailed):
		apierrors.ServiceUnavailable(c, "Task suggestions are temporarily unavailable")
	default:
		respondInternal(c, logger, err)
	}
}

func respondUserError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	default:
		respondInternal(c, logger, err)
	}
}

// respondInternal logs the cause and answers with a generic message.
func respondInternal(c *gin.Context, logger *slog.Logger, err error) {
	logger.Error("request failed",
		slog.String("method", c.Request.Method),
		slog.String("route", c.FullPath()),
		slog.String("error", err.Error()),
	)
	apierrors.InternalError(c, "")
}
