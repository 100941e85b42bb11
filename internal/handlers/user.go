package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/dto"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

type listUsersQuery struct {
	Search string `form:"search" binding:"max=100"`
}

// ListUsers searches the directory of active users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.userService.SearchUsers(c.Request.Context(), query.Search, params)
	if err != nil {
		respondUserError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "", dto.ToUserListResponse(users, utils.NewPaginationResponse(params, total)))
}

// GetUser returns a user profile with task counts
func (h *UserHandler) GetUser(c *gin.Context) {
	user, stats, err := h.userService.GetUserWithStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondUserError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "", dto.UserProfileResponse{
		User:  dto.ToUserDTO(*user),
		Stats: dto.ToUserStatsDTO(*stats),
	})
}

// GetUserTasks lists tasks assigned to a user that the caller can see
func (h *UserHandler) GetUserTasks(c *gin.Context) {
	viewerID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	tasks, total, err := h.userService.ListAssignedTasks(c.Request.Context(), c.Param("id"), viewerID, params)
	if err != nil {
		respondUserError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "", dto.ToTaskListResponse(tasks, utils.NewPaginationResponse(params, total)))
}

// Deactivate switches off the caller's own account
func (h *UserHandler) Deactivate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), userID); err != nil {
		respondUserError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "Account deactivated successfully", nil)
}
