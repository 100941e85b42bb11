package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/dto"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	logger      *slog.Logger
}

func NewTaskHandler(taskService *services.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

type listTasksQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority   string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssignedTo string `form:"assignedTo"`
	CreatedBy  string `form:"createdBy"`
	Search     string `form:"search" binding:"max=100"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=1000"`
	Status      string     `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time `json:"dueDate"`
	Tags        []string   `json:"tags" binding:"omitempty,dive,max=30"`
	AssignedTo  string     `json:"assignedTo"`
}

type updateTaskRequest struct {
	Title       *string      `json:"title" binding:"omitempty,max=200"`
	Description *string      `json:"description" binding:"omitempty,max=1000"`
	Status      *string      `json:"status" binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Priority    *string      `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	DueDate     optionalTime `json:"dueDate"`
	Tags        *[]string    `json:"tags" binding:"omitempty,dive,max=30"`
	AssignedTo  *string      `json:"assignedTo"`
}

type suggestTasksRequest struct {
	Text string `json:"text" binding:"required"`
}

// optionalTime tells an absent field apart from an explicit null.
type optionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// parseSort falls back to newest first for anything it does not recognize.
func parseSort(sortBy, sortOrder string) (repository.TaskSortField, bool) {
	field := repository.TaskSortField(sortBy)
	switch field {
	case repository.SortByCreatedAt, repository.SortByUpdatedAt, repository.SortByDueDate,
		repository.SortByPriority, repository.SortByTitle, repository.SortByStatus:
	default:
		field = repository.SortByCreatedAt
	}
	return field, !strings.EqualFold(sortOrder, "asc")
}

// ListTasks returns the tasks the current user created or is assigned to
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var query listTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	sortBy, sortDesc := parseSort(query.SortBy, query.SortOrder)

	input := services.ListTasksInput{
		ViewerID:   userID,
		AssignedTo: query.AssignedTo,
		CreatedBy:  query.CreatedBy,
		Search:     query.Search,
		SortBy:     sortBy,
		SortDesc:   sortDesc,
		Pagination: params,
	}
	if query.Status != "" {
		status := models.TaskStatus(query.Status)
		input.Status = &status
	}
	if query.Priority != "" {
		priority := models.TaskPriority(query.Priority)
		input.Priority = &priority
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondTaskError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "", dto.ToTaskListResponse(tasks, utils.NewPaginationResponse(params, total)))
}

// GetTask returns a specific task by ID
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.CurrentTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	apierrors.OK(c, "", dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondTaskError(c, h.logger, err)
		return
	}

	apierrors.Created(c, "Task created successfully", dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// UpdateTask updates an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		AssignedTo:  req.AssignedTo,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.DueDate.Set {
		input.DueDate = req.DueDate.Value
		input.ClearDueDate = req.DueDate.Value == nil
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), c.Param("id"), userID, input)
	if err != nil {
		respondTaskError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "Task updated successfully", dto.TaskResponse{Task: dto.ToTaskDTO(*task)})
}

// DeleteTask deletes a task created by the current user
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondTaskError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "Task deleted successfully", nil)
}

// GetStats returns counts over the current user's visible tasks
func (h *TaskHandler) GetStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	stats, err := h.taskService.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "", dto.ToTaskStatsResponse(*stats))
}

// SuggestTasks uses AI to propose task drafts from free text
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	var req suggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, err)
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, h.logger, err)
		return
	}

	apierrors.OK(c, "", dto.TaskSuggestionsResponse{Suggestions: suggestions})
}
