package dto

import (
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/services"
	"github.com/yukikurage/task-manager-api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"dueDate"`
	CompletedAt *time.Time          `json:"completedAt"`
	IsOverdue   bool                `json:"isOverdue"`
	Tags        []string            `json:"tags"`
	AssignedTo  string              `json:"assignedTo"`
	CreatedBy   string              `json:"createdBy"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	Assignee    *UserSummary        `json:"assignee,omitempty"`
	Creator     *UserSummary        `json:"creator,omitempty"`
}

// TaskResponse wraps a single task
type TaskResponse struct {
	Task TaskDTO `json:"task"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// TaskStatsResponse holds the counts over the caller's visible tasks
type TaskStatsResponse struct {
	Total          int64                         `json:"total"`
	StatusCounts   map[models.TaskStatus]int64   `json:"statusCounts"`
	PriorityCounts map[models.TaskPriority]int64 `json:"priorityCounts"`
	Overdue        int64                         `json:"overdue"`
}

// TaskSuggestionsResponse lists AI drafts
type TaskSuggestionsResponse struct {
	Suggestions []services.TaskSuggestion `json:"suggestions"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}

	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		CompletedAt: task.CompletedAt,
		IsOverdue:   task.IsOverdue(time.Now()),
		Tags:        tags,
		AssignedTo:  task.AssignedToID,
		CreatedBy:   task.CreatedByID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include users if preloaded
	if task.AssignedTo.ID != "" {
		assignee := ToUserSummary(task.AssignedTo)
		dto.Assignee = &assignee
	}
	if task.CreatedBy.ID != "" {
		creator := ToUserSummary(task.CreatedBy)
		dto.Creator = &creator
	}

	return dto
}

// ToTaskListResponse converts a page of tasks
func ToTaskListResponse(tasks []models.Task, pagination utils.PaginationResponse) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return TaskListResponse{Tasks: items, Pagination: pagination}
}

// ToTaskStatsResponse converts service stats
func ToTaskStatsResponse(stats services.TaskStats) TaskStatsResponse {
	return TaskStatsResponse{
		Total:          stats.Total,
		StatusCounts:   stats.StatusCounts,
		PriorityCounts: stats.PriorityCounts,
		Overdue:        stats.Overdue,
	}
}
