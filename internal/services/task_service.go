package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yukikurage/task-manager-api/internal/constants"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/observability/metrics"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleTooLong           = errors.New("title is too long")
	ErrDescriptionTooLong     = errors.New("description is too long")
	ErrInvalidStatus          = errors.New("invalid task status")
	ErrInvalidPriority        = errors.New("invalid task priority")
	ErrDueDateNotFuture       = errors.New("due date must be in the future")
	ErrTagTooLong             = errors.New("tag is too long")
	ErrAssigneeNotFound       = errors.New("assigned user does not exist")
	ErrSuggestionTextRequired = errors.New("text is required")
	ErrSuggestionTextTooLong  = errors.New("text is too long")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAIServiceFailed        = errors.New("AI service request failed")
	ErrAINoValidTasks         = errors.New("no valid tasks could be suggested from the text")
)

// TaskSuggester proposes task drafts from free text.
type TaskSuggester interface {
	SuggestTasks(ctx context.Context, text string) ([]TaskSuggestion, error)
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo  repository.TaskRepository
	userRepo  repository.UserRepository
	suggester TaskSuggester
	logger    *slog.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService. suggester may be nil when no
// AI provider is configured.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, suggester TaskSuggester, logger *slog.Logger) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		suggester: suggester,
		logger:    logger,
		now:       time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	ViewerID   string
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	AssignedTo string
	CreatedBy  string
	Search     string
	SortBy     repository.TaskSortField
	SortDesc   bool
	Pagination utils.PaginationParams
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	CreatorID   string
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	Tags        []string
	AssignedTo  string
}

// UpdateTaskInput represents input for updating a task. Nil fields are
// left untouched.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
	AssignedTo   *string
}

// TaskStats holds the counts shown on the dashboard.
type TaskStats struct {
	Total          int64
	StatusCounts   map[models.TaskStatus]int64
	PriorityCounts map[models.TaskPriority]int64
	Overdue        int64
}

// ListTasks returns the tasks visible to the viewer
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		ViewerID:   input.ViewerID,
		Status:     input.Status,
		Priority:   input.Priority,
		AssignedTo: input.AssignedTo,
		CreatedBy:  input.CreatedBy,
		Search:     input.Search,
		SortBy:     input.SortBy,
		SortDesc:   input.SortDesc,
		Offset:     input.Pagination.Offset,
		Limit:      input.Pagination.Limit,
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a visible task with its creator and assignee
func (s *TaskService) GetTask(ctx context.Context, taskID, viewerID string) (*models.Task, error) {
	task, err := s.taskRepo.FindVisible(ctx, taskID, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask validates and stores a new task. The assignee defaults to the creator.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	now := s.now()

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(input.Description) > constants.MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	if input.Status == "" {
		input.Status = models.TaskStatusPending
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidPriority
	}

	dueDate, err := futureDueDate(input.DueDate, now)
	if err != nil {
		return nil, err
	}

	tags, err := normalizeTags(input.Tags)
	if err != nil {
		return nil, err
	}

	assignee := strings.TrimSpace(input.AssignedTo)
	if assignee == "" {
		assignee = input.CreatorID
	}
	if err := s.ensureUserExists(ctx, assignee); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:        title,
		Description:  input.Description,
		Status:       input.Status,
		Priority:     input.Priority,
		DueDate:      dueDate,
		Tags:         tags,
		AssignedToID: assignee,
		CreatedByID:  input.CreatorID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		metrics.ObserveTaskOperation("create", metrics.ResultFailure)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	metrics.ObserveTaskOperation("create", metrics.ResultSuccess)

	return s.GetTask(ctx, task.ID, input.CreatorID)
}

// UpdateTask applies changes to a task the actor created or is assigned to.
// The creator of a task never changes.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, actorID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		if utf8.RuneCountInString(*input.Description) > constants.MaxDescriptionLength {
			return nil, ErrDescriptionTooLong
		}
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		dueDate, err := futureDueDate(input.DueDate, s.now())
		if err != nil {
			return nil, err
		}
		task.DueDate = dueDate
	}
	if input.Tags != nil {
		tags, err := normalizeTags(*input.Tags)
		if err != nil {
			return nil, err
		}
		task.Tags = tags
	}

	reassigned := false
	if input.AssignedTo != nil {
		assignee := strings.TrimSpace(*input.AssignedTo)
		if assignee != task.AssignedToID {
			if err := s.ensureUserExists(ctx, assignee); err != nil {
				return nil, err
			}
			task.AssignedToID = assignee
			reassigned = true
		}
	}

	if err := s.taskRepo.Update(ctx, task, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.ObserveTaskOperation("update", metrics.ResultRejected)
			return nil, ErrTaskNotFound
		}
		metrics.ObserveTaskOperation("update", metrics.ResultFailure)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	metrics.ObserveTaskOperation("update", metrics.ResultSuccess)

	// A reassigned task may no longer be visible to the actor, so the new
	// assignee is loaded directly instead of reloading the task.
	if reassigned {
		assignee, err := s.userRepo.FindByID(ctx, task.AssignedToID)
		if err != nil {
			return nil, fmt.Errorf("failed to load assignee: %w", err)
		}
		task.AssignedTo = *assignee
	}

	return task, nil
}

// DeleteTask deletes a task. Only its creator may do so; anyone else is told
// the task does not exist.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, actorID string) error {
	if err := s.taskRepo.DeleteOwned(ctx, taskID, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.ObserveTaskOperation("delete", metrics.ResultRejected)
			return ErrTaskNotFound
		}
		metrics.ObserveTaskOperation("delete", metrics.ResultFailure)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	metrics.ObserveTaskOperation("delete", metrics.ResultSuccess)
	s.logger.Info("task deleted", slog.String("task_id", taskID), slog.String("user_id", actorID))
	return nil
}

// GetStats counts the viewer's visible tasks
func (s *TaskService) GetStats(ctx context.Context, viewerID string) (*TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx, viewerID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to compute task stats: %w", err)
	}

	return &TaskStats{
		Total:          stats.Total,
		StatusCounts:   stats.ByStatus,
		PriorityCounts: stats.ByPriority,
		Overdue:        stats.Overdue,
	}, nil
}

// SuggestTasks uses AI to propose task drafts from text. Nothing is stored.
func (s *TaskService) SuggestTasks(ctx context.Context, text string) ([]TaskSuggestion, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrSuggestionTextRequired
	}
	if utf8.RuneCountInString(text) > constants.MaxAIInputLength {
		return nil, ErrSuggestionTextTooLong
	}

	drafts, err := s.suggester.SuggestTasks(ctx, text)
	if err != nil {
		s.logger.Error("task suggestion failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrAIServiceFailed, err)
	}

	now := s.now()
	valid := make([]TaskSuggestion, 0, len(drafts))
	for _, draft := range drafts {
		if len(valid) == constants.MaxAISuggestedTasks {
			break
		}

		draft.Title = truncateRunes(strings.TrimSpace(draft.Title), constants.MaxTitleLength)
		if draft.Title == "" {
			continue
		}
		draft.Description = truncateRunes(draft.Description, constants.MaxDescriptionLength)

		if !models.TaskPriority(draft.Priority).Valid() {
			draft.Priority = string(models.TaskPriorityMedium)
		}
		if draft.DueDate != nil && !draft.DueDate.After(now) {
			draft.DueDate = nil
		}

		tags := make([]string, 0, len(draft.Tags))
		for _, tag := range draft.Tags {
			tag = strings.TrimSpace(tag)
			if tag != "" && utf8.RuneCountInString(tag) <= constants.MaxTagLength {
				tags = append(tags, tag)
			}
		}
		draft.Tags = tags

		valid = append(valid, draft)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

func (s *TaskService) ensureUserExists(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrAssigneeNotFound
	}
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	if !exists {
		return ErrAssigneeNotFound
	}
	return nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > constants.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// futureDueDate returns the due date in UTC, rejecting anything not after now.
func futureDueDate(dueDate *time.Time, now time.Time) (*time.Time, error) {
	if dueDate == nil {
		return nil, nil
	}
	if !dueDate.After(now) {
		return nil, ErrDueDateNotFuture
	}
	utc := dueDate.UTC()
	return &utc, nil
}

func normalizeTags(raw []string) ([]string, error) {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > constants.MaxTagLength {
			return nil, ErrTagTooLong
		}
		if _, exists := seen[tag]; exists {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags, nil
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
