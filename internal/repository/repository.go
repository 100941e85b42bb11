package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/task-manager-api/internal/models"
)

var (
	// ErrDuplicateUser is returned when an insert or update violates the
	// unique email or username index.
	ErrDuplicateUser = errors.New("user repository: duplicate email or username")
)

// TaskRepository defines the interface for task data access.
// Every read and write is scoped to a viewer: tasks outside the viewer's
// visibility behave exactly like missing rows (gorm.ErrRecordNotFound).
type TaskRepository interface {
	// Create normalizes and inserts a new task
	Create(ctx context.Context, task *models.Task) error

	// FindVisible finds a task the viewer created or is assigned to
	FindVisible(ctx context.Context, id, viewerID string) (*models.Task, error)

	// List retrieves visible tasks with filtering, sorting and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update normalizes and saves a task the viewer created or is assigned to
	Update(ctx context.Context, task *models.Task, viewerID string) error

	// DeleteOwned hard deletes a task created by the viewer
	DeleteOwned(ctx context.Context, id, viewerID string) error

	// Stats aggregates the viewer's visible tasks
	Stats(ctx context.Context, viewerID string, now time.Time) (*TaskStats, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ViewerID   string
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	AssignedTo string
	CreatedBy  string
	Search     string
	SortBy     TaskSortField
	SortDesc   bool
	Offset     int
	Limit      int
}

// TaskSortField names a sortable task attribute.
type TaskSortField string

const (
	SortByCreatedAt TaskSortField = "createdAt"
	SortByUpdatedAt TaskSortField = "updatedAt"
	SortByDueDate   TaskSortField = "dueDate"
	SortByPriority  TaskSortField = "priority"
	SortByTitle     TaskSortField = "title"
	SortByStatus    TaskSortField = "status"
)

// TaskStats holds task counts for one viewer.
type TaskStats struct {
	Total      int64
	ByStatus   map[models.TaskStatus]int64
	ByPriority map[models.TaskPriority]int64
	Overdue    int64
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create inserts a new user; unique violations yield ErrDuplicateUser
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByEmailOrUsername finds any user holding the email or the username
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)

	// Exists reports whether a user with the ID exists
	Exists(ctx context.Context, id string) (bool, error)

	// UpdateFields updates the given columns of a user
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error

	// SearchActive lists active users matching the filter
	SearchActive(ctx context.Context, filter UserFilter) ([]models.User, int64, error)

	// TaskStats counts tasks related to a user
	TaskStats(ctx context.Context, userID string) (*UserTaskStats, error)
}

// UserFilter holds filtering options for searching users
type UserFilter struct {
	Search string
	Offset int
	Limit  int
}

// UserTaskStats holds task counts for one user.
type UserTaskStats struct {
	AssignedTasks  int64
	CreatedTasks   int64
	CompletedTasks int64
}
