package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// taskUpdateColumns are the columns an update may change. created_by is
// deliberately absent: the creator is fixed at creation time.
var taskUpdateColumns = []string{
	"title",
	"description",
	"status",
	"priority",
	"due_date",
	"completed_at",
	"tags",
	"assigned_to",
}

const priorityRank = "CASE tasks.priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 WHEN 'urgent' THEN 4 ELSE 0 END"

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db, now: time.Now}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	task.NormalizeCompletion(r.now())
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindVisible finds a task by ID within the viewer's visibility
func (r *GormTaskRepository) FindVisible(ctx context.Context, id, viewerID string) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Preload("AssignedTo").
		Preload("CreatedBy").
		Scopes(database.VisibleTo(viewerID)).
		Where("tasks.id = ?", id).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.VisibleTo(filter.ViewerID))

		if filter.Status != nil {
			query = query.Where("tasks.status = ?", *filter.Status)
		}
		if filter.Priority != nil {
			query = query.Where("tasks.priority = ?", *filter.Priority)
		}
		if filter.AssignedTo != "" {
			query = query.Where("tasks.assigned_to = ?", filter.AssignedTo)
		}
		if filter.CreatedBy != "" {
			query = query.Where("tasks.created_by = ?", filter.CreatedBy)
		}
		return query.Scopes(database.ContainsFold(filter.Search, "tasks.title", "tasks.description"))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := base()
	for _, order := range orderClauses(filter.SortBy, filter.SortDesc) {
		listQuery = listQuery.Order(order)
	}
	listQuery = listQuery.Scopes(database.Paginate(filter.Offset, filter.Limit))

	var tasks []models.Task
	if err := listQuery.Preload("AssignedTo").Preload("CreatedBy").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func orderClauses(field TaskSortField, desc bool) []string {
	dir := " ASC"
	if desc {
		dir = " DESC"
	}

	switch field {
	case SortByDueDate:
		// Tasks without a due date always sort last.
		return []string{"CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END", "tasks.due_date" + dir, "tasks.created_at DESC"}
	case SortByPriority:
		return []string{priorityRank + dir, "tasks.created_at DESC"}
	case SortByTitle:
		return []string{"tasks.title" + dir, "tasks.created_at DESC"}
	case SortByStatus:
		return []string{"tasks.status" + dir, "tasks.created_at DESC"}
	case SortByUpdatedAt:
		return []string{"tasks.updated_at" + dir}
	default:
		return []string{"tasks.created_at" + dir}
	}
}

// Update saves the mutable columns of a task. The visibility predicate is
// part of the UPDATE itself, so a task that became invisible in the meantime
// is reported as not found.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task, viewerID string) error {
	if task.Tags == nil {
		task.Tags = []string{}
	}
	task.NormalizeCompletion(r.now())

	result := r.db.WithContext(ctx).
		Model(task).
		Scopes(database.VisibleTo(viewerID)).
		Select(taskUpdateColumns).
		Omit(clause.Associations).
		Updates(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOwned deletes a task only when the viewer created it
func (r *GormTaskRepository) DeleteOwned(ctx context.Context, id, viewerID string) error {
	result := r.db.WithContext(ctx).
		Scopes(database.CreatedBy(viewerID)).
		Where("tasks.id = ?", id).
		Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type groupCount struct {
	GroupKey string
	Count    int64
}

// Stats aggregates the viewer's visible tasks by status and priority
func (r *GormTaskRepository) Stats(ctx context.Context, viewerID string, now time.Time) (*TaskStats, error) {
	visible := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.VisibleTo(viewerID))
	}

	stats := &TaskStats{
		ByStatus:   make(map[models.TaskStatus]int64, len(models.TaskStatuses)),
		ByPriority: make(map[models.TaskPriority]int64, len(models.TaskPriorities)),
	}
	for _, s := range models.TaskStatuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range models.TaskPriorities {
		stats.ByPriority[p] = 0
	}

	var byStatus []groupCount
	if err := visible().
		Select("tasks.status AS group_key, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[models.TaskStatus(row.GroupKey)] = row.Count
		stats.Total += row.Count
	}

	var byPriority []groupCount
	if err := visible().
		Select("tasks.priority AS group_key, COUNT(*) AS count").
		Group("tasks.priority").
		Scan(&byPriority).Error; err != nil {
		return nil, err
	}
	for _, row := range byPriority {
		stats.ByPriority[models.TaskPriority(row.GroupKey)] = row.Count
	}

	if err := visible().
		Where("tasks.due_date < ?", now).
		Where("tasks.status NOT IN ?", []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled}).
		Count(&stats.Overdue).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
