package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"github.com/yukikurage/task-manager-api/internal/utils"
	"gorm.io/gorm"
)

// UserService handles user directory and account lifecycle logic.
type UserService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	logger   *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, taskRepo repository.TaskRepository, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// SearchUsers lists active users whose names or email match search
func (s *UserService) SearchUsers(ctx context.Context, search string, page utils.PaginationParams) ([]models.User, int64, error) {
	users, total, err := s.userRepo.SearchActive(ctx, repository.UserFilter{
		Search: search,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	return users, total, nil
}

// GetUserWithStats returns a user together with their task counts.
// Deactivated users are still returned.
func (s *UserService) GetUserWithStats(ctx context.Context, userID string) (*models.User, *repository.UserTaskStats, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	stats, err := s.userRepo.TaskStats(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count user tasks: %w", err)
	}

	return user, stats, nil
}

// ListAssignedTasks returns the tasks assigned to userID that the viewer can see.
func (s *UserService) ListAssignedTasks(ctx context.Context, userID, viewerID string, page utils.PaginationParams) ([]models.Task, int64, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		ViewerID:   viewerID,
		AssignedTo: userID,
		SortBy:     repository.SortByCreatedAt,
		SortDesc:   true,
		Offset:     page.Offset,
		Limit:      page.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user tasks: %w", err)
	}
	return tasks, total, nil
}

// Deactivate switches the user's account off. Their tasks are left in place.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"is_active": false}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.Info("user deactivated", slog.String("user_id", userID))
	return nil
}

func (s *UserService) findUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
