package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/task-manager-api/internal/constants"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/observability/metrics"
	"github.com/yukikurage/task-manager-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrUserNotFound       = errors.New("user not found")
	ErrFailedToHash       = errors.New("failed to hash password")
	ErrFailedToIssueToken = errors.New("failed to issue token")
	ErrNoProfileChanges   = errors.New("no profile fields to update")
)

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer issues session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user and logs them in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if err := checkPasswordLength(input.Password); err != nil {
		return nil, "", err
	}

	if _, err := s.userRepo.FindByEmailOrUsername(ctx, email, username); err == nil {
		metrics.ObserveAuthEvent("register", metrics.ResultRejected)
		s.logger.Info("registration rejected: identity taken", slog.String("username", username))
		return nil, "", ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFailedToHash, err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			// Lost a race with a concurrent registration.
			metrics.ObserveAuthEvent("register", metrics.ResultRejected)
			s.logger.Info("registration rejected: unique index", slog.String("username", username))
			return nil, "", ErrUserExists
		}
		metrics.ObserveAuthEvent("register", metrics.ResultFailure)
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	metrics.ObserveAuthEvent("register", metrics.ResultSuccess)
	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user with a fresh token.
// Unknown emails and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.ObserveAuthEvent("login", metrics.ResultRejected)
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		metrics.ObserveAuthEvent("login", metrics.ResultRejected)
		s.logger.Warn("login failed: bad password", slog.String("user_id", user.ID))
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.ObserveAuthEvent("login", metrics.ResultRejected)
		s.logger.Warn("login refused: account deactivated", slog.String("user_id", user.ID))
		return nil, "", ErrAccountDeactivated
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		return nil, "", fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &now

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	metrics.ObserveAuthEvent("login", metrics.ResultSuccess)
	return user, token, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds the profile fields a user may change.
// Nil fields are left untouched; an empty avatar removes it.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Avatar    *string
}

// UpdateProfile changes the caller's display fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	fields := make(map[string]interface{}, 3)
	if input.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Avatar != nil {
		if avatar := strings.TrimSpace(*input.Avatar); avatar != "" {
			fields["avatar"] = avatar
		} else {
			fields["avatar"] = nil
		}
	}
	if len(fields) == 0 {
		return nil, ErrNoProfileChanges
	}

	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		metrics.ObserveAuthEvent("change_password", metrics.ResultRejected)
		s.logger.Warn("password change refused: wrong current password", slog.String("user_id", userID))
		return ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToHash, err)
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	metrics.ObserveAuthEvent("change_password", metrics.ResultSuccess)
	s.logger.Info("password changed", slog.String("user_id", userID))
	return nil
}

func (s *AuthService) issueToken(userID string) (string, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFailedToIssueToken, err)
	}
	return token, nil
}

// checkPasswordLength bounds a password in bytes; bcrypt refuses input over 72 bytes.
func checkPasswordLength(password string) error {
	if len(password) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > constants.MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
