package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/observability/metrics"
	"github.com/yukikurage/task-manager-api/internal/security"
	"github.com/yukikurage/task-manager-api/internal/services"
)

// TokenVerifier checks a bearer token and returns the user id it carries.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLoader loads the account behind a verified token.
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth checks the bearer token and loads the live, active user behind it
func RequireAuth(tokens TokenVerifier, users UserLoader, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := security.ExtractBearerToken(c.GetHeader(constants.AuthorizationHeader))
		if err != nil {
			apierrors.Unauthorized(c, "Access token required")
			return
		}

		userID, err := tokens.Verify(raw)
		if err != nil {
			metrics.ObserveAuthEvent("token", metrics.ResultRejected)
			if errors.Is(err, security.ErrExpiredToken) {
				apierrors.TokenExpired(c)
				return
			}
			apierrors.Unauthorized(c, "Invalid token")
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				apierrors.NotFound(c, "User not found")
				return
			}
			logger.Error("failed to load authenticated user",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			apierrors.InternalError(c, "")
			return
		}

		if !user.IsActive {
			apierrors.AccountDisabled(c)
			return
		}

		// Store the user in context for easy access in handlers
		c.Set(constants.ContextKeyUser, user)
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireAuth
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}
