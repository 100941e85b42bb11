package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/middleware"
	"github.com/yukikurage/task-manager-api/internal/observability/metrics"
	"github.com/yukikurage/task-manager-api/internal/services"
	"gorm.io/gorm"
)

// RouterDeps carries everything the HTTP layer is built from.
type RouterDeps struct {
	DB          *gorm.DB
	Logger      *slog.Logger
	Tokens      middleware.TokenVerifier
	AuthService *services.AuthService
	TaskService *services.TaskService
	UserService *services.UserService
}

// NewRouter wires handlers, middleware and routes onto a fresh engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestLogger(deps.Logger),
		metrics.Middleware(),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			deps.Logger.Error("panic recovered",
				slog.String("route", c.FullPath()),
				slog.Any("panic", recovered),
			)
			apierrors.InternalError(c, "")
		}),
	)
	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "Route not found")
	})

	authHandler := NewAuthHandler(deps.AuthService, deps.Logger)
	taskHandler := NewTaskHandler(deps.TaskService, deps.Logger)
	userHandler := NewUserHandler(deps.UserService, deps.Logger)
	healthHandler := NewHealthHandler(deps.DB, deps.Logger)

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.AuthService, deps.Logger)
	requireTask := middleware.RequireTaskAccess(deps.TaskService, deps.Logger)

	r.GET("/health", healthHandler.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/profile", requireAuth, authHandler.GetProfile)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
			auth.PUT("/change-password", requireAuth, authHandler.ChangePassword)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/stats", taskHandler.GetStats)
			tasks.POST("/suggestions", taskHandler.SuggestTasks)
			tasks.GET("/:id", requireTask, taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", userHandler.ListUsers)
			users.PUT("/deactivate", userHandler.Deactivate)
			users.GET("/:id", userHandler.GetUser)
			users.GET("/:id/tasks", userHandler.GetUserTasks)
		}
	}

	return r
}
