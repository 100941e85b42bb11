package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/database"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	logger  *slog.Logger
	started time.Time
}

func NewHealthHandler(db *gorm.DB, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		logger:  logger,
		started: time.Now(),
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Check reports whether the service and its database are reachable
func (h *HealthHandler) Check(c *gin.Context) {
	uptime := time.Since(h.started).Round(time.Second).String()

	if err := database.Ping(h.db); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		apierrors.RespondWithError(c, http.StatusServiceUnavailable, apierrors.NewAPIErrorWithDetails(
			apierrors.ErrCodeServiceUnavailable,
			"Database unavailable",
			healthResponse{Status: "degraded", Database: "down", Uptime: uptime},
		))
		return
	}

	apierrors.OK(c, "Task Management API is running", healthResponse{
		Status:   "ok",
		Database: "up",
		Uptime:   uptime,
	})
}
