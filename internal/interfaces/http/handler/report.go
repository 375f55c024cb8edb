package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/salesledger/backend/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// ReportHandler exposes the daily report schedule and a manual trigger
type ReportHandler struct {
	BaseHandler
	trigger *scheduler.DailyTrigger
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(trigger *scheduler.DailyTrigger, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		trigger: trigger,
		logger:  logger,
	}
}

// RegisterRoutes registers report routes
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.POST("/run", h.TriggerRun)
		reports.GET("/schedule", h.GetSchedule)
	}
}

// TriggerRun handles POST /reports/run, firing the daily batch outside
// its schedule
func (h *ReportHandler) TriggerRun(c *gin.Context) {
	if err := h.trigger.TriggerManualRun(); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"status": "started"})
}

// GetSchedule handles GET /reports/schedule
func (h *ReportHandler) GetSchedule(c *gin.Context) {
	h.Success(c, gin.H{
		"next_run_at": h.trigger.GetNextRunAt(),
		"last_run_at": h.trigger.GetLastRunAt(),
	})
}
