package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/Assessa/internal/service"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SystemController struct {
	proctoring service.ProctoringService
	db         *gorm.DB
}

func NewSystemController(proctoring service.ProctoringService, db *gorm.DB) *SystemController {
	return &SystemController{proctoring: proctoring, db: db}
}

// ProctoringStatus godoc
// @Summary Proctoring service status
// @Description Probes the external proctoring service health endpoint.
// @Tags System
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ProctoringStatusResponse
// @Failure 503 {object} dto.ErrorResponse "Proctoring service is not available"
// @Router /proctoring/status [get]
func (c *SystemController) ProctoringStatus(ctx *gin.Context) {
	resp, err := c.proctoring.Status(ctx.Request.Context())
	if err != nil {
		RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// Health reports liveness and whether the database answers a ping.
func (c *SystemController) Health(ctx *gin.Context) {
	status, code := "ok", http.StatusOK
	if c.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := c.db.DB()
		if err == nil {
			err = sqlDB.PingContext(pingCtx)
		}
		if err != nil {
			log.Warn().Err(err).Msg("Health check: database ping failed")
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	ctx.JSON(code, gin.H{"status": status, "time": time.Now().UTC()})
}
