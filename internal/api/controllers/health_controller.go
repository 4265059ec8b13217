package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"subtrack/internal/infra"
	"subtrack/pkg/metrics"
	"subtrack/pkg/utils"
)

type HealthController struct {
	db      *gorm.DB
	metrics *metrics.Collector
}

func NewHealthController(db *gorm.DB, m *metrics.Collector) *HealthController {
	return &HealthController{db: db, metrics: m}
}

// Health godoc
// @Summary Liveness and database check
// @Tags Health
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Router /health [get]
func (h *HealthController) Health(c *gin.Context) {
	if err := infra.Ping(c.Request.Context(), h.db); err != nil {
		utils.RespondError(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	utils.RespondSuccess(c, gin.H{"status": "ok"}, "")
}

// Metrics serves the Prometheus exposition.
func (h *HealthController) Metrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
