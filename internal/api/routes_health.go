package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/caseintake/internal/monitoring"
	"github.com/charlesng35/caseintake/pkg/response"
)

func registerHealthRoutes(r *gin.Engine, manager *monitoring.Manager) {
	handler := func(c *gin.Context) {
		report := manager.Evaluate(c.Request.Context())
		payload := gin.H{
			"status":     "ok",
			"checks":     report.Checks,
			"checked_at": time.Now().UTC(),
		}
		if !report.Healthy() {
			payload["status"] = report.Status
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    payload,
				Error:   "Service unavailable",
				Code:    "SERVICE_UNAVAILABLE",
			})
			return
		}
		response.Success(c, http.StatusOK, payload)
	}

	r.GET("/health", handler)
	r.GET("/api/health", handler)
}
