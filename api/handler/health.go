package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shelfscrape/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports degraded when more scrapes are running than degradeAt.
func Health(tr *Tracker, degradeAt int, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		inFlight := tr.InFlight()

		status := "healthy"
		if degradeAt > 0 && inFlight > degradeAt {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			InFlight: inFlight,
			Version:  Version,
		})
	}
}
