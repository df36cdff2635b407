package obs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandlers exposes the liveness and readiness endpoints. Ready should
// reach the reservation store; a rental API that cannot read listings is not
// ready to take bookings.
type HealthHandlers struct {
	Ready func() error
}

// Livez answers as long as the process is serving requests.
func (h HealthHandlers) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz runs the readiness check and reports 503 with the failure until the
// store answers again.
func (h HealthHandlers) Readyz(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
