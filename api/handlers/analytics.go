package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ExoPexodus/crimson-cloud-command/pkg/database/queries"
)

// systemAnalyticsWindow bounds how far back "current" pool state is
// trusted when aggregating the fleet view.
const systemAnalyticsWindow = 10 * time.Minute

type AnalyticsHandler struct {
	analyticsRepo *queries.AnalyticsRepository
}

func NewAnalyticsHandler(analyticsRepo *queries.AnalyticsRepository) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsRepo: analyticsRepo}
}

// System returns the fleet-wide aggregate: active nodes, pools,
// instance totals and utilization averages.
func (h *AnalyticsHandler) System(c *gin.Context) {
	summary, err := h.analyticsRepo.SystemSummary(c.Request.Context(), systemAnalyticsWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate system analytics"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
