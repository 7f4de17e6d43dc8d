package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanu276140-eng/examsk24/internal/resource"
	"github.com/sanu276140-eng/examsk24/internal/response"
)

// DashboardHandler serves the admin dashboard statistics.
type DashboardHandler struct {
	dashboard *resource.DashboardManager
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *resource.DashboardManager) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetStats godoc
// GET /api/v1/admin/dashboard
// Returns entity counts, today's activity count and the recent activity feed.
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		failStore(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
