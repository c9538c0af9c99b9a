package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caster-store/internal/domain/dashboard"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
)

// DashboardHandler serves admin statistics
type DashboardHandler struct {
	dashboardService *dashboard.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(stats *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboardService: stats}
}

// GetStats handles GET /admin/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboardService.GetStats(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Dashboard statistics retrieved successfully", stats)
}
