package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/service"
	"github.com/telvia/crm-api/pkg/response"
)

// DashboardHandler exposes the overview endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Overview godoc
// @Summary Dashboard overview
// @Description Contract expiry counters, task counters, and recent activity
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.DashboardOverview
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview)
}
