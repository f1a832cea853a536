package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/smart-campus-api/services"
	"github.com/sahilchouksey/smart-campus-api/utils/middleware"
	"github.com/sahilchouksey/smart-campus-api/utils/response"
)

// DashboardHandler serves the role-specific dashboard
type DashboardHandler struct {
	dashboards *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboards *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "User not authenticated")
	}

	view, err := h.dashboards.BuildDashboard(c.UserContext(), user.ID, user.Role)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, view)
}
