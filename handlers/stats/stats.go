package stats

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/datalings/onthescales/services"
	"github.com/datalings/onthescales/utils/cache"
	"github.com/datalings/onthescales/utils/response"
)

// StatsHandler handles statistics requests
type StatsHandler struct {
	service *services.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(db *gorm.DB, statsCache *cache.RedisCache) *StatsHandler {
	return &StatsHandler{
		service: services.NewStatsService(db, statsCache),
	}
}

// GetDashboard handles GET /api/v1/stats/dashboard
func (h *StatsHandler) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute dashboard statistics")
	}
	return response.Success(c, dashboard)
}

// GetSummary handles GET /api/v1/stats/summary
func (h *StatsHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to compute summary statistics")
	}
	return response.Success(c, summary)
}
