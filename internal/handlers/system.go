package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/catalog"
	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogHandler serves the selectable options
type CatalogHandler struct {
	Catalog *catalog.Catalog
}

// GetCatalog handles GET /api/catalog
// @Summary Catalog
// @Description Port types, roles, the color palette, voting windows and the grid size
// @Tags Catalog
// @Produce json
// @Success 200 {object} catalog.Catalog
// @Router /catalog [get]
func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, h.Catalog, fiber.StatusOK)
}

// HealthHandler reports collaborator health
type HealthHandler struct {
	Config   *config.Config
	DB       *gorm.DB
	Sessions *session.Store
	Authz    *services.Authorizer
	Log      *zap.Logger
}

// Health handles GET /api/health
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} services.HealthCheckResult
// @Failure 503 {object} services.HealthCheckResult
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	result := services.HealthCheck(c.UserContext(), h.Config, h.DB, h.Sessions, h.Authz, h.Log)
	status := fiber.StatusOK
	if result.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}
	return utils.SuccessResponse(c, result, status)
}
