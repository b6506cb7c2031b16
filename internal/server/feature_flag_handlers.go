package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags handles GET /api/v1/feature-flags
// @Summary Feature flags
// @Description Flags as evaluated for the caller
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(callerID(c)))
}
