package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/district-helpdesk/internal/observability"
)

// MetricsHandler exposes the in-memory counter snapshot.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot GET /metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
