package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness plus the backends this instance runs with.
type HealthHandler struct {
	upstreamConfigured bool
	cacheBackend       string
}

func NewHealthHandler(upstreamConfigured bool, cacheBackend string) *HealthHandler {
	return &HealthHandler{
		upstreamConfigured: upstreamConfigured,
		cacheBackend:       cacheBackend,
	}
}

// Handle processes the /health endpoint.
func (h *HealthHandler) Handle(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":              "healthy",
		"upstream_configured": h.upstreamConfigured,
		"cache":               h.cacheBackend,
	})
}
