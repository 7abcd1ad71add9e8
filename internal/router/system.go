package router

import (
	"github.com/deppfellow/cohorts-heatmap/internal/handler"
	"github.com/deppfellow/cohorts-heatmap/internal/metrics"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of the report.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	r.GET("/docs", h.OpenAPI.ServeOpenAPI)
}
