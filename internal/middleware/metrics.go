package middleware

import (
	"strconv"
	"time"

	"github.com/deppfellow/cohorts-heatmap/internal/metrics"
	"github.com/labstack/echo/v4"
)

// unmatchedRoute labels requests that hit no registered route, keeping
// arbitrary URLs out of the label set.
const unmatchedRoute = "unmatched"

// MetricsMiddleware records request counts and latency per route template.
type MetricsMiddleware struct{}

func NewMetricsMiddleware() *MetricsMiddleware {
	return &MetricsMiddleware{}
}

func (mm *MetricsMiddleware) Observe() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" || route == "/*" {
				route = unmatchedRoute
			}
			status := statusFromError(err, c.Response().Status)

			metrics.ObserveRequest(route, c.Request().Method, strconv.Itoa(status), time.Since(start))

			return err
		}
	}
}
