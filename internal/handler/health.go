package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/cohorts-heatmap/internal/metrics"
	"github.com/deppfellow/cohorts-heatmap/internal/middleware"
	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthCheckTimeout bounds the database ping of one health check.
const HealthCheckTimeout = 5 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler exposes GET /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
	db Pinger
}

// NewHealthHandler checks s.DB.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return NewHealthHandlerWithPinger(s, s.DB)
}

func NewHealthHandlerWithPinger(s *server.Server, db Pinger) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
		db:      db,
	}
}

// CheckHealth returns 200 when the database answers a ping, 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
	}
	checks := map[string]any{}
	response["checks"] = checks

	ctx, cancel := context.WithTimeout(c.Request().Context(), HealthCheckTimeout)
	defer cancel()

	dbStart := time.Now()
	err := h.db.Ping(ctx)
	dbDuration := time.Since(dbStart)
	metrics.ObserveDBPing(dbDuration)

	if err != nil {
		checks["database"] = map[string]any{
			"status":        "unhealthy",
			"response_time": dbDuration.String(),
			"error":         err.Error(),
		}
		response["status"] = "unhealthy"

		logger.Error().
			Err(err).
			Dur("response_time", dbDuration).
			Dur("total_duration", time.Since(start)).
			Msg("database health check failed")

		if app := h.server.LoggerService.GetApplication(); app != nil {
			app.RecordCustomEvent("HealthCheckError", map[string]any{
				"check_type":       "database",
				"operation":        "health_check",
				"error_type":       "database_unhealthy",
				"response_time_ms": dbDuration.Milliseconds(),
				"error_message":    err.Error(),
			})
		}

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	checks["database"] = map[string]any{
		"status":        "healthy",
		"response_time": dbDuration.String(),
	}

	logger.Debug().
		Dur("response_time", dbDuration).
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}
