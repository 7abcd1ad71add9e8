// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API routes,
// mapping specific paths to their corresponding handlers
package router

import (
	"net/http"

	"github.com/deppfellow/cohorts-heatmap/internal/errs"
	"github.com/deppfellow/cohorts-heatmap/internal/handler"
	"github.com/deppfellow/cohorts-heatmap/internal/middleware"
	"github.com/deppfellow/cohorts-heatmap/internal/model/cohort"
	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with the global middleware chain,
// the error handler and every route.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Metrics.Observe(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
	)

	registerSystemRoutes(router, h)
	registerCohortRoutes(router, h)

	return router
}

// registerCohortRoutes mounts the report endpoints with and without the
// trailing slash. Echo answers unregistered verbs with 405 before any handler
// runs. OPTIONS is registered explicitly because Echo would otherwise reply
// 204; real preflights are answered by the CORS middleware first.
func registerCohortRoutes(r *echo.Echo, h *handler.Handlers) {
	metrics := handler.Handle(
		h.Cohort.Handler,
		h.Cohort.GetCohortMetrics,
		http.StatusOK,
		func() *cohort.MetricsRequest { return &cohort.MetricsRequest{} },
	)
	dateRange := handler.Handle(
		h.Cohort.Handler,
		h.Cohort.GetDateRange,
		http.StatusOK,
		func() *cohort.DateRangeRequest { return &cohort.DateRangeRequest{} },
	)

	for _, path := range []string{"/cohorts_data/", "/cohorts_data"} {
		r.GET(path, metrics)
		r.OPTIONS(path, methodNotAllowed)
	}
	for _, path := range []string{"/cohorts_date_range/", "/cohorts_date_range"} {
		r.GET(path, dateRange)
		r.OPTIONS(path, methodNotAllowed)
	}
}

func methodNotAllowed(echo.Context) error {
	return errs.NewMethodNotAllowedError()
}
