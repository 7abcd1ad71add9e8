package handler

import (
	"context"

	"github.com/deppfellow/cohorts-heatmap/internal/model/cohort"
	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/labstack/echo/v4"
)

// CohortReader is the part of the cohort service the HTTP layer calls.
type CohortReader interface {
	GetMetrics(ctx context.Context, filter cohort.MetricsFilter) ([]cohort.PeriodMetric, error)
	GetDateRange(ctx context.Context) (cohort.DateRange, error)
}

type CohortHandler struct {
	Handler
	service CohortReader
}

func NewCohortHandler(s *server.Server, service CohortReader) *CohortHandler {
	return &CohortHandler{
		Handler: NewHandler(s),
		service: service,
	}
}

// GetCohortMetrics serves GET /cohorts_data/.
func (h *CohortHandler) GetCohortMetrics(c echo.Context, req *cohort.MetricsRequest) ([]cohort.PeriodMetric, error) {
	return h.service.GetMetrics(c.Request().Context(), req.Filter())
}

// GetDateRange serves GET /cohorts_date_range/.
func (h *CohortHandler) GetDateRange(c echo.Context, _ *cohort.DateRangeRequest) (cohort.DateRange, error) {
	return h.service.GetDateRange(c.Request().Context())
}
