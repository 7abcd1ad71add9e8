package service

import (
	"context"

	"github.com/deppfellow/cohorts-heatmap/internal/model/cohort"
	"github.com/rs/zerolog"
)

// CohortStore is the data access the cohort service needs.
// *repository.CohortRepository implements it.
type CohortStore interface {
	FetchCohortMetrics(ctx context.Context, filter cohort.MetricsFilter) ([]cohort.PeriodMetric, error)
	FetchDateRange(ctx context.Context) (cohort.DateRange, error)
}

type CohortService struct {
	logger *zerolog.Logger
	store  CohortStore
}

func NewCohortService(logger *zerolog.Logger, store CohortStore) *CohortService {
	return &CohortService{logger: logger, store: store}
}

// GetMetrics returns the report rows for filter. The result is never nil
// on success.
func (s *CohortService) GetMetrics(ctx context.Context, filter cohort.MetricsFilter) ([]cohort.PeriodMetric, error) {
	metrics, err := s.store.FetchCohortMetrics(ctx, filter)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = []cohort.PeriodMetric{}
	}

	s.logger.Debug().
		Int("filters", filter.Active()).
		Int("records", len(metrics)).
		Msg("cohort metrics fetched")

	return metrics, nil
}

// GetDateRange returns the span of period dates.
func (s *CohortService) GetDateRange(ctx context.Context) (cohort.DateRange, error) {
	return s.store.FetchDateRange(ctx)
}
