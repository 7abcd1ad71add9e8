package repository

import (
	"context"
	"time"

	"github.com/deppfellow/cohorts-heatmap/internal/database"
	"github.com/deppfellow/cohorts-heatmap/internal/metrics"
	"github.com/deppfellow/cohorts-heatmap/internal/model/cohort"
	"github.com/deppfellow/cohorts-heatmap/internal/sqlerr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Query names used in logs and metric labels.
const (
	queryCohortMetrics = "cohort_metrics"
	queryDateRange     = "cohort_date_range"
)

const cohortMetricsSelect = `SELECT c.nombre, c.fecha_inicio, c.fecha_fin, cq.quincena, cq.fecha, cq.porcentaje_activas, cq.cantidad_activas
FROM cohorts_quincenal cq
JOIN cohorts c ON cq.id_cohorte = c.id
WHERE `

const cohortMetricsOrder = `
ORDER BY c.id, cq.quincena`

const dateRangeSelect = `SELECT MIN(cq.fecha), MAX(cq.fecha) FROM cohorts_quincenal cq`

// CohortRepository reads the cohort retention report.
type CohortRepository struct {
	db        database.Acquirer
	logger    *zerolog.Logger
	slowQuery time.Duration
}

// NewCohortRepository builds a repository on db. Queries slower than
// slowQuery are logged as warnings; zero disables the warning.
func NewCohortRepository(db database.Acquirer, logger *zerolog.Logger, slowQuery time.Duration) *CohortRepository {
	return &CohortRepository{db: db, logger: logger, slowQuery: slowQuery}
}

// metricsPredicate turns the optional filters into WHERE clauses.
func metricsPredicate(filter cohort.MetricsFilter) *database.Predicate {
	p := database.Where().
		AndIf("cq.fecha", database.OpGte, filter.StartDate).
		AndIf("cq.fecha", database.OpLte, filter.EndDate)
	if filter.Quincena != nil {
		p.AndText("cq.quincena", database.OpEq, *filter.Quincena)
	}
	return p
}

// BuildCohortMetricsQuery returns the SQL and bind arguments for filter.
func BuildCohortMetricsQuery(d database.Dialect, filter cohort.MetricsFilter) (string, []any, error) {
	where, args, err := metricsPredicate(filter).Compile(d)
	if err != nil {
		return "", nil, err
	}
	return cohortMetricsSelect + where + cohortMetricsOrder, args, nil
}

// FetchCohortMetrics returns every period record matching filter, ordered
// by cohort then quincena. No match yields an empty slice.
//
// On failure no rows are returned.
func (r *CohortRepository) FetchCohortMetrics(ctx context.Context, filter cohort.MetricsFilter) ([]cohort.PeriodMetric, error) {
	query, args, err := BuildCohortMetricsQuery(r.db.Dialect(), filter)
	if err != nil {
		return nil, errors.Wrap(err, "build cohort metrics query")
	}

	start := time.Now()
	results, err := r.fetchCohortMetrics(ctx, query, args)
	r.observe(ctx, queryCohortMetrics, start, err, args)
	if err != nil {
		return nil, errors.Wrap(err, "fetch cohort metrics")
	}

	return results, nil
}

func (r *CohortRepository) fetchCohortMetrics(ctx context.Context, query string, args []any) ([]cohort.PeriodMetric, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]cohort.PeriodMetric, 0)
	for rows.Next() {
		var (
			m                      cohort.PeriodMetric
			cohortStart, cohortEnd *time.Time
			periodDate             *time.Time
		)
		if err := rows.Scan(
			&m.CohortName,
			&cohortStart,
			&cohortEnd,
			&m.Quincena,
			&periodDate,
			&m.ActivePercentage,
			&m.ActiveCount,
		); err != nil {
			return nil, err
		}

		m.CohortStart = cohort.NewDate(cohortStart)
		m.CohortEnd = cohort.NewDate(cohortEnd)
		m.Date = cohort.NewDate(periodDate)
		results = append(results, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// FetchDateRange returns the earliest and latest period dates.
func (r *CohortRepository) FetchDateRange(ctx context.Context) (cohort.DateRange, error) {
	start := time.Now()
	result, err := r.fetchDateRange(ctx)
	r.observe(ctx, queryDateRange, start, err, nil)
	if err != nil {
		return cohort.DateRange{}, errors.Wrap(err, "fetch cohort date range")
	}
	return result, nil
}

func (r *CohortRepository) fetchDateRange(ctx context.Context) (cohort.DateRange, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return cohort.DateRange{}, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, dateRangeSelect)
	if err != nil {
		return cohort.DateRange{}, err
	}
	defer rows.Close()

	var result cohort.DateRange
	if rows.Next() {
		var minDate, maxDate *time.Time
		if err := rows.Scan(&minDate, &maxDate); err != nil {
			return cohort.DateRange{}, err
		}
		result.Min = cohort.NewDate(minDate)
		result.Max = cohort.NewDate(maxDate)
	}

	if err := rows.Err(); err != nil {
		return cohort.DateRange{}, err
	}

	return result, nil
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (r *CohortRepository) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return r.logger
}

// observe records latency and, on failure, the classified error.
func (r *CohortRepository) observe(ctx context.Context, query string, start time.Time, err error, args []any) {
	elapsed := time.Since(start)
	metrics.ObserveQuery(query, elapsed)
	logger := r.loggerFor(ctx)

	if err != nil {
		kind := sqlerr.Classify(err)
		metrics.CountQueryError(query, kind.String())
		logger.Error().
			Err(err).
			Str("query", query).
			Str("kind", kind.String()).
			Str("driver", r.db.Dialect().Name()).
			Dur("duration", elapsed).
			Msg("database query failed")
		return
	}

	if r.slowQuery > 0 && elapsed > r.slowQuery {
		logger.Warn().
			Str("query", query).
			Int("args", len(args)).
			Dur("duration", elapsed).
			Dur("threshold", r.slowQuery).
			Msg("slow database query")
	}
}
