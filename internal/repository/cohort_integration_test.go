//go:build testutil
// +build testutil

package repository_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/deppfellow/cohorts-heatmap/internal/model/cohort"
	"github.com/deppfellow/cohorts-heatmap/internal/repository"
	"github.com/deppfellow/cohorts-heatmap/internal/testutil/testdb"
	"github.com/rs/zerolog"
)

func seed(t *testing.T, ctx context.Context, h *testdb.Handle) {
	t.Helper()

	stmts := []string{
		`INSERT INTO cohorts (id, nombre, fecha_inicio, fecha_fin) VALUES
			(1, 'Enero-2024', '2024-01-01', '2024-06-30'),
			(2, 'Febrero-2024', '2024-02-01', NULL)`,
		`INSERT INTO cohorts_quincenal (id_cohorte, quincena, fecha, porcentaje_activas, cantidad_activas) VALUES
			(1, 1, '2024-01-15', 0.80, 40),
			(1, 2, '2024-01-31', 0.70, 35),
			(2, 1, '2024-02-15', 0.90, 18),
			(2, 2, '2024-02-29', 0.50, 10)`,
	}
	for _, stmt := range stmts {
		if err := h.Exec(ctx, stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func ptr(s string) *string { return &s }

func TestCohortRepository_Postgres(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	logger := zerolog.Nop()
	repo := repository.NewCohortRepository(h.DB, &logger, 0)

	t.Run("empty table", func(t *testing.T) {
		got, err := repo.FetchCohortMetrics(ctx, cohort.MetricsFilter{})
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("got %#v", got)
		}

		r, err := repo.FetchDateRange(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if r.Min != nil || r.Max != nil {
			t.Fatalf("range = %+v, want both nil", r)
		}
	})

	seed(t, ctx, h)

	tests := []struct {
		name   string
		filter cohort.MetricsFilter
		want   []string // nombre/quincena pairs in order
	}{
		{name: "no filters", want: []string{"Enero-2024/1", "Enero-2024/2", "Febrero-2024/1", "Febrero-2024/2"}},
		{name: "start date", filter: cohort.MetricsFilter{StartDate: ptr("2024-01-31")}, want: []string{"Enero-2024/2", "Febrero-2024/1", "Febrero-2024/2"}},
		{name: "end date", filter: cohort.MetricsFilter{EndDate: ptr("2024-01-31")}, want: []string{"Enero-2024/1", "Enero-2024/2"}},
		{name: "quincena", filter: cohort.MetricsFilter{Quincena: ptr("2")}, want: []string{"Enero-2024/2", "Febrero-2024/2"}},
		{
			name:   "date range",
			filter: cohort.MetricsFilter{StartDate: ptr("2024-01-20"), EndDate: ptr("2024-02-20")},
			want:   []string{"Enero-2024/2", "Febrero-2024/1"},
		},
		{
			name:   "all three",
			filter: cohort.MetricsFilter{StartDate: ptr("2024-01-01"), EndDate: ptr("2024-02-20"), Quincena: ptr("1")},
			want:   []string{"Enero-2024/1", "Febrero-2024/1"},
		},
		{name: "start after all data", filter: cohort.MetricsFilter{StartDate: ptr("2030-01-01")}, want: []string{}},
		{name: "injection literal", filter: cohort.MetricsFilter{Quincena: ptr("1; DROP TABLE cohorts")}, want: []string{}},
		{name: "quote literal", filter: cohort.MetricsFilter{Quincena: ptr("1' OR '1'='1")}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FetchCohortMetrics(ctx, tt.filter)
			if err != nil {
				t.Fatalf("FetchCohortMetrics() error = %v", err)
			}

			keys := make([]string, 0, len(got))
			for _, m := range got {
				keys = append(keys, m.CohortName+"/"+strconv.Itoa(m.Quincena))
			}
			if len(keys) != len(tt.want) {
				t.Fatalf("got %v, want %v", keys, tt.want)
			}
			for i := range keys {
				if keys[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", keys, tt.want)
				}
			}
		})
	}

	t.Run("tables survive injection attempt", func(t *testing.T) {
		n, err := h.Count(ctx, "cohorts")
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Fatalf("cohorts rows = %d, want 2", n)
		}
	})

	t.Run("enero quincena 1 values", func(t *testing.T) {
		got, err := repo.FetchCohortMetrics(ctx, cohort.MetricsFilter{Quincena: ptr("1")})
		if err != nil {
			t.Fatal(err)
		}
		first := got[0]
		if first.CohortName != "Enero-2024" || first.ActivePercentage != 0.80 || first.ActiveCount != 40 {
			t.Fatalf("first = %+v", first)
		}
		if first.CohortStart.String() != "2024-01-01" || first.CohortEnd.String() != "2024-06-30" || first.Date.String() != "2024-01-15" {
			t.Fatalf("dates = %v %v %v", first.CohortStart, first.CohortEnd, first.Date)
		}
		if got[1].CohortEnd != nil {
			t.Fatalf("Febrero-2024 fecha_fin = %v, want nil", got[1].CohortEnd)
		}
	})

	t.Run("malformed date is a query error", func(t *testing.T) {
		got, err := repo.FetchCohortMetrics(ctx, cohort.MetricsFilter{StartDate: ptr("not-a-date")})
		if err == nil {
			t.Fatal("expected error")
		}
		if got != nil {
			t.Fatalf("partial rows: %v", got)
		}
	})

	t.Run("date range", func(t *testing.T) {
		r, err := repo.FetchDateRange(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if r.Min.String() != "2024-01-15" || r.Max.String() != "2024-02-29" {
			t.Fatalf("range = %v..%v", r.Min, r.Max)
		}
	})
}
