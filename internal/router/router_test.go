package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/cohorts-heatmap/internal/config"
	"github.com/deppfellow/cohorts-heatmap/internal/database"
	"github.com/deppfellow/cohorts-heatmap/internal/handler"
	loggerPkg "github.com/deppfellow/cohorts-heatmap/internal/logger"
	"github.com/deppfellow/cohorts-heatmap/internal/repository"
	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/deppfellow/cohorts-heatmap/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// fakeDB stands in for the pool. Each row is scanned positionally.
type fakeDB struct {
	acquireErr error
	queryErr   error
	rows       [][]any

	acquired int
	released int
	queries  []string
	args     [][]any
}

func (f *fakeDB) Dialect() database.Dialect { return database.Postgres }

func (f *fakeDB) Acquire(context.Context) (database.Conn, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired++
	return &fakeConn{db: f}, nil
}

type fakeConn struct{ db *fakeDB }

func (c *fakeConn) Query(_ context.Context, query string, args ...any) (database.Rows, error) {
	c.db.queries = append(c.db.queries, query)
	c.db.args = append(c.db.args, args)
	if c.db.queryErr != nil {
		return nil, c.db.queryErr
	}
	return &fakeRows{rows: c.db.rows}, nil
}

func (c *fakeConn) Release() { c.db.released++ }

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, v := range r.rows[r.pos-1] {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *float64:
			*d = v.(float64)
		case **time.Time:
			*d = v.(*time.Time)
		default:
			return fmt.Errorf("unsupported destination %T", dest[i])
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func eneroRow() []any {
	return []any{"Enero-2024", date("2024-01-01"), date("2024-01-31"), 1, date("2024-01-15"), 0.80, 40}
}

type testEnv struct {
	router *echo.Echo
	db     *fakeDB
}

func newTestEnv(t *testing.T, db *fakeDB, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Primary.Env = "test"
	if mutate != nil {
		mutate(cfg)
	}

	logger := zerolog.Nop()
	s := server.NewWithDatabase(cfg, &logger, &loggerPkg.LoggerService{}, nil)

	repo := repository.NewCohortRepository(db, &logger, 0)
	svc := service.NewCohortService(&logger, repo)

	h := &handler.Handlers{
		Cohort:  handler.NewCohortHandler(s, svc),
		Health:  handler.NewHealthHandlerWithPinger(s, fakePinger{}),
		OpenAPI: handler.NewOpenAPIHandler(s),
	}

	return &testEnv{router: NewRouter(s, h), db: db}
}

func (e *testEnv) do(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q is not a JSON object: %v", rec.Body.String(), err)
	}
	if len(body) != 1 {
		t.Fatalf("error body must have a single key, got %v", body)
	}
	msg, ok := body["error"]
	if !ok {
		t.Fatalf("missing error key in %v", body)
	}
	return msg
}

func TestCohortsData_QuincenaScenario(t *testing.T) {
	env := newTestEnv(t, &fakeDB{rows: [][]any{eneroRow()}}, nil)

	rec := env.do(http.MethodGet, "/cohorts_data/?quincena=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{{
		"nombre_cohorte":     "Enero-2024",
		"fecha_inicio":       "2024-01-01",
		"fecha_fin":          "2024-01-31",
		"quincena":           float64(1),
		"fecha":              "2024-01-15",
		"porcentaje_activas": 0.80,
		"cantidad_activas":   float64(40),
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("body = %v\nwant   %v", got, want)
	}

	if !reflect.DeepEqual(env.db.args[0], []any{"1"}) {
		t.Errorf("bound args = %#v", env.db.args[0])
	}
	if env.db.acquired != 1 || env.db.released != 1 {
		t.Errorf("acquired=%d released=%d", env.db.acquired, env.db.released)
	}
}

func TestCohortsData_WithoutTrailingSlash(t *testing.T) {
	env := newTestEnv(t, &fakeDB{}, nil)

	rec := env.do(http.MethodGet, "/cohorts_data")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
}

func TestCohortsData_EmptyResultIsArray(t *testing.T) {
	env := newTestEnv(t, &fakeDB{}, nil)

	rec := env.do(http.MethodGet, "/cohorts_data/?start_date=2099-01-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("body = %q, want []", rec.Body.String())
	}
}

func TestCohortsData_FilterCombinations(t *testing.T) {
	tests := []struct {
		query    string
		wantArgs []any
		wantSQL  string
	}{
		{query: "", wantArgs: []any{}, wantSQL: "WHERE 1=1\n"},
		{query: "?start_date=", wantArgs: []any{}, wantSQL: "WHERE 1=1\n"},
		{query: "?start_date=2024-01-01", wantArgs: []any{"2024-01-01"}, wantSQL: "cq.fecha >= $1"},
		{query: "?end_date=2024-02-01&quincena=", wantArgs: []any{"2024-02-01"}, wantSQL: "cq.fecha <= $1\n"},
		{
			query:    "?start_date=2024-01-01&end_date=2024-02-01",
			wantArgs: []any{"2024-01-01", "2024-02-01"},
			wantSQL:  "cq.fecha >= $1 AND cq.fecha <= $2",
		},
		{
			query:    "?quincena=2&start_date=2024-01-01&end_date=2024-02-01",
			wantArgs: []any{"2024-01-01", "2024-02-01", "2"},
			wantSQL:  "cq.fecha >= $1 AND cq.fecha <= $2 AND cq.quincena::text = $3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := newTestEnv(t, &fakeDB{}, nil)

			rec := env.do(http.MethodGet, "/cohorts_data/"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if !reflect.DeepEqual(env.db.args[0], tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", env.db.args[0], tt.wantArgs)
			}
			if !strings.Contains(env.db.queries[0], tt.wantSQL) {
				t.Errorf("query %q missing %q", env.db.queries[0], tt.wantSQL)
			}
		})
	}
}

func TestCohortsData_InjectionIsBound(t *testing.T) {
	env := newTestEnv(t, &fakeDB{}, nil)

	rec := env.do(http.MethodGet, "/cohorts_data/?quincena=1%3B%20DROP%20TABLE%20cohorts")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(env.db.queries[0], "DROP") {
		t.Fatalf("value interpolated into SQL: %q", env.db.queries[0])
	}
	if !reflect.DeepEqual(env.db.args[0], []any{"1; DROP TABLE cohorts"}) {
		t.Fatalf("args = %#v", env.db.args[0])
	}
}

func TestCohortsData_MethodNotAllowed(t *testing.T) {
	methods := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions, "PROPFIND"}
	for _, method := range methods {
		for _, path := range []string{"/cohorts_data/", "/cohorts_data", "/cohorts_date_range/"} {
			t.Run(method+" "+path, func(t *testing.T) {
				env := newTestEnv(t, &fakeDB{}, nil)

				rec := env.do(method, path)
				if rec.Code != http.StatusMethodNotAllowed {
					t.Fatalf("status = %d", rec.Code)
				}
				if msg := decodeError(t, rec); msg != "Método no permitido" {
					t.Fatalf("error = %q", msg)
				}
				if env.db.acquired != 0 || len(env.db.queries) != 0 {
					t.Fatalf("database touched: acquired=%d queries=%d", env.db.acquired, len(env.db.queries))
				}
			})
		}
	}
}

func TestCohortsData_PreflightIsAnsweredByCORS(t *testing.T) {
	env := newTestEnv(t, &fakeDB{}, func(cfg *config.Config) {
		cfg.Server.CORSAllowedOrigins = []string{"http://localhost:5173"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/cohorts_data/", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
	if env.db.acquired != 0 {
		t.Fatalf("database touched: acquired=%d", env.db.acquired)
	}
}

func TestCohortsData_BackendFailure(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

	tests := []struct {
		name         string
		db           *fakeDB
		wantReleased int
	}{
		{name: "connection refused", db: &fakeDB{acquireErr: refused}, wantReleased: 0},
		{name: "query error", db: &fakeDB{queryErr: errors.New(`relation "cohorts_quincenal" does not exist`)}, wantReleased: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.db, nil)

			rec := env.do(http.MethodGet, "/cohorts_data/")
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d", rec.Code)
			}

			msg := decodeError(t, rec)
			cause := tt.db.acquireErr
			if cause == nil {
				cause = tt.db.queryErr
			}
			if !strings.Contains(msg, cause.Error()) {
				t.Errorf("error %q does not carry %q", msg, cause)
			}
			if tt.db.released != tt.wantReleased || tt.db.acquired != tt.db.released {
				t.Errorf("acquired=%d released=%d, want released=%d", tt.db.acquired, tt.db.released, tt.wantReleased)
			}
		})
	}
}

func TestCohortsData_RedactedBackendFailure(t *testing.T) {
	db := &fakeDB{acquireErr: errors.New("password authentication failed for user \"report\"")}
	env := newTestEnv(t, db, func(cfg *config.Config) { cfg.Server.RedactErrors = true })

	rec := env.do(http.MethodGet, "/cohorts_data/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Internal Server Error" {
		t.Fatalf("error = %q", msg)
	}
}

func TestCohortsDateRange(t *testing.T) {
	db := &fakeDB{rows: [][]any{{date("2024-01-15"), date("2024-06-30")}}}
	env := newTestEnv(t, db, nil)

	rec := env.do(http.MethodGet, "/cohorts_date_range/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"min_fecha":"2024-01-15","max_fecha":"2024-06-30"}` {
		t.Fatalf("body = %s", got)
	}
	if db.released != 1 {
		t.Errorf("released = %d", db.released)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, &fakeDB{}, nil)

	rec := env.do(http.MethodGet, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "Route not found" {
		t.Fatalf("error = %q", msg)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t, &fakeDB{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/cohorts_data/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}

	rec = env.do(http.MethodGet, "/cohorts_data/")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("a request id should be generated")
	}
}

func TestSystemRoutes(t *testing.T) {
	env := newTestEnv(t, &fakeDB{}, nil)

	t.Run("docs", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/docs")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var doc map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("invalid OpenAPI JSON: %v", err)
		}
		paths, _ := doc["paths"].(map[string]any)
		if _, ok := paths["/cohorts_data/"]; !ok {
			t.Fatal("document does not describe /cohorts_data/")
		}
	})

	t.Run("metrics", func(t *testing.T) {
		env.do(http.MethodGet, "/cohorts_data/")

		rec := env.do(http.MethodGet, "/metrics")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `cohorts_http_requests_total{method="GET",route="/cohorts_data/",status="200"}`) {
			t.Fatal("request counter missing from exposition")
		}
	})
}
