package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	counter := HTTPRequests.WithLabelValues("/cohorts_data/", "GET", "200")
	before := testutil.ToFloat64(counter)

	ObserveRequest("/cohorts_data/", "GET", "200", 15*time.Millisecond)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("counter = %v, want %v", got, before+1)
	}
}

func TestCountQueryError(t *testing.T) {
	CountQueryError("cohort_metrics", "connection")
	CountQueryError("cohort_metrics", "connection")

	if got := testutil.ToFloat64(QueryErrors.WithLabelValues("cohort_metrics", "connection")); got < 2 {
		t.Fatalf("errors = %v", got)
	}
}

func TestCollectorsRegistered(t *testing.T) {
	ObserveQuery("cohort_metrics", time.Millisecond)
	ObserveDBPing(time.Millisecond)

	if n := testutil.CollectAndCount(QueryDuration, "cohorts_db_query_duration_seconds"); n == 0 {
		t.Fatal("query histogram has no series")
	}
	if n := testutil.CollectAndCount(DBPing, "cohorts_db_ping_seconds"); n != 1 {
		t.Fatalf("ping histogram series = %d", n)
	}
}
