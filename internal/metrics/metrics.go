// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cohorts"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"route", "method", "status"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
	QueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_query_duration_seconds", Help: "Report query latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})
	QueryErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "db_query_errors_total", Help: "Failed report queries by error kind",
	}, []string{"query", "kind"})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration, QueryDuration, QueryErrors, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveRequest(route, method, status string, d time.Duration) {
	HTTPRequests.WithLabelValues(route, method, status).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func ObserveQuery(query string, d time.Duration) {
	QueryDuration.WithLabelValues(query).Observe(d.Seconds())
}

func CountQueryError(query, kind string) { QueryErrors.WithLabelValues(query, kind).Inc() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
