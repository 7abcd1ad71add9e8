package middleware

import (
	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups all middleware components used by the HTTP server,
// built once with their shared dependencies.
type Middlewares struct {
	// Global holds CORS, request logging, recovery, secure headers and the error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer puts a request-scoped logger on every request.
	ContextEnhancer *ContextEnhancer

	// Tracing wraps requests in New Relic transactions.
	Tracing *TracingMiddleware

	// Metrics feeds the Prometheus HTTP collectors.
	Metrics *MetricsMiddleware
}

// NewMiddlewares constructs all middleware components. When New Relic is
// not configured the tracing middleware degrades to a no-op.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		Metrics:         NewMetricsMiddleware(),
	}
}
