// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as request ids, request logging, metrics, tracing, CORS
// and panic recovery, plus the global error handler.
package middleware

import (
	"net/http"

	"github.com/deppfellow/cohorts-heatmap/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// statusFromError returns the status the global error handler will write
// for err, or fallback when err is nil.
//
// Echo has not written the final status yet when a handler returns an
// error, so loggers and collectors derive it here.
// See https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
func statusFromError(err error, fallback int) int {
	if err == nil {
		return fallback
	}

	var httpErr *errs.HTTPError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &echoErr):
		return echoErr.Code
	default:
		return http.StatusInternalServerError
	}
}
