package handler

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/labstack/echo/v4"
)

//go:embed static/openapi.json
var openAPIDocument []byte

// OpenAPIHandler serves the OpenAPI description of the HTTP surface.
type OpenAPIHandler struct {
	Handler
}

func NewOpenAPIHandler(s *server.Server) *OpenAPIHandler {
	return &OpenAPIHandler{
		Handler: NewHandler(s),
	}
}

// ServeOpenAPI writes the embedded document. Caching is disabled so a
// redeploy is visible immediately.
func (h *OpenAPIHandler) ServeOpenAPI(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-cache")

	if err := c.Blob(http.StatusOK, echo.MIMEApplicationJSON, openAPIDocument); err != nil {
		return fmt.Errorf("failed to write OpenAPI document: %w", err)
	}

	return nil
}
