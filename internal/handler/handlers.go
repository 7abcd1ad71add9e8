package handler

import (
	"github.com/deppfellow/cohorts-heatmap/internal/server"
	"github.com/deppfellow/cohorts-heatmap/internal/service"
)

// Handlers is a container that groups all HTTP handlers.
type Handlers struct {
	Cohort  *CohortHandler
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Cohort:  NewCohortHandler(s, services.Cohort),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
