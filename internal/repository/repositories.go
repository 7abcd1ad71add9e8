// Package repository handles all interactions with the database.
//
// It contains the raw SQL of the report and maps rows into model types,
// keeping SQL away from the service layer.
package repository

import (
	"github.com/deppfellow/cohorts-heatmap/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Cohort *CohortRepository
}

// NewRepositories constructs the repository container on top of s.DB.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Cohort: NewCohortRepository(s.DB, s.Logger, s.Config.Observability.SlowQueryThreshold),
	}
}
