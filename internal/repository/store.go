// Package repository declares the persistence contracts of the planning core.
// The postgres package is the production implementation; the memory package
// backs local runs and tests.
package repository

import (
	"context"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// WeekStore persists planning weeks.
type WeekStore interface {
	// CreateWeek inserts week and its records atomically. It fails with a
	// conflict when the week name is taken.
	CreateWeek(ctx context.Context, week *models.Week, records []models.PlanningRecord) error
	FindWeek(ctx context.Context, name string) (*models.Week, error)
	ListWeeks(ctx context.Context) ([]models.Week, error)
	// DeleteWeek removes the week, its records and their reports.
	DeleteWeek(ctx context.Context, name string) error
}

// PlanningStore persists planning records.
type PlanningStore interface {
	FindPlanning(ctx context.Context, key models.PlanningKey) (*models.PlanningRecord, error)
	// FindPlanningForUpdate is FindPlanning holding a row lock until the
	// surrounding transaction ends.
	FindPlanningForUpdate(ctx context.Context, key models.PlanningKey) (*models.PlanningRecord, error)
	ListPlanning(ctx context.Context, filter models.PlanningFilter) ([]models.PlanningRecord, error)
	CreatePlanning(ctx context.Context, record *models.PlanningRecord) error
	SavePlanning(ctx context.Context, record *models.PlanningRecord) error
	// DeletePlanning removes the record and its report.
	DeletePlanning(ctx context.Context, key models.PlanningKey) error
}

// NonConformityStore persists non-conformity reports, at most one per planning record.
type NonConformityStore interface {
	FindNonConformity(ctx context.Context, planningID uint) (*models.NonConformity, error)
	// NonConformitiesByPlanning batch-loads the reports of the given records.
	NonConformitiesByPlanning(ctx context.Context, planningIDs []uint) (map[uint]models.NonConformity, error)
	SaveNonConformity(ctx context.Context, report *models.NonConformity) error
	DeleteNonConformity(ctx context.Context, planningID uint) error
}

// Store is the transactional unit of work used by the services.
type Store interface {
	WeekStore
	PlanningStore
	NonConformityStore

	// Atomic runs fn inside one transaction. Any error returned by fn rolls
	// the transaction back.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}

// CatalogLookup resolves catalog data owned by another service.
type CatalogLookup interface {
	CycleTime(ctx context.Context, line, reference string) (float64, error)
	PhaseExists(ctx context.Context, line, phase string) (bool, error)
	Pairs(ctx context.Context) ([]models.CatalogPair, error)
}
