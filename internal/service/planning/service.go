package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/metrics"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/domain/validation"
	"github.com/mamadbah2/prodtrack/internal/repository"
)

const dateLayout = "2006-01-02"

// InitWeekInput opens a planning week. Catalog is optional: when empty the
// pairs are read from the catalog lookup.
type InitWeekInput struct {
	Name      string               `json:"name" validate:"required,weekname"`
	StartDate string               `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string               `json:"endDate" validate:"required,datetime=2006-01-02"`
	CreatedBy string               `json:"-"`
	Catalog   []models.CatalogPair `json:"catalog" validate:"omitempty,unique,dive"`
}

// CreateRecordInput creates a single planning record.
type CreateRecordInput struct {
	models.PlanningKey
	PlannedQty  *int   `json:"plannedQty" validate:"omitempty,gte=0"`
	ModifiedQty *int   `json:"modifiedQty" validate:"omitempty,gte=0"`
	OrderRef    string `json:"orderRef" validate:"max=128"`
	Packaging   string `json:"packaging" validate:"max=64"`
}

// RecordPatch is the admin partial update. Nil fields are left untouched.
type RecordPatch struct {
	OrderRef           *string `json:"orderRef" validate:"omitempty,max=128"`
	PlannedQty         *int    `json:"plannedQty" validate:"omitempty,gte=0"`
	ModifiedQty        *int    `json:"modifiedQty" validate:"omitempty,gte=0"`
	DeclaredProduction *int    `json:"declaredProduction" validate:"omitempty,gte=0"`
	DeclaredWarehouse  *int    `json:"declaredWarehouse" validate:"omitempty,gte=0"`
	Packaging          *string `json:"packaging" validate:"omitempty,max=64"`
}

// Declaration is the supervisor update: declared output and, optionally, a
// revised demand.
type Declaration struct {
	ModifiedQty        *int `json:"modifiedQty" validate:"omitempty,gte=0"`
	DeclaredProduction *int `json:"declaredProduction" validate:"required,gte=0"`
}

// RecordView is a planning record with its inferred state.
type RecordView struct {
	models.PlanningRecord
	QuantitySource   int                  `json:"quantitySource"`
	State            models.PlanningState `json:"state"`
	HasNonConformity bool                 `json:"hasNonConformity"`
}

// Service maintains planning records and keeps their derived fields consistent.
type Service struct {
	store   repository.Store
	catalog repository.CatalogLookup
	logger  *zap.Logger
}

// NewService wires a planning service.
func NewService(store repository.Store, catalog repository.CatalogLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, catalog: catalog, logger: logger}
}

// InitWeek creates the week and one zeroed record per working day and catalog pair.
func (s *Service) InitWeek(ctx context.Context, in InitWeekInput) (*models.Week, int, error) {
	if err := validation.Struct(in); err != nil {
		return nil, 0, err
	}

	start, _ := time.Parse(dateLayout, in.StartDate)
	end, _ := time.Parse(dateLayout, in.EndDate)
	if end.Before(start) {
		return nil, 0, apperror.Invalid([]apperror.FieldError{{Field: "endDate", Rule: "gtefield=startDate", Value: in.EndDate}})
	}

	pairs := in.Catalog
	if len(pairs) == 0 {
		var err error
		pairs, err = s.catalog.Pairs(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("load catalog snapshot: %w", err)
		}
	}

	week := &models.Week{Name: in.Name, StartDate: start, EndDate: end, CreatedBy: in.CreatedBy}
	records := make([]models.PlanningRecord, 0, len(pairs)*len(models.WorkingDays))
	for _, day := range models.WorkingDays {
		for _, p := range pairs {
			records = append(records, models.PlanningRecord{
				WeekName:  in.Name,
				Day:       day,
				Line:      p.Line,
				Reference: p.Reference,
			})
		}
	}

	if err := s.store.CreateWeek(ctx, week, records); err != nil {
		return nil, 0, err
	}

	s.logger.Info("week initialized",
		zap.String("week", week.Name),
		zap.Int("records", len(records)),
		zap.String("created_by", week.CreatedBy))
	return week, len(records), nil
}

// GetWeek returns a week by name.
func (s *Service) GetWeek(ctx context.Context, name string) (*models.Week, error) {
	return s.store.FindWeek(ctx, name)
}

// ListWeeks returns every week ordered by start date.
func (s *Service) ListWeeks(ctx context.Context) ([]models.Week, error) {
	return s.store.ListWeeks(ctx)
}

// DeleteWeek removes a week with its records and their reports.
func (s *Service) DeleteWeek(ctx context.Context, name string) error {
	if err := s.store.DeleteWeek(ctx, name); err != nil {
		return err
	}
	s.logger.Info("week deleted", zap.String("week", name))
	return nil
}

// CreateRecord adds one planning record to an existing week.
func (s *Service) CreateRecord(ctx context.Context, in CreateRecordInput) (*models.PlanningRecord, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var created *models.PlanningRecord
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		if _, err := tx.FindWeek(ctx, in.Week); err != nil {
			return err
		}
		cycleTime, err := s.catalog.CycleTime(ctx, in.Line, in.Reference)
		if err != nil {
			return err
		}
		if _, err := tx.FindPlanning(ctx, in.PlanningKey); err == nil {
			return apperror.Conflict("planning record %s/%s/%s/%s already exists", in.Week, in.Day, in.Line, in.Reference)
		} else if apperror.KindOf(err) != apperror.KindNotFound {
			return err
		}

		rec := &models.PlanningRecord{
			WeekName:    in.Week,
			Day:         in.Day,
			Line:        in.Line,
			Reference:   in.Reference,
			OrderRef:    in.OrderRef,
			Packaging:   in.Packaging,
			PlannedQty:  deref(in.PlannedQty),
			ModifiedQty: deref(in.ModifiedQty),
		}
		applyPlanningFields(rec, cycleTime)
		applyProductionFields(rec)

		if err := tx.CreatePlanning(ctx, rec); err != nil {
			return err
		}
		created = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("planning record created", keyFields(created.Key())...)
	return created, nil
}

// GetRecord returns a planning record with its inferred state.
func (s *Service) GetRecord(ctx context.Context, key models.PlanningKey) (*RecordView, error) {
	rec, err := s.store.FindPlanning(ctx, key)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []models.PlanningRecord{*rec})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecords returns the records matching filter with their inferred state.
func (s *Service) ListRecords(ctx context.Context, filter models.PlanningFilter) ([]RecordView, error) {
	records, err := s.store.ListPlanning(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, records)
}

// UpdateByCriteria applies an admin patch to the record identified by key.
func (s *Service) UpdateByCriteria(ctx context.Context, key models.PlanningKey, patch RecordPatch) (*models.PlanningRecord, error) {
	if err := validation.Struct(struct {
		Key   models.PlanningKey `json:"key"`
		Patch RecordPatch        `json:"patch"`
	}{key, patch}); err != nil {
		return nil, err
	}

	return s.mutate(ctx, key, func(rec *models.PlanningRecord) {
		if patch.OrderRef != nil {
			rec.OrderRef = *patch.OrderRef
		}
		if patch.PlannedQty != nil {
			rec.PlannedQty = *patch.PlannedQty
		}
		if patch.ModifiedQty != nil {
			rec.ModifiedQty = *patch.ModifiedQty
		}
		if patch.DeclaredProduction != nil {
			rec.DeclaredProduction = *patch.DeclaredProduction
		}
		if patch.DeclaredWarehouse != nil {
			rec.DeclaredWarehouse = *patch.DeclaredWarehouse
		}
		if patch.Packaging != nil {
			rec.Packaging = *patch.Packaging
		}
	})
}

// UpdateDeclaredProduction records a supervisor declaration. Planned quantity
// and warehouse fields are out of reach on this path.
func (s *Service) UpdateDeclaredProduction(ctx context.Context, key models.PlanningKey, in Declaration) (*models.PlanningRecord, error) {
	if err := validation.Struct(struct {
		Key         models.PlanningKey `json:"key"`
		Declaration Declaration        `json:"declaration"`
	}{key, in}); err != nil {
		return nil, err
	}

	return s.mutate(ctx, key, func(rec *models.PlanningRecord) {
		if in.ModifiedQty != nil {
			rec.ModifiedQty = *in.ModifiedQty
		}
		rec.DeclaredProduction = *in.DeclaredProduction
	})
}

// DeleteRecord removes a planning record and its report.
func (s *Service) DeleteRecord(ctx context.Context, key models.PlanningKey) error {
	if err := s.store.DeletePlanning(ctx, key); err != nil {
		return err
	}
	s.logger.Info("planning record deleted", keyFields(key)...)
	return nil
}

// mutate locks the record, applies change and recomputes the derived fields.
// Planning fields need the cycle time and are refreshed only when the
// quantity source moved. A report only exists for a shortfall, so it is
// removed once the delta is no longer negative.
func (s *Service) mutate(ctx context.Context, key models.PlanningKey, change func(*models.PlanningRecord)) (*models.PlanningRecord, error) {
	var updated *models.PlanningRecord
	err := s.store.Atomic(ctx, func(tx repository.Store) error {
		rec, err := tx.FindPlanningForUpdate(ctx, key)
		if err != nil {
			return err
		}

		before := rec.QuantitySource()
		change(rec)

		if rec.QuantitySource() != before {
			cycleTime, err := s.cycleTimeFor(ctx, rec)
			if err != nil {
				return err
			}
			applyPlanningFields(rec, cycleTime)
		}
		applyProductionFields(rec)

		if err := tx.SavePlanning(ctx, rec); err != nil {
			return err
		}
		if rec.Delta >= 0 {
			err := tx.DeleteNonConformity(ctx, rec.ID)
			switch {
			case err == nil:
				s.logger.Info("non-conformity report cleared", append(keyFields(key), zap.Int("delta", rec.Delta))...)
			case !errors.Is(err, apperror.ErrNotFound):
				return err
			}
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("planning record updated", append(keyFields(key),
		zap.Int("quantity_source", updated.QuantitySource()),
		zap.Int("declared", updated.DeclaredProduction),
		zap.Int("delta", updated.Delta))...)
	return updated, nil
}

// cycleTimeFor skips the lookup when there is nothing to plan.
func (s *Service) cycleTimeFor(ctx context.Context, rec *models.PlanningRecord) (float64, error) {
	if rec.QuantitySource() <= 0 {
		return 0, nil
	}
	return s.catalog.CycleTime(ctx, rec.Line, rec.Reference)
}

func (s *Service) views(ctx context.Context, records []models.PlanningRecord) ([]RecordView, error) {
	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	reports, err := s.store.NonConformitiesByPlanning(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]RecordView, 0, len(records))
	for _, r := range records {
		_, has := reports[r.ID]
		views = append(views, RecordView{
			PlanningRecord:   r,
			QuantitySource:   r.QuantitySource(),
			State:            r.State(has),
			HasNonConformity: has,
		})
	}
	return views, nil
}

func applyPlanningFields(rec *models.PlanningRecord, cycleTime float64) {
	rec.PlannedHours, rec.OperatorCount = metrics.PlanningFields(rec.QuantitySource(), cycleTime)
}

func applyProductionFields(rec *models.PlanningRecord) {
	rec.Delta, rec.ProductionPercent = metrics.ProductionFields(rec.QuantitySource(), rec.DeclaredProduction)
}

func keyFields(key models.PlanningKey) []zap.Field {
	return []zap.Field{
		zap.String("week", key.Week),
		zap.String("day", string(key.Day)),
		zap.String("line", key.Line),
		zap.String("reference", key.Reference),
	}
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
