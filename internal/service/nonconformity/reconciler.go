package nonconformity

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/metrics"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/domain/validation"
	"github.com/mamadbah2/prodtrack/internal/repository"
)

// Tolerance is the largest accepted gap, in units, between the cause total
// and the shortfall it explains.
const Tolerance = 1.0

// epsilon keeps float sums such as 10.1+18.9 on the right side of Tolerance.
const epsilon = 1e-9

// Input is a 5M breakdown submitted for one planning record. Missing causes count as zero.
type Input struct {
	RawMaterial    *float64 `json:"rawMaterial" validate:"omitempty,gte=0"`
	Absence        *float64 `json:"absence" validate:"omitempty,gte=0"`
	YieldLoss      *float64 `json:"yieldLoss" validate:"omitempty,gte=0"`
	Maintenance    *float64 `json:"maintenance" validate:"omitempty,gte=0"`
	Quality        *float64 `json:"quality" validate:"omitempty,gte=0"`
	RawMaterialRef *string  `json:"rawMaterialRef" validate:"omitempty,max=128"`
	Comment        *string  `json:"comment"`
}

func (in Input) causes() models.Causes {
	return models.Causes{
		RawMaterial: value(in.RawMaterial),
		Absence:     value(in.Absence),
		YieldLoss:   value(in.YieldLoss),
		Maintenance: value(in.Maintenance),
		Quality:     value(in.Quality),
	}
}

// Reconciler links production shortfalls to their cause breakdown.
type Reconciler struct {
	store  repository.Store
	logger *zap.Logger
}

// NewReconciler wires a reconciler.
func NewReconciler(store repository.Store, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger}
}

// Reconcile validates the breakdown against the current delta of the record
// and creates, updates or deletes its report. The planning row stays locked
// from the delta read to the report write.
func (r *Reconciler) Reconcile(ctx context.Context, key models.PlanningKey, in Input) (*models.ReconcileResult, error) {
	if err := validation.Struct(struct {
		Key   models.PlanningKey `json:"key"`
		Input Input              `json:"causes"`
	}{key, in}); err != nil {
		return nil, err
	}

	var result *models.ReconcileResult
	err := r.store.Atomic(ctx, func(tx repository.Store) error {
		rec, err := tx.FindPlanningForUpdate(ctx, key)
		if err != nil {
			return err
		}

		source := rec.QuantitySource()
		delta, _ := metrics.ProductionFields(source, rec.DeclaredProduction)
		if delta >= 0 {
			return apperror.Validation("nothing to reconcile: declared production %d meets quantity source %d (delta %d)",
				rec.DeclaredProduction, source, delta)
		}

		res := &models.ReconcileResult{
			Key:                key,
			QuantitySource:     source,
			DeclaredProduction: rec.DeclaredProduction,
			Delta:              delta,
		}

		causes := in.causes()
		total := causes.Total()

		existing, err := tx.FindNonConformity(ctx, rec.ID)
		if err != nil && apperror.KindOf(err) != apperror.KindNotFound {
			return err
		}
		if err != nil {
			existing = nil
		}

		if total == 0 {
			if existing == nil {
				return apperror.Validation("all causes are zero and no non-conformity report exists to delete")
			}
			if err := tx.DeleteNonConformity(ctx, rec.ID); err != nil {
				return err
			}
			res.Action = models.ActionDeleted
			res.Report = existing
			result = res
			return nil
		}

		shortfall := math.Abs(float64(delta))
		if mismatch := math.Abs(total - shortfall); mismatch > Tolerance+epsilon {
			return apperror.Validation("cause total %.2f does not match shortfall %.0f: mismatch %.2f exceeds tolerance %.0f",
				total, shortfall, mismatch, Tolerance)
		}

		report := existing
		res.Action = models.ActionUpdated
		if report == nil {
			report = &models.NonConformity{PlanningID: rec.ID}
			res.Action = models.ActionCreated
		}
		report.Causes = causes
		report.Total = total
		report.RawMaterialRef = rawMaterialRef(causes.RawMaterial, in.RawMaterialRef)
		if in.Comment != nil {
			report.Comment = in.Comment
		}

		if err := tx.SaveNonConformity(ctx, report); err != nil {
			return err
		}
		res.Report = report
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("non-conformity reconciled",
		zap.String("week", key.Week),
		zap.String("day", string(key.Day)),
		zap.String("line", key.Line),
		zap.String("reference", key.Reference),
		zap.String("action", string(result.Action)),
		zap.Int("delta", result.Delta))
	return result, nil
}

// Get returns the report of the record identified by key.
func (r *Reconciler) Get(ctx context.Context, key models.PlanningKey) (*models.NonConformity, error) {
	rec, err := r.store.FindPlanning(ctx, key)
	if err != nil {
		return nil, err
	}
	return r.store.FindNonConformity(ctx, rec.ID)
}

// DeleteByCriteria removes the report of the record identified by key.
func (r *Reconciler) DeleteByCriteria(ctx context.Context, key models.PlanningKey) error {
	return r.store.Atomic(ctx, func(tx repository.Store) error {
		rec, err := tx.FindPlanningForUpdate(ctx, key)
		if err != nil {
			return err
		}
		return tx.DeleteNonConformity(ctx, rec.ID)
	})
}

// rawMaterialRef keeps the reference only when raw material losses were declared.
func rawMaterialRef(rawMaterial float64, ref *string) *string {
	if rawMaterial <= 0 || ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
