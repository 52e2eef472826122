package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository"
)

const planningKeyClause = "week_name = ? AND day = ? AND line = ? AND reference = ?"

// Store implements repository.Store on top of gorm.
type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

// NewStore wraps an opened gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn in a database transaction; nested calls use savepoints.
func (s *Store) Atomic(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateWeek(ctx context.Context, week *models.Week, records []models.PlanningRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(week).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("week %s already exists", week.Name)
			}
			return apperror.Internal(err, "create week %s", week.Name)
		}
		if len(records) == 0 {
			return nil
		}
		for i := range records {
			records[i].WeekID = week.ID
			records[i].WeekName = week.Name
		}
		if err := tx.Omit(clause.Associations).CreateInBatches(records, 200).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("week %s has duplicate planning keys", week.Name)
			}
			return apperror.Internal(err, "create planning records of week %s", week.Name)
		}
		return nil
	})
}

func (s *Store) FindWeek(ctx context.Context, name string) (*models.Week, error) {
	var week models.Week
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&week).Error
	if err != nil {
		return nil, translate(err, apperror.NotFound("week %s not found", name), "find week")
	}
	return &week, nil
}

func (s *Store) ListWeeks(ctx context.Context) ([]models.Week, error) {
	var weeks []models.Week
	if err := s.db.WithContext(ctx).Order("start_date ASC").Find(&weeks).Error; err != nil {
		return nil, apperror.Internal(err, "list weeks")
	}
	return weeks, nil
}

func (s *Store) DeleteWeek(ctx context.Context, name string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var week models.Week
		if err := tx.Where("name = ?", name).First(&week).Error; err != nil {
			return translate(err, apperror.NotFound("week %s not found", name), "find week")
		}

		recordIDs := tx.Model(&models.PlanningRecord{}).Select("id").Where("week_id = ?", week.ID)
		if err := tx.Where("planning_id IN (?)", recordIDs).Delete(&models.NonConformity{}).Error; err != nil {
			return apperror.Internal(err, "delete non-conformities of week %s", name)
		}
		if err := tx.Where("week_id = ?", week.ID).Delete(&models.PlanningRecord{}).Error; err != nil {
			return apperror.Internal(err, "delete planning records of week %s", name)
		}
		if err := tx.Delete(&week).Error; err != nil {
			return apperror.Internal(err, "delete week %s", name)
		}
		return nil
	})
}

func (s *Store) FindPlanning(ctx context.Context, key models.PlanningKey) (*models.PlanningRecord, error) {
	return s.findPlanning(s.db.WithContext(ctx), key)
}

func (s *Store) FindPlanningForUpdate(ctx context.Context, key models.PlanningKey) (*models.PlanningRecord, error) {
	return s.findPlanning(s.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), key)
}

func (s *Store) findPlanning(db *gorm.DB, key models.PlanningKey) (*models.PlanningRecord, error) {
	var rec models.PlanningRecord
	err := db.Where(planningKeyClause, key.Week, key.Day, key.Line, key.Reference).First(&rec).Error
	if err != nil {
		return nil, translate(err, planningNotFound(key), "find planning record")
	}
	return &rec, nil
}

func (s *Store) ListPlanning(ctx context.Context, filter models.PlanningFilter) ([]models.PlanningRecord, error) {
	query := s.db.WithContext(ctx).Model(&models.PlanningRecord{})
	if filter.Week != "" {
		query = query.Where("week_name = ?", filter.Week)
	}
	if filter.Day != "" {
		query = query.Where("day = ?", filter.Day)
	}
	if filter.Line != "" {
		query = query.Where("line = ?", filter.Line)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
	}

	var records []models.PlanningRecord
	if err := query.Order("id ASC").Find(&records).Error; err != nil {
		return nil, apperror.Internal(err, "list planning records")
	}
	return records, nil
}

func (s *Store) CreatePlanning(ctx context.Context, record *models.PlanningRecord) error {
	db := s.db.WithContext(ctx)

	var week models.Week
	if err := db.Select("id").Where("name = ?", record.WeekName).First(&week).Error; err != nil {
		return translate(err, apperror.NotFound("week %s not found", record.WeekName), "find week")
	}
	record.WeekID = week.ID

	if err := db.Omit(clause.Associations).Create(record).Error; err != nil {
		return translate(err, nil, "create planning record")
	}
	return nil
}

func (s *Store) SavePlanning(ctx context.Context, record *models.PlanningRecord) error {
	res := s.db.WithContext(ctx).
		Model(record).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(record)
	if res.Error != nil {
		return translate(res.Error, nil, "save planning record")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("planning record %d not found", record.ID)
	}
	return nil
}

func (s *Store) DeletePlanning(ctx context.Context, key models.PlanningKey) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.findPlanning(tx, key)
		if err != nil {
			return err
		}
		if err := tx.Where("planning_id = ?", rec.ID).Delete(&models.NonConformity{}).Error; err != nil {
			return apperror.Internal(err, "delete non-conformity of planning record %d", rec.ID)
		}
		if err := tx.Delete(rec).Error; err != nil {
			return apperror.Internal(err, "delete planning record %d", rec.ID)
		}
		return nil
	})
}

func (s *Store) FindNonConformity(ctx context.Context, planningID uint) (*models.NonConformity, error) {
	var report models.NonConformity
	err := s.db.WithContext(ctx).Where("planning_id = ?", planningID).First(&report).Error
	if err != nil {
		return nil, translate(err, apperror.NotFound("no non-conformity report for planning record %d", planningID), "find non-conformity")
	}
	return &report, nil
}

func (s *Store) NonConformitiesByPlanning(ctx context.Context, planningIDs []uint) (map[uint]models.NonConformity, error) {
	out := make(map[uint]models.NonConformity, len(planningIDs))
	if len(planningIDs) == 0 {
		return out, nil
	}

	var reports []models.NonConformity
	if err := s.db.WithContext(ctx).Where("planning_id IN ?", planningIDs).Find(&reports).Error; err != nil {
		return nil, apperror.Internal(err, "load non-conformities")
	}
	for _, r := range reports {
		out[r.PlanningID] = r
	}
	return out, nil
}

func (s *Store) SaveNonConformity(ctx context.Context, report *models.NonConformity) error {
	db := s.db.WithContext(ctx)
	if report.ID == 0 {
		if err := db.Create(report).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("planning record %d already has a non-conformity report", report.PlanningID)
			}
			return apperror.Internal(err, "create non-conformity")
		}
		return nil
	}

	res := db.Model(report).Select("*").Omit("id", "created_at").Updates(report)
	if res.Error != nil {
		return translate(res.Error, nil, "update non-conformity")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("non-conformity report %d not found", report.ID)
	}
	return nil
}

func (s *Store) DeleteNonConformity(ctx context.Context, planningID uint) error {
	res := s.db.WithContext(ctx).Where("planning_id = ?", planningID).Delete(&models.NonConformity{})
	if res.Error != nil {
		return apperror.Internal(res.Error, "delete non-conformity")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("no non-conformity report for planning record %d", planningID)
	}
	return nil
}

func planningNotFound(key models.PlanningKey) *apperror.Error {
	return apperror.NotFound("planning record %s/%s/%s/%s not found", key.Week, key.Day, key.Line, key.Reference)
}

// translate maps gorm errors onto the application taxonomy. notFound may be
// nil when a missing row cannot happen on the given path.
func translate(err error, notFound *apperror.Error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &apperror.Error{Kind: apperror.KindConflict, Message: op + ": duplicate key", Err: err}
	default:
		return apperror.Internal(err, "%s", op)
	}
}
