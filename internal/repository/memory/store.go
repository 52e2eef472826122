// Package memory is an in-process implementation of the repository contracts,
// used for local runs without postgres and by the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository"
)

type state struct {
	weeks        map[string]models.Week
	planning     map[uint]models.PlanningRecord
	keys         map[models.PlanningKey]uint
	reports      map[uint]models.NonConformity // by planning id
	nextWeekID   uint
	nextRecordID uint
	nextReportID uint
}

func (s *state) clone() *state {
	c := &state{
		weeks:        make(map[string]models.Week, len(s.weeks)),
		planning:     make(map[uint]models.PlanningRecord, len(s.planning)),
		keys:         make(map[models.PlanningKey]uint, len(s.keys)),
		reports:      make(map[uint]models.NonConformity, len(s.reports)),
		nextWeekID:   s.nextWeekID,
		nextRecordID: s.nextRecordID,
		nextReportID: s.nextReportID,
	}
	for k, v := range s.weeks {
		c.weeks[k] = v
	}
	for k, v := range s.planning {
		c.planning[k] = v
	}
	for k, v := range s.keys {
		c.keys[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = cloneReport(v)
	}
	return c
}

// Store keeps weeks, planning records and reports in maps guarded by one mutex.
type Store struct {
	mu   *sync.Mutex
	data **state
	inTx bool
	now  func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	data := &state{
		weeks:    make(map[string]models.Week),
		planning: make(map[uint]models.PlanningRecord),
		keys:     make(map[models.PlanningKey]uint),
		reports:  make(map[uint]models.NonConformity),
	}
	return &Store{mu: &sync.Mutex{}, data: &data, now: time.Now}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) st() *state { return *s.data }

// Atomic serialises fn against every other store call and restores the
// previous state when fn fails.
func (s *Store) Atomic(_ context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st().clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		*s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) CreateWeek(_ context.Context, week *models.Week, records []models.PlanningRecord) error {
	defer s.lock()()
	st := s.st()

	if _, exists := st.weeks[week.Name]; exists {
		return apperror.Conflict("week %s already exists", week.Name)
	}
	batch := make(map[models.PlanningKey]struct{}, len(records))
	for _, rec := range records {
		key := rec.Key()
		key.Week = week.Name
		if _, exists := st.keys[key]; exists {
			return apperror.Conflict("planning record %s/%s/%s/%s already exists", week.Name, rec.Day, rec.Line, rec.Reference)
		}
		if _, dup := batch[key]; dup {
			return apperror.Conflict("week %s has duplicate planning keys", week.Name)
		}
		batch[key] = struct{}{}
	}

	now := s.now()
	st.nextWeekID++
	week.ID = st.nextWeekID
	week.CreatedAt, week.UpdatedAt = now, now
	stored := *week
	stored.Records = nil
	st.weeks[week.Name] = stored

	for i := range records {
		records[i].WeekID = week.ID
		records[i].WeekName = week.Name
		s.insertPlanning(st, &records[i], now)
	}
	return nil
}

func (s *Store) FindWeek(_ context.Context, name string) (*models.Week, error) {
	defer s.lock()()
	week, ok := s.st().weeks[name]
	if !ok {
		return nil, apperror.NotFound("week %s not found", name)
	}
	return &week, nil
}

func (s *Store) ListWeeks(_ context.Context) ([]models.Week, error) {
	defer s.lock()()
	weeks := make([]models.Week, 0, len(s.st().weeks))
	for _, w := range s.st().weeks {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].StartDate.Before(weeks[j].StartDate) })
	return weeks, nil
}

func (s *Store) DeleteWeek(_ context.Context, name string) error {
	defer s.lock()()
	st := s.st()
	week, ok := st.weeks[name]
	if !ok {
		return apperror.NotFound("week %s not found", name)
	}
	for id, rec := range st.planning {
		if rec.WeekID == week.ID {
			s.removePlanning(st, id)
		}
	}
	delete(st.weeks, name)
	return nil
}

func (s *Store) FindPlanning(_ context.Context, key models.PlanningKey) (*models.PlanningRecord, error) {
	defer s.lock()()
	return s.findPlanning(key)
}

// FindPlanningForUpdate needs no row lock: Atomic already holds the store mutex.
func (s *Store) FindPlanningForUpdate(ctx context.Context, key models.PlanningKey) (*models.PlanningRecord, error) {
	return s.FindPlanning(ctx, key)
}

func (s *Store) findPlanning(key models.PlanningKey) (*models.PlanningRecord, error) {
	st := s.st()
	id, ok := st.keys[key]
	if !ok {
		return nil, apperror.NotFound("planning record %s/%s/%s/%s not found", key.Week, key.Day, key.Line, key.Reference)
	}
	rec := st.planning[id]
	return &rec, nil
}

func (s *Store) ListPlanning(_ context.Context, filter models.PlanningFilter) ([]models.PlanningRecord, error) {
	defer s.lock()()
	var out []models.PlanningRecord
	for _, rec := range s.st().planning {
		if filter.Week != "" && rec.WeekName != filter.Week {
			continue
		}
		if filter.Day != "" && rec.Day != filter.Day {
			continue
		}
		if filter.Line != "" && rec.Line != filter.Line {
			continue
		}
		if filter.Reference != "" && rec.Reference != filter.Reference {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreatePlanning(_ context.Context, record *models.PlanningRecord) error {
	defer s.lock()()
	st := s.st()
	if _, exists := st.keys[record.Key()]; exists {
		return apperror.Conflict("planning record %s/%s/%s/%s already exists", record.WeekName, record.Day, record.Line, record.Reference)
	}
	week, ok := st.weeks[record.WeekName]
	if !ok {
		return apperror.NotFound("week %s not found", record.WeekName)
	}
	record.WeekID = week.ID
	s.insertPlanning(st, record, s.now())
	return nil
}

func (s *Store) SavePlanning(_ context.Context, record *models.PlanningRecord) error {
	defer s.lock()()
	st := s.st()
	current, ok := st.planning[record.ID]
	if !ok {
		return apperror.NotFound("planning record %d not found", record.ID)
	}
	if current.Key() != record.Key() {
		if _, taken := st.keys[record.Key()]; taken {
			return apperror.Conflict("planning record %s/%s/%s/%s already exists", record.WeekName, record.Day, record.Line, record.Reference)
		}
		delete(st.keys, current.Key())
		st.keys[record.Key()] = record.ID
	}
	record.UpdatedAt = s.now()
	st.planning[record.ID] = *record
	return nil
}

func (s *Store) DeletePlanning(_ context.Context, key models.PlanningKey) error {
	defer s.lock()()
	st := s.st()
	id, ok := st.keys[key]
	if !ok {
		return apperror.NotFound("planning record %s/%s/%s/%s not found", key.Week, key.Day, key.Line, key.Reference)
	}
	s.removePlanning(st, id)
	return nil
}

func (s *Store) FindNonConformity(_ context.Context, planningID uint) (*models.NonConformity, error) {
	defer s.lock()()
	report, ok := s.st().reports[planningID]
	if !ok {
		return nil, apperror.NotFound("no non-conformity report for planning record %d", planningID)
	}
	report = cloneReport(report)
	return &report, nil
}

func (s *Store) NonConformitiesByPlanning(_ context.Context, planningIDs []uint) (map[uint]models.NonConformity, error) {
	defer s.lock()()
	out := make(map[uint]models.NonConformity, len(planningIDs))
	for _, id := range planningIDs {
		if report, ok := s.st().reports[id]; ok {
			out[id] = cloneReport(report)
		}
	}
	return out, nil
}

func (s *Store) SaveNonConformity(_ context.Context, report *models.NonConformity) error {
	defer s.lock()()
	st := s.st()
	if _, ok := st.planning[report.PlanningID]; !ok {
		return apperror.NotFound("planning record %d not found", report.PlanningID)
	}

	now := s.now()
	existing, exists := st.reports[report.PlanningID]
	switch {
	case report.ID == 0 && exists:
		return apperror.Conflict("planning record %d already has a non-conformity report", report.PlanningID)
	case report.ID == 0:
		st.nextReportID++
		report.ID = st.nextReportID
		report.CreatedAt = now
	case !exists || existing.ID != report.ID:
		return apperror.NotFound("non-conformity report %d not found", report.ID)
	}
	report.UpdatedAt = now
	st.reports[report.PlanningID] = cloneReport(*report)
	return nil
}

func (s *Store) DeleteNonConformity(_ context.Context, planningID uint) error {
	defer s.lock()()
	if _, ok := s.st().reports[planningID]; !ok {
		return apperror.NotFound("no non-conformity report for planning record %d", planningID)
	}
	delete(s.st().reports, planningID)
	return nil
}

func (s *Store) insertPlanning(st *state, record *models.PlanningRecord, now time.Time) {
	st.nextRecordID++
	record.ID = st.nextRecordID
	record.CreatedAt, record.UpdatedAt = now, now
	st.planning[record.ID] = *record
	st.keys[record.Key()] = record.ID
}

func (s *Store) removePlanning(st *state, id uint) {
	rec := st.planning[id]
	delete(st.reports, id)
	delete(st.keys, rec.Key())
	delete(st.planning, id)
}

func cloneReport(r models.NonConformity) models.NonConformity {
	if r.RawMaterialRef != nil {
		v := *r.RawMaterialRef
		r.RawMaterialRef = &v
	}
	if r.Comment != nil {
		v := *r.Comment
		r.Comment = &v
	}
	return r
}
