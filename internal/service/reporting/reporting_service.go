package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/metrics"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// Source is the read side of the store the statistics are computed from.
type Source interface {
	ListPlanning(ctx context.Context, filter models.PlanningFilter) ([]models.PlanningRecord, error)
	NonConformitiesByPlanning(ctx context.Context, planningIDs []uint) (map[uint]models.NonConformity, error)
}

// Service exposes production statistics over planning records and their
// non-conformity reports.
type Service struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger, now: time.Now}
}

// LineWeekStats aggregates one line over one week, with a group per reference.
func (s *Service) LineWeekStats(ctx context.Context, week, line string) (*models.LineWeekStats, error) {
	rows, err := s.load(ctx, models.PlanningFilter{Week: week, Line: line})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("no planning records for line %s in %s", line, week)
	}

	return &models.LineWeekStats{
		Week:       week,
		Line:       line,
		Total:      aggregate(line, rows),
		References: groupBy(rows, func(r row) string { return r.record.Reference }),
	}, nil
}

// WeekCausesPercent aggregates a whole week, with a group per line.
func (s *Service) WeekCausesPercent(ctx context.Context, week string) (*models.WeekCausesStats, error) {
	rows, err := s.load(ctx, models.PlanningFilter{Week: week})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("no planning records in %s", week)
	}

	return &models.WeekCausesStats{
		Week:  week,
		Total: aggregate(week, rows),
		Lines: groupBy(rows, func(r row) string { return r.record.Line }),
	}, nil
}

// LineCausesPercent aggregates a line over one week, or over all weeks when
// week is empty, with a group per week.
func (s *Service) LineCausesPercent(ctx context.Context, line, week string) (*models.LineCausesStats, error) {
	rows, err := s.load(ctx, models.PlanningFilter{Week: week, Line: line})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if week == "" {
			return nil, apperror.NotFound("no planning records for line %s", line)
		}
		return nil, apperror.NotFound("no planning records for line %s in %s", line, week)
	}

	return &models.LineCausesStats{
		Line:  line,
		Week:  week,
		Total: aggregate(line, rows),
		Weeks: groupBy(rows, func(r row) string { return r.record.WeekName }),
	}, nil
}

// AverageReferenceLossPercent averages the loss percentage of every reference
// of a line, each reference weighing the same whatever its volume. References
// without demand are left out of the mean.
func (s *Service) AverageReferenceLossPercent(ctx context.Context, week, line string) (*models.AverageLoss, error) {
	rows, err := s.load(ctx, models.PlanningFilter{Week: week, Line: line})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("no planning records for line %s in %s", line, week)
	}

	out := &models.AverageLoss{Week: week, Line: line, PerReference: map[string]float64{}}
	var sum float64
	var counted int
	for _, g := range groupBy(rows, func(r row) string { return r.record.Reference }) {
		if g.QuantitySource == 0 {
			continue
		}
		out.PerReference[g.Key] = g.LossPercent
		sum += g.LossPercent
		counted++
	}
	if counted > 0 {
		out.AveragePercent = metrics.Round2(sum / float64(counted))
	}
	return out, nil
}

type row struct {
	record models.PlanningRecord
	report *models.NonConformity
}

// load reads the matching records, then their reports in one batch.
func (s *Service) load(ctx context.Context, filter models.PlanningFilter) ([]row, error) {
	records, err := s.source.ListPlanning(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list planning records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	reports, err := s.source.NonConformitiesByPlanning(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load non-conformity reports: %w", err)
	}

	rows := make([]row, len(records))
	for i, rec := range records {
		rows[i] = row{record: rec}
		if report, ok := reports[rec.ID]; ok {
			rows[i].report = &report
		}
	}
	s.logger.Debug("statistics rows loaded",
		zap.String("week", filter.Week),
		zap.String("line", filter.Line),
		zap.Int("records", len(records)),
		zap.Int("reports", len(reports)))
	return rows, nil
}

// groupBy aggregates rows per key, keys sorted.
func groupBy(rows []row, key func(row) string) []models.StatsGroup {
	buckets := make(map[string][]row)
	for _, r := range rows {
		k := key(r)
		buckets[k] = append(buckets[k], r)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]models.StatsGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, aggregate(k, buckets[k]))
	}
	return groups
}

// aggregate sums the rows and derives percentages from the sums.
func aggregate(key string, rows []row) models.StatsGroup {
	g := models.StatsGroup{Key: key, Records: len(rows)}
	for _, r := range rows {
		g.QuantitySource += r.record.QuantitySource()
		g.DeclaredProduction += r.record.DeclaredProduction
		g.PlannedHours += r.record.PlannedHours
		g.OperatorCount += r.record.OperatorCount
		if r.report != nil {
			g.Causes = g.Causes.Add(r.report.Causes)
			g.NonConformityTotal += r.report.Total
		}
	}

	source := float64(g.QuantitySource)
	g.ProductionPercent = metrics.Percent(float64(g.DeclaredProduction), source)
	g.LossPercent = metrics.Percent(g.NonConformityTotal, source)
	g.PlannedHours = metrics.Round2(g.PlannedHours)
	g.OperatorCount = metrics.Round2(g.OperatorCount)
	total := g.NonConformityTotal
	g.CauseShares = models.CauseShares{
		RawMaterial: metrics.Percent(g.Causes.RawMaterial, total),
		Absence:     metrics.Percent(g.Causes.Absence, total),
		YieldLoss:   metrics.Percent(g.Causes.YieldLoss, total),
		Maintenance: metrics.Percent(g.Causes.Maintenance, total),
		Quality:     metrics.Percent(g.Causes.Quality, total),
	}
	g.NonConformityTotal = metrics.Round2(total)
	return g
}
