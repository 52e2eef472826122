package reporting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// Cause labels used in summaries and exports.
const (
	CauseRawMaterial = "raw_material"
	CauseAbsence     = "absence"
	CauseYieldLoss   = "yield_loss"
	CauseMaintenance = "maintenance"
	CauseQuality     = "quality"
)

// WeeklyReport builds the snapshot of a week: totals, one summary per line
// and a text rendering suitable for a chat message.
func (s *Service) WeeklyReport(ctx context.Context, week string) (*models.WeeklyReport, error) {
	stats, err := s.WeekCausesPercent(ctx, week)
	if err != nil {
		return nil, err
	}

	report := &models.WeeklyReport{
		ID:                 uuid.NewString(),
		Week:               week,
		QuantitySource:     stats.Total.QuantitySource,
		DeclaredProduction: stats.Total.DeclaredProduction,
		ProductionPercent:  stats.Total.ProductionPercent,
		LossPercent:        stats.Total.LossPercent,
		CreatedAt:          s.now().UTC(),
	}
	for _, g := range stats.Lines {
		report.Lines = append(report.Lines, models.LineSummary{
			Line:               g.Key,
			QuantitySource:     g.QuantitySource,
			DeclaredProduction: g.DeclaredProduction,
			ProductionPercent:  g.ProductionPercent,
			NonConformityTotal: g.NonConformityTotal,
			LossPercent:        g.LossPercent,
			DominantCause:      DominantCause(g.Causes),
		})
	}
	report.Text = FormatWeeklyReport(report)
	return report, nil
}

// DominantCause names the largest cause, or returns "" when nothing was lost.
// Ties go to the cause listed first.
func DominantCause(c models.Causes) string {
	candidates := []struct {
		name  string
		value float64
	}{
		{CauseRawMaterial, c.RawMaterial},
		{CauseAbsence, c.Absence},
		{CauseYieldLoss, c.YieldLoss},
		{CauseMaintenance, c.Maintenance},
		{CauseQuality, c.Quality},
	}

	name, best := "", 0.0
	for _, cand := range candidates {
		if cand.value > best {
			name, best = cand.name, cand.value
		}
	}
	return name
}

// FormatWeeklyReport renders a report as plain text.
func FormatWeeklyReport(r *models.WeeklyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Production report %s\n", r.Week)
	fmt.Fprintf(&b, "Declared %d / %d (%.2f%%), losses %.2f%%\n",
		r.DeclaredProduction, r.QuantitySource, r.ProductionPercent, r.LossPercent)
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "- %s: %d / %d (%.2f%%), losses %.2f%%", l.Line, l.DeclaredProduction, l.QuantitySource, l.ProductionPercent, l.LossPercent)
		if l.DominantCause != "" {
			fmt.Fprintf(&b, ", mainly %s", l.DominantCause)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatLineWeekStats renders line statistics for a chat reply.
func FormatLineWeekStats(st *models.LineWeekStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %d / %d (%.2f%%), losses %.2f%%",
		st.Line, st.Week, st.Total.DeclaredProduction, st.Total.QuantitySource, st.Total.ProductionPercent, st.Total.LossPercent)
	for _, g := range st.References {
		fmt.Fprintf(&b, "\n- %s: %d / %d (%.2f%%)", g.Key, g.DeclaredProduction, g.QuantitySource, g.ProductionPercent)
	}
	return b.String()
}
