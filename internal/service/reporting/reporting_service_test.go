package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/repository/memory"
)

type fixture struct {
	store   *memory.Store
	service *Service
}

// newFixture stores two weeks. In semaine47, line L1 has REF-A at 50/100
// with a 50 unit report and REF-B at 900/900; line L2 has REF-C at 150/200
// (planned 400, modified 200) with a 50 unit report. semaine48 has L1/REF-A
// at 100/100.
func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	week47 := []models.PlanningRecord{
		{Day: models.Monday, Line: "L1", Reference: "REF-A", PlannedQty: 100, DeclaredProduction: 50, PlannedHours: 0.27, OperatorCount: 0.03},
		{Day: models.Monday, Line: "L1", Reference: "REF-B", PlannedQty: 900, DeclaredProduction: 900, PlannedHours: 9, OperatorCount: 1.12},
		{Day: models.Tuesday, Line: "L2", Reference: "REF-C", PlannedQty: 400, ModifiedQty: 200, DeclaredProduction: 150},
	}
	if err := store.CreateWeek(ctx, &models.Week{Name: "semaine47", StartDate: time.Date(2026, 11, 16, 0, 0, 0, 0, time.UTC)}, week47); err != nil {
		t.Fatal(err)
	}
	week48 := []models.PlanningRecord{
		{Day: models.Monday, Line: "L1", Reference: "REF-A", PlannedQty: 100, DeclaredProduction: 100},
	}
	if err := store.CreateWeek(ctx, &models.Week{Name: "semaine48", StartDate: time.Date(2026, 11, 23, 0, 0, 0, 0, time.UTC)}, week48); err != nil {
		t.Fatal(err)
	}

	reports := []models.NonConformity{
		{PlanningID: week47[0].ID, Causes: models.Causes{Absence: 30, Quality: 20}, Total: 50},
		{PlanningID: week47[2].ID, Causes: models.Causes{Maintenance: 50}, Total: 50},
	}
	for i := range reports {
		if err := store.SaveNonConformity(ctx, &reports[i]); err != nil {
			t.Fatal(err)
		}
	}

	svc := NewService(store, nil)
	svc.now = func() time.Time { return time.Date(2026, 11, 21, 20, 0, 0, 0, time.UTC) }
	return fixture{store: store, service: svc}
}

func TestLineWeekStatsUsesRatioOfSums(t *testing.T) {
	f := newFixture(t)

	st, err := f.service.LineWeekStats(context.Background(), "semaine47", "L1")
	if err != nil {
		t.Fatalf("LineWeekStats: %v", err)
	}

	total := st.Total
	if total.QuantitySource != 1000 || total.DeclaredProduction != 950 {
		t.Fatalf("sums = %d/%d, want 950/1000", total.DeclaredProduction, total.QuantitySource)
	}
	if total.ProductionPercent != 95 {
		t.Fatalf("production percent = %v, want 95 (not the 75 mean)", total.ProductionPercent)
	}
	if total.LossPercent != 5 || total.NonConformityTotal != 50 {
		t.Fatalf("loss = %v%% of %v", total.LossPercent, total.NonConformityTotal)
	}
	if total.CauseShares.Absence != 60 || total.CauseShares.Quality != 40 || total.CauseShares.Maintenance != 0 {
		t.Fatalf("cause shares = %+v", total.CauseShares)
	}
	if total.PlannedHours != 9.27 || total.OperatorCount != 1.15 {
		t.Fatalf("capacity sums = %v h / %v op", total.PlannedHours, total.OperatorCount)
	}

	if len(st.References) != 2 || st.References[0].Key != "REF-A" || st.References[1].Key != "REF-B" {
		t.Fatalf("references = %+v", st.References)
	}
	if st.References[0].ProductionPercent != 50 || st.References[1].ProductionPercent != 100 {
		t.Fatalf("per reference percent = %v, %v", st.References[0].ProductionPercent, st.References[1].ProductionPercent)
	}
	if st.References[1].CauseShares != (models.CauseShares{}) {
		t.Fatalf("reference without report has shares: %+v", st.References[1].CauseShares)
	}
}

func TestWeekCausesPercent(t *testing.T) {
	f := newFixture(t)

	st, err := f.service.WeekCausesPercent(context.Background(), "semaine47")
	if err != nil {
		t.Fatalf("WeekCausesPercent: %v", err)
	}
	if st.Total.QuantitySource != 1200 || st.Total.DeclaredProduction != 1100 {
		t.Fatalf("week sums = %d/%d", st.Total.DeclaredProduction, st.Total.QuantitySource)
	}
	if st.Total.ProductionPercent != 91.67 || st.Total.LossPercent != 8.33 {
		t.Fatalf("week percents = %v / %v", st.Total.ProductionPercent, st.Total.LossPercent)
	}
	want := models.CauseShares{Absence: 30, Quality: 20, Maintenance: 50}
	if st.Total.CauseShares != want {
		t.Fatalf("shares = %+v, want %+v", st.Total.CauseShares, want)
	}
	if len(st.Lines) != 2 || st.Lines[1].Key != "L2" || st.Lines[1].QuantitySource != 200 || st.Lines[1].LossPercent != 25 {
		t.Fatalf("lines = %+v", st.Lines)
	}
}

func TestLineCausesPercent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	all, err := f.service.LineCausesPercent(ctx, "L1", "")
	if err != nil {
		t.Fatalf("LineCausesPercent: %v", err)
	}
	if all.Total.QuantitySource != 1100 || all.Total.ProductionPercent != 95.45 {
		t.Fatalf("all weeks total = %+v", all.Total)
	}
	if len(all.Weeks) != 2 || all.Weeks[0].Key != "semaine47" || all.Weeks[1].Key != "semaine48" {
		t.Fatalf("weeks = %+v", all.Weeks)
	}

	one, err := f.service.LineCausesPercent(ctx, "L1", "semaine48")
	if err != nil {
		t.Fatal(err)
	}
	if one.Total.ProductionPercent != 100 || one.Total.LossPercent != 0 || len(one.Weeks) != 1 {
		t.Fatalf("single week = %+v", one)
	}
}

func TestCauseSharesUseUnroundedTotal(t *testing.T) {
	rows := []row{{
		record: models.PlanningRecord{PlannedQty: 10, DeclaredProduction: 9, Delta: -1},
		report: &models.NonConformity{Causes: models.Causes{Absence: 0.004, Quality: 0.002}, Total: 0.006},
	}}

	g := aggregate("L1", rows)
	if g.NonConformityTotal != 0.01 {
		t.Fatalf("total = %v, want 0.01", g.NonConformityTotal)
	}
	if g.CauseShares.Absence != 66.67 || g.CauseShares.Quality != 33.33 {
		t.Fatalf("shares = %+v, want 66.67 / 33.33", g.CauseShares)
	}
}

func TestAverageReferenceLossPercent(t *testing.T) {
	f := newFixture(t)

	avg, err := f.service.AverageReferenceLossPercent(context.Background(), "semaine47", "L1")
	if err != nil {
		t.Fatalf("AverageReferenceLossPercent: %v", err)
	}
	if avg.AveragePercent != 25 {
		t.Fatalf("average = %v, want 25", avg.AveragePercent)
	}
	if avg.PerReference["REF-A"] != 50 || avg.PerReference["REF-B"] != 0 {
		t.Fatalf("per reference = %v", avg.PerReference)
	}
}

func TestStatsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["line week"] = f.service.LineWeekStats(ctx, "semaine47", "L9")
	_, checks["week"] = f.service.WeekCausesPercent(ctx, "semaine01")
	_, checks["line all weeks"] = f.service.LineCausesPercent(ctx, "L9", "")
	_, checks["line one week"] = f.service.LineCausesPercent(ctx, "L2", "semaine48")
	_, checks["average"] = f.service.AverageReferenceLossPercent(ctx, "semaine48", "L2")
	_, checks["weekly report"] = f.service.WeeklyReport(ctx, "semaine02")

	for name, err := range checks {
		if apperror.KindOf(err) != apperror.KindNotFound {
			t.Errorf("%s: kind = %v, want not found", name, apperror.KindOf(err))
		}
	}
}

func TestWeeklyReport(t *testing.T) {
	f := newFixture(t)

	report, err := f.service.WeeklyReport(context.Background(), "semaine47")
	if err != nil {
		t.Fatalf("WeeklyReport: %v", err)
	}
	if report.ID == "" || report.ProductionPercent != 91.67 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Lines) != 2 || report.Lines[0].DominantCause != CauseAbsence || report.Lines[1].DominantCause != CauseMaintenance {
		t.Fatalf("lines = %+v", report.Lines)
	}
	for _, want := range []string{"semaine47", "1100 / 1200 (91.67%)", "L1: 950 / 1000 (95.00%)", "mainly maintenance"} {
		if !strings.Contains(report.Text, want) {
			t.Errorf("text %q misses %q", report.Text, want)
		}
	}
}

func TestDominantCause(t *testing.T) {
	tests := []struct {
		name   string
		causes models.Causes
		want   string
	}{
		{name: "none", want: ""},
		{name: "single", causes: models.Causes{YieldLoss: 3}, want: CauseYieldLoss},
		{name: "tie keeps first", causes: models.Causes{RawMaterial: 5, Quality: 5}, want: CauseRawMaterial},
		{name: "largest", causes: models.Causes{Absence: 2, Maintenance: 7, Quality: 1}, want: CauseMaintenance},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DominantCause(tc.causes); got != tc.want {
				t.Fatalf("DominantCause = %q, want %q", got, tc.want)
			}
		})
	}
}

type archiveStub struct {
	saved []models.WeeklyReport
	err   error
}

func (a *archiveStub) SaveWeeklyReport(_ context.Context, r models.WeeklyReport) error {
	if a.err != nil {
		return a.err
	}
	a.saved = append(a.saved, r)
	return nil
}

type sheetStub struct {
	ranges []string
	rows   [][]interface{}
}

func (s *sheetStub) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	s.ranges = append(s.ranges, sheetRange)
	s.rows = append(s.rows, values)
	return nil
}

type notifierStub struct {
	to, body string
}

func (n *notifierStub) SendText(_ context.Context, to, body string) error {
	n.to, n.body = to, body
	return nil
}

func TestDeliverWeeklyReport(t *testing.T) {
	f := newFixture(t)
	archive := &archiveStub{err: errors.New("mongo down")}
	sheet := &sheetStub{}
	notifier := &notifierStub{}

	d := NewDispatcher(f.service, Sinks{
		Archive:    archive,
		Sheet:      sheet,
		SheetRange: "Weekly!A:H",
		Notifier:   notifier,
		Recipient:  "212600000000",
	}, nil)

	out, err := d.DeliverWeeklyReport(context.Background(), "semaine47")
	if err != nil {
		t.Fatalf("DeliverWeeklyReport: %v", err)
	}
	if out.Archived || !out.Exported || !out.Notified {
		t.Fatalf("delivery flags = %+v", out)
	}
	if len(out.Errors) != 1 || !strings.Contains(out.Errors[0], "mongo down") {
		t.Fatalf("errors = %v", out.Errors)
	}
	if len(sheet.rows) != 2 || sheet.ranges[0] != "Weekly!A:H" || sheet.rows[1][1] != "L2" {
		t.Fatalf("sheet rows = %v", sheet.rows)
	}
	if notifier.to != "212600000000" || notifier.body != out.Report.Text {
		t.Fatalf("notification = %+v", notifier)
	}
}

func TestDeliverWeeklyReportWithoutSinks(t *testing.T) {
	f := newFixture(t)
	d := NewDispatcher(f.service, Sinks{}, nil)

	out, err := d.DeliverWeeklyReport(context.Background(), "semaine48")
	if err != nil {
		t.Fatal(err)
	}
	if out.Archived || out.Exported || out.Notified || len(out.Errors) != 0 {
		t.Fatalf("unexpected delivery: %+v", out)
	}

	if _, err := d.DeliverWeeklyReport(context.Background(), "semaine01"); apperror.KindOf(err) != apperror.KindNotFound {
		t.Fatalf("missing week kind = %v", apperror.KindOf(err))
	}
}
