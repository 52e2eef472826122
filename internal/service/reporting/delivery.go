package reporting

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// Archive stores generated weekly reports.
type Archive interface {
	SaveWeeklyReport(ctx context.Context, report models.WeeklyReport) error
}

// RowWriter appends one row to a spreadsheet range.
type RowWriter interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// Notifier pushes a text message to a recipient.
type Notifier interface {
	SendText(ctx context.Context, to, body string) error
}

// Sinks lists where weekly reports go. Nil sinks are skipped.
type Sinks struct {
	Archive    Archive
	Sheet      RowWriter
	SheetRange string
	Notifier   Notifier
	Recipient  string
}

// Dispatcher generates weekly reports and hands them to every configured sink.
type Dispatcher struct {
	reports *Service
	sinks   Sinks
	logger  *zap.Logger
}

// NewDispatcher wires a report dispatcher.
func NewDispatcher(reports *Service, sinks Sinks, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{reports: reports, sinks: sinks, logger: logger}
}

// DeliverWeeklyReport builds the report of week and sends it to the sinks.
// A failing sink is recorded in the result and does not stop the others; only
// a failure to build the report is returned as an error.
func (d *Dispatcher) DeliverWeeklyReport(ctx context.Context, week string) (*models.WeeklyReportDelivery, error) {
	report, err := d.reports.WeeklyReport(ctx, week)
	if err != nil {
		return nil, err
	}

	out := &models.WeeklyReportDelivery{Report: *report}
	fail := func(sink string, err error) {
		d.logger.Error("weekly report sink failed", zap.String("sink", sink), zap.String("week", week), zap.Error(err))
		out.Errors = append(out.Errors, fmt.Sprintf("%s: %v", sink, err))
	}

	if d.sinks.Archive != nil {
		if err := d.sinks.Archive.SaveWeeklyReport(ctx, *report); err != nil {
			fail("archive", err)
		} else {
			out.Archived = true
		}
	}

	if d.sinks.Sheet != nil && d.sinks.SheetRange != "" {
		if err := d.export(ctx, report); err != nil {
			fail("sheet", err)
		} else {
			out.Exported = true
		}
	}

	if d.sinks.Notifier != nil && d.sinks.Recipient != "" {
		if err := d.sinks.Notifier.SendText(ctx, d.sinks.Recipient, report.Text); err != nil {
			fail("whatsapp", err)
		} else {
			out.Notified = true
		}
	}

	d.logger.Info("weekly report delivered",
		zap.String("week", week),
		zap.String("report_id", report.ID),
		zap.Bool("archived", out.Archived),
		zap.Bool("exported", out.Exported),
		zap.Bool("notified", out.Notified))
	return out, nil
}

// export appends one row per line: week, line, source, declared, production
// percent, loss total, loss percent, dominant cause.
func (d *Dispatcher) export(ctx context.Context, report *models.WeeklyReport) error {
	for _, l := range report.Lines {
		values := []interface{}{
			report.Week,
			l.Line,
			l.QuantitySource,
			l.DeclaredProduction,
			l.ProductionPercent,
			l.NonConformityTotal,
			l.LossPercent,
			l.DominantCause,
		}
		if err := d.sinks.Sheet.WriteRow(ctx, d.sinks.SheetRange, values); err != nil {
			return fmt.Errorf("export line %s: %w", l.Line, err)
		}
	}
	return nil
}
