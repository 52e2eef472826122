package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// ReportDeliverer builds and ships the weekly report of a week.
type ReportDeliverer interface {
	DeliverWeeklyReport(ctx context.Context, week string) (*models.WeeklyReportDelivery, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reports  ReportDeliverer
	cfg      config.ReportingConfig
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reports ReportDeliverer, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:     c,
		reports:  reports,
		cfg:      cfg,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.sendWeeklyReport); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.location.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to return.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendWeeklyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.RunWeeklyReport(ctx); err != nil {
		s.logger.Error("failed to deliver weekly report", zap.Error(err))
	}
}

// RunWeeklyReport delivers the report of the current week.
func (s *Scheduler) RunWeeklyReport(ctx context.Context) (*models.WeeklyReportDelivery, error) {
	week := WeekName(s.now().In(s.location))
	s.logger.Info("generating weekly report", zap.String("week", week))

	delivery, err := s.reports.DeliverWeeklyReport(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("weekly report %s: %w", week, err)
	}
	return delivery, nil
}

// WeekName returns the ISO week of t in the semaineNN form used by planning weeks.
func WeekName(t time.Time) string {
	_, week := t.ISOWeek()
	return fmt.Sprintf("semaine%02d", week)
}
