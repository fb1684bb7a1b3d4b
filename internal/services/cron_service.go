package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultStalePendingAuditSpec runs daily at 01:30 (seconds precision)
const DefaultStalePendingAuditSpec = "0 30 1 * * *"

// CronService manages scheduled background jobs
type CronService struct {
	cron    *cron.Cron
	reports *ReportService
	spec    string
	logger  *logrus.Logger
}

// NewCronService creates a scheduler running in the clock's time zone
func NewCronService(reports *ReportService, clock *Clock, spec string, logger *logrus.Logger) *CronService {
	if spec == "" {
		spec = DefaultStalePendingAuditSpec
	}
	c := cron.New(cron.WithSeconds(), cron.WithLocation(clock.loc))

	return &CronService{
		cron:    c,
		reports: reports,
		spec:    spec,
		logger:  logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// Stale pending audit: read-only, Pending bookings are never expired automatically
	if _, err := s.cron.AddFunc(s.spec, s.stalePendingAuditJob); err != nil {
		return fmt.Errorf("failed to schedule stale pending audit: %w", err)
	}
	s.logger.WithField("spec", s.spec).Info("Scheduled: stale pending audit")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) stalePendingAuditJob() {
	if _, err := s.RunStalePendingAuditNow(context.Background()); err != nil {
		s.logger.WithError(err).Error("[CRON] Stale pending audit failed")
	}
}

// RunStalePendingAuditNow counts stale Pending bookings and logs the result
func (s *CronService) RunStalePendingAuditNow(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := s.reports.StalePendingCount(ctx)
	if err != nil {
		return 0, err
	}

	entry := s.logger.WithFields(logrus.Fields{
		"stale_pending": count,
		"duration":      time.Since(start).String(),
	})
	if count > 0 {
		entry.Warn("[CRON] Pending bookings past their travel date")
	} else {
		entry.Info("[CRON] No stale pending bookings")
	}
	return count, nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
