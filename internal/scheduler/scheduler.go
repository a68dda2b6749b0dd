package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"montos-inversion-backend/internal/logger"
)

// Scheduler wraps the cron runner that drives recurring background jobs
// (currently just the reminder re-arm sweep).
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
	)
	return &Scheduler{cron: c}
}

// AddJob registers fn under the given cron spec (robfig syntax, @every
// accepted).
func (s *Scheduler) AddJob(spec, name string, fn func()) {
	if _, err := s.cron.AddFunc(spec, fn); err != nil {
		logger.Error("Failed to register job", "job", name, "spec", spec, "error", err)
		return
	}
	logger.Info("Job registered", "job", name, "spec", spec)
}

// Start begins the cron scheduler.
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}
