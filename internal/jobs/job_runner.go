package jobs

import (
	"time"

	"montos-inversion-backend/internal/logger"
	"montos-inversion-backend/internal/repository"
	"montos-inversion-backend/internal/scheduler"
)

// JobRunner coordinates background jobs over the record store.
type JobRunner struct {
	records   repository.RecordRepository
	reminders *scheduler.ReminderScheduler
	delay     time.Duration
}

func NewJobRunner(records repository.RecordRepository, reminders *scheduler.ReminderScheduler, delay time.Duration) *JobRunner {
	return &JobRunner{
		records:   records,
		reminders: reminders,
		delay:     delay,
	}
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}
