package jobs

import (
	"context"
	"time"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/logger"
)

// minReArmDelay keeps re-armed reminders from firing before startup has
// finished wiring the transport.
const minReArmDelay = 5 * time.Second

// ReArmPendingReminders scans for proof-submitted records whose reminders
// were lost (process restart drops all armed timers) and arms them again.
// Records already past the reminder window fire almost immediately; the
// scheduler's armed/nudged guard keeps the sweep from double-nudging rows
// it already handled.
//
// CreatedAt stands in for the proof-submission time: the schema keeps one
// timestamp per row, and a record cannot reach ProofSubmitted before it is
// created, so the sweep never nudges early.
func (jr *JobRunner) ReArmPendingReminders() {
	jr.runWithRecovery("ReArmPendingReminders", func() {
		ctx := context.Background()

		all, err := jr.records.ListAll(ctx)
		if err != nil {
			logger.Error("Failed to scan records for reminder re-arm", "error", err)
			return
		}

		now := time.Now()
		count := 0
		for _, rec := range all {
			if rec.Status != domain.RecordStatusProofSubmitted {
				continue
			}
			if !rec.NudgedAt.IsZero() {
				continue
			}
			if jr.reminders.Armed(rec.RecordID) {
				continue
			}
			remaining := jr.delay - now.Sub(rec.CreatedAt)
			if remaining < minReArmDelay {
				remaining = minReArmDelay
			}
			jr.reminders.ArmAfter(rec.RecordID, rec.UserID, remaining)
			count++
		}
		if count > 0 {
			logger.Info("Re-armed pending reminders", "count", count)
		}
	})
}
