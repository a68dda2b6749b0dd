package scheduler

import (
	"context"
	"sync"
	"time"

	"montos-inversion-backend/internal/domain"
	"montos-inversion-backend/internal/logger"
	"montos-inversion-backend/internal/repository"
	"montos-inversion-backend/internal/service"
)

// nudgeText is the single are-you-still-there message a participant may
// receive while their proof sits undecided.
const nudgeText = "¿Sigues ahí? Aún no hemos procesado tu comprobante. Si necesitas ayuda escribe 'Soporte'."

// ReminderScheduler arms one-shot deferred nudges, one per record. The
// armed set is mutex-guarded with defined lifecycle: an entry is created on
// proof submission, removed when the timer fires or the record is decided.
// No cancellation channel is needed beyond Disarm, because the fire-time
// status re-check makes early decisions self-canceling anyway.
//
// Timers are not persisted. A restart loses them; the re-arm sweep in
// internal/jobs recovers outstanding ones by scanning the store.
type ReminderScheduler struct {
	records  repository.RecordRepository
	notifier service.Notifier
	delay    time.Duration

	mu     sync.Mutex
	armed  map[string]*time.Timer
	nudged map[string]bool
}

func NewReminderScheduler(records repository.RecordRepository, notifier service.Notifier, delay time.Duration) *ReminderScheduler {
	return &ReminderScheduler{
		records:  records,
		notifier: notifier,
		delay:    delay,
		armed:    make(map[string]*time.Timer),
		nudged:   make(map[string]bool),
	}
}

// Arm schedules the nudge check after the configured delay. Arming an
// already-armed or already-nudged record is a no-op: a participant gets at
// most one nudge per record.
func (r *ReminderScheduler) Arm(recordID string, userID int64) {
	r.ArmAfter(recordID, userID, r.delay)
}

// ArmAfter is Arm with an explicit delay; the re-arm sweep uses it to fire
// overdue reminders promptly after a restart.
func (r *ReminderScheduler) ArmAfter(recordID string, userID int64, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nudged[recordID] {
		return
	}
	if _, ok := r.armed[recordID]; ok {
		return
	}
	r.armed[recordID] = time.AfterFunc(delay, func() {
		r.fire(recordID, userID)
	})
	logger.Debug("reminder armed", "record_id", recordID, "delay", delay)
}

// Disarm stops a pending reminder. Called when a reviewer decides the
// record; calling it for an unarmed record is a no-op.
func (r *ReminderScheduler) Disarm(recordID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.armed[recordID]; ok {
		t.Stop()
		delete(r.armed, recordID)
	}
	// A decision ends the submission cycle. Dropping the nudged entry both
	// bounds the map and lets a reopened record nudge again on resubmission.
	delete(r.nudged, recordID)
}

// Armed reports whether a reminder is currently pending for the record.
func (r *ReminderScheduler) Armed(recordID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.armed[recordID]
	return ok
}

// ArmedCount returns the number of pending reminders.
func (r *ReminderScheduler) ArmedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.armed)
}

func (r *ReminderScheduler) fire(recordID string, userID int64) {
	r.mu.Lock()
	delete(r.armed, recordID)
	r.mu.Unlock()

	ctx := context.Background()

	// Re-read status at fire time: a decision made while the timer was
	// pending silently cancels the nudge.
	rec, err := r.findRecord(ctx, recordID)
	if err != nil {
		logger.Error("reminder check failed", "record_id", recordID, "error", err)
		return
	}
	if rec == nil || rec.Status != domain.RecordStatusProofSubmitted {
		return
	}
	if !rec.NudgedAt.IsZero() {
		// Another process sharing the store already nudged this submission.
		r.mu.Lock()
		r.nudged[recordID] = true
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	already := r.nudged[recordID]
	r.nudged[recordID] = true
	r.mu.Unlock()
	if already {
		return
	}

	if err := r.notifier.SendText(ctx, userID, nudgeText); err != nil {
		logger.Error("failed to send reminder", "user_id", userID, "record_id", recordID, "error", err)
		return
	}
	now := time.Now().UTC()
	if _, err := r.records.UpdateFields(ctx, recordID, repository.RecordUpdate{NudgedAt: &now}); err != nil {
		logger.Warn("failed to persist nudge marker", "record_id", recordID, "error", err)
	}
	logger.Info("reminder sent", "user_id", userID, "record_id", recordID)
}

func (r *ReminderScheduler) findRecord(ctx context.Context, recordID string) (*domain.Record, error) {
	all, err := r.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].RecordID == recordID {
			return &all[i], nil
		}
	}
	return nil, nil
}
