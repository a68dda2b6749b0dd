package repository

import (
	"context"
	"errors"
	"time"

	"montos-inversion-backend/internal/domain"
)

// ErrNotFound means no row matched a lookup. Callers branch on it; it is
// never treated as a store failure.
var ErrNotFound = errors.New("record not found")

// ErrStoreUnavailable wraps transient failures talking to the backing store.
// The operation is abandoned after a single attempt; callers log and tell
// the user to retry.
var ErrStoreUnavailable = errors.New("record store unavailable")

// RecordUpdate is a partial update applied to one row. Nil fields are left
// untouched; set fields are written together in a single call. A NudgedAt
// pointing at the zero time clears the marker.
type RecordUpdate struct {
	ProofReference *string
	Status         *domain.RecordStatus
	AssignedCode   *string
	ReviewerNote   *string
	NudgedAt       *time.Time
}

// RecordRepository is the single source of truth for investment records.
// Implementations sit on top of a shared external store with no locks or
// transactions; within one RecordID the system relies on last-write-wins
// rather than serialization, so every method must tolerate concurrent
// writers. Lookups may be linear scans; the interface deliberately permits
// an indexed implementation without changing callers.
type RecordRepository interface {
	// Append inserts a new row and returns its RecordID. At-least-once:
	// callers may retry on ErrStoreUnavailable, and duplicate rows are
	// resolved by latest-wins reads rather than deduplication here.
	Append(ctx context.Context, rec *domain.Record) (string, error)

	// FindLatestByUser returns the most recently appended record owned by
	// userID, or ErrNotFound.
	FindLatestByUser(ctx context.Context, userID int64) (*domain.Record, error)

	// FindByAssignedCode returns the record holding the given assigned code,
	// or ErrNotFound. Used for referral validation and mint collision checks.
	FindByAssignedCode(ctx context.Context, code string) (*domain.Record, error)

	// UpdateFields applies upd to the row identified by recordID. Returns
	// false when the row is unreachable; that is a non-fatal miss, not
	// corruption.
	UpdateFields(ctx context.Context, recordID string, upd RecordUpdate) (bool, error)

	// ListAll returns every record. Finite and restartable; used by the
	// referral listing, the reminder re-arm sweep, and broadcasts.
	ListAll(ctx context.Context) ([]domain.Record, error)
}
