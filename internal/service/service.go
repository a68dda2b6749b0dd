package service

import (
	"context"
	"errors"
	"time"

	"montos-inversion-backend/internal/domain"
)

// ErrUnauthorized is returned when a non-reviewer attempts a reviewer
// action. Callers must refuse with a generic denial and never reveal which
// records exist.
var ErrUnauthorized = errors.New("not an authorized reviewer")

// Keyboard tells the transport which suggested-reply keyboard to render.
// The core never formats buttons itself.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardAmounts
	KeyboardYesNo
	KeyboardMenu
	KeyboardRemove
)

// Media keys resolved by the transport to configured attachments.
const (
	MediaAmounts = "amounts"
	MediaAccount = "account"
)

// Reply is the outcome of one intake step: messages to send back, the
// keyboard for the last message, and optionally a configured media
// attachment sent first.
type Reply struct {
	Texts    []string
	Keyboard Keyboard
	MediaKey string
	End      bool
}

// IntakeService drives the participant dialogue. One session per UserID;
// nothing is persisted before the data-confirm step, and a restart signal
// abandons the session entirely.
type IntakeService interface {
	Start(ctx context.Context, userID int64) (*Reply, error)
	HandleText(ctx context.Context, userID int64, text string) (*Reply, error)
	HandleProof(ctx context.Context, userID int64, proofRef string) (*Reply, error)
}

// ReviewService is the reviewer-facing approve/reject workflow.
type ReviewService interface {
	IsReviewer(id int64) bool

	// Approve is idempotent: re-invoking on an already-approved record is a
	// no-op that still succeeds and reports the existing code.
	Approve(ctx context.Context, reviewerID int64, recordID string) error

	// BeginRejection places the reviewer into the awaiting-reason state and
	// prompts for free text.
	BeginRejection(ctx context.Context, reviewerID int64, recordID string) error

	// SubmitRejectionReason consumes the reviewer's next plain-text message
	// while awaiting a reason. It returns false when the reviewer is not in
	// that state, in which case the caller passes the text on to unrelated
	// handling.
	SubmitRejectionReason(ctx context.Context, reviewerID int64, reason string) (bool, error)
}

// ReferralService mints assigned codes and answers referral queries.
type ReferralService interface {
	// Mint draws a short code and retries on collision. Safe to invoke
	// concurrently for different records without external locking.
	Mint(ctx context.Context) (string, error)

	// Validate returns the referring record for a code, or
	// repository.ErrNotFound.
	Validate(ctx context.Context, code string) (*domain.Record, error)

	// ListReferrals returns every record registered with the given code as
	// its referral.
	ListReferrals(ctx context.Context, code string) ([]domain.Record, error)
}

// BroadcastService resolves the audience for reviewer broadcasts.
type BroadcastService interface {
	// Recipients returns the distinct participant identities across all
	// records, in first-seen order.
	Recipients(ctx context.Context) ([]int64, error)
}

// Notifier is the outbound half of the chat transport. Rendering and
// delivery retries are the transport's problem; the core only asks for
// messages to be sent.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendMenu(ctx context.Context, chatID int64, text string) error
	SendMedia(ctx context.Context, chatID int64, fileID string) error

	// SendReviewRequest forwards a submitted proof to one reviewer with
	// approve/reject buttons carrying the RecordID.
	SendReviewRequest(ctx context.Context, reviewerID int64, rec *domain.Record) error
}

// ReminderArmer is the deferred-nudge scheduler as seen by the workflow.
type ReminderArmer interface {
	Arm(recordID string, userID int64)
	Disarm(recordID string)
}

// nowFunc is a clock seam for tests.
type nowFunc func() time.Time
