package domain

import "time"

type RecordStatus string

const (
	RecordStatusAwaitingProof  RecordStatus = "AWAITING_PROOF"
	RecordStatusProofSubmitted RecordStatus = "PROOF_SUBMITTED"
	RecordStatusApproved       RecordStatus = "APPROVED"
	RecordStatusRejected       RecordStatus = "REJECTED"
)

// Decided returns true once a reviewer has resolved the record.
func (s RecordStatus) Decided() bool {
	return s == RecordStatusApproved || s == RecordStatusRejected
}

const (
	// Accepted investment range, in COP.
	MinAmount int64 = 200000
	MaxAmount int64 = 500000

	// PayoutDays is the number of days between registration and payout.
	PayoutDays = 10

	// NoReferral marks a record whose participant came in without a code.
	NoReferral = "none"
)

// Record is one submission cycle. A participant may own many records over
// time (re-investments); rows are appended, never hard-deleted, and the
// newest row per UserID is the authoritative one.
type Record struct {
	RecordID           string       `json:"record_id"`
	UserID             int64        `json:"user_id"`
	Name               string       `json:"name"`
	NationalID         string       `json:"national_id"`
	Amount             int64        `json:"amount"`
	ReferralCode       string       `json:"referral_code"`
	AssignedCode       string       `json:"assigned_code,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	ExpectedPayoutDate time.Time    `json:"expected_payout_date"`
	ProofReference     string       `json:"proof_reference,omitempty"`
	Status             RecordStatus `json:"status"`
	ReviewerNote       string       `json:"reviewer_note,omitempty"`

	// NudgedAt is zero until the deferred reminder for the current
	// submission fires. Persisted so concurrent processes sharing the store
	// do not each nudge; cleared when a proof is resubmitted.
	NudgedAt time.Time `json:"nudged_at,omitempty"`
}

// ValidAmount reports whether an amount is inside the accepted range.
func ValidAmount(amount int64) bool {
	return amount >= MinAmount && amount <= MaxAmount
}

// Payout is the amount the participant receives: principal plus 90%.
func Payout(amount int64) int64 {
	return amount * 19 / 10
}

// PayoutDate derives the expected payout date from the registration time.
func PayoutDate(createdAt time.Time) time.Time {
	return createdAt.AddDate(0, 0, PayoutDays)
}
