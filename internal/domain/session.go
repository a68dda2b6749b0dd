package domain

// DialogueState is the intake state machine position for one participant.
type DialogueState string

const (
	StateAmountEntry     DialogueState = "amount_entry"
	StateInvestConfirm   DialogueState = "invest_confirm"
	StateReferralEntry   DialogueState = "referral_entry"
	StateRegisterConfirm DialogueState = "register_confirm"
	StateNameEntry       DialogueState = "name_entry"
	StateNationalIDEntry DialogueState = "national_id_entry"
	StateDataConfirm     DialogueState = "data_confirm"
	StateAwaitingProof   DialogueState = "awaiting_proof"
	StateMenu            DialogueState = "menu"
	StateReinvestAmount  DialogueState = "reinvest_amount"
	StateReinvestProof   DialogueState = "reinvest_proof"
)

// Session holds the in-progress, unpersisted capture for one participant.
// Nothing here is durable: a restart signal throws the session away and the
// store is only touched once the participant confirms their data.
type Session struct {
	UserID       int64
	State        DialogueState
	Amount       int64
	ReferralCode string
	ReferrerName string
	Name         string
	NationalID   string

	// RecordID is set once the registration row has been appended, so later
	// proof updates target the exact row this dialogue created.
	RecordID string
}
