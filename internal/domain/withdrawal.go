package domain

import "time"

// WithdrawalStatus tracks the two-phase debit/settle protocol.
//
// Requested -> Debited -> Settled           (success terminal)
// Requested -> Debited -> SettlementFailed  (failure terminal)
//
// A failed settlement does not reverse the debit: the external transfer may
// have been broadcast before the error surfaced, and automatically re-crediting
// would risk a double spend. Operators reconcile failed withdrawals manually
// from the history log.
type WithdrawalStatus string

const (
	WithdrawalStatusRequested        WithdrawalStatus = "requested"
	WithdrawalStatusDebited          WithdrawalStatus = "debited"
	WithdrawalStatusSettled          WithdrawalStatus = "settled"
	WithdrawalStatusSettlementFailed WithdrawalStatus = "settlement_failed"
)

// WithdrawalReceipt is the caller-facing report of a withdrawal attempt.
// On settlement failure DebitedAmount and Err carry enough detail for the
// caller to tell the user that funds were debited without delivery.
type WithdrawalReceipt struct {
	Status        WithdrawalStatus
	UserID        string
	Asset         Asset
	DebitedAmount Amount
	Destination   string
	Reference     string
	Err           string
	CompletedAt   time.Time
}
