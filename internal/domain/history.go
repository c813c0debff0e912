package domain

import "time"

// HistoryKind labels the ledger event that produced a history entry.
type HistoryKind string

const (
	HistoryKindCredit         HistoryKind = "credit"
	HistoryKindDebit          HistoryKind = "debit"
	HistoryKindDeposit        HistoryKind = "deposit"
	HistoryKindFee            HistoryKind = "fee"
	HistoryKindTipIn          HistoryKind = "tip_in"
	HistoryKindTipOut         HistoryKind = "tip_out"
	HistoryKindBurn           HistoryKind = "burn"
	HistoryKindAirdropFund    HistoryKind = "airdrop_fund"
	HistoryKindAirdropClaim   HistoryKind = "airdrop_claim"
	HistoryKindWithdraw       HistoryKind = "withdraw"
	HistoryKindWithdrawFailed HistoryKind = "withdraw_failed"
)

// HistoryEntry is one append-only audit record. Entries are written only by
// the component performing the balance mutation, inside the same transaction,
// and are immutable once written. Seq is server-assigned and monotonic, so
// per-user entries read back in the order their operations were linearized.
type HistoryEntry struct {
	ID            string
	Seq           int64
	UserID        string
	Kind          HistoryKind
	Asset         Asset
	Amount        Amount
	CorrelationID string
	Reference     string
	Detail        string
	CreatedAt     time.Time
}
