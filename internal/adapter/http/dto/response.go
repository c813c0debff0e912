package dto

import (
	"time"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BalanceResponse represents one (user, asset) balance.
type BalanceResponse struct {
	UserID string `json:"user_id"`
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// BalanceFromDomain converts a domain balance.
func BalanceFromDomain(b *domain.Balance) BalanceResponse {
	return BalanceResponse{
		UserID: b.UserID,
		Asset:  b.Asset.String(),
		Amount: b.Amount.String(),
	}
}

// BalancesFromDomain converts a balance list.
func BalancesFromDomain(balances []*domain.Balance) []BalanceResponse {
	out := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, BalanceFromDomain(b))
	}

	return out
}

// DepositResponse reports a credited deposit split.
type DepositResponse struct {
	Net           string `json:"net"`
	Fee           string `json:"fee"`
	CorrelationID string `json:"correlation_id"`
}

// DepositFromResult converts a deposit result.
func DepositFromResult(result *usecase.DepositResult) DepositResponse {
	return DepositResponse{
		Net:           result.Net.String(),
		Fee:           result.Fee.String(),
		CorrelationID: result.CorrelationID,
	}
}

// BurnResponse reports a burn donation.
type BurnResponse struct {
	Burned string `json:"burned"`
}

// AirdropResponse represents an airdrop.
type AirdropResponse struct {
	ID            string     `json:"id"`
	CreatorID     string     `json:"creator_id"`
	Asset         string     `json:"asset"`
	TotalAmount   string     `json:"total_amount"`
	Share         string     `json:"share"`
	MaxClaimants  int        `json:"max_claimants"`
	ClaimantCount int        `json:"claimant_count"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// AirdropFromDomain converts a domain airdrop.
func AirdropFromDomain(a *domain.Airdrop) AirdropResponse {
	return AirdropResponse{
		ID:            a.ID,
		CreatorID:     a.CreatorID,
		Asset:         a.Asset.String(),
		TotalAmount:   a.TotalAmount.String(),
		Share:         a.Share().String(),
		MaxClaimants:  a.MaxClaimants,
		ClaimantCount: len(a.Claimants),
		Active:        a.Active,
		CreatedAt:     a.CreatedAt,
		ExpiresAt:     a.ExpiresAt,
	}
}

// ClaimResponse reports the outcome of a claim attempt.
type ClaimResponse struct {
	Result string `json:"result"`
	Share  string `json:"share,omitempty"`
	Asset  string `json:"asset,omitempty"`
}

// ClaimFromOutcome converts a claim outcome.
func ClaimFromOutcome(outcome *usecase.ClaimOutcome) ClaimResponse {
	resp := ClaimResponse{Result: string(outcome.Result)}

	if outcome.Result == domain.ClaimResultClaimed {
		resp.Share = outcome.Share.String()
	}
	if outcome.Asset != "" {
		resp.Asset = outcome.Asset.String()
	}

	return resp
}

// WithdrawalResponse reports a withdrawal receipt.
type WithdrawalResponse struct {
	Status        string    `json:"status"`
	UserID        string    `json:"user_id"`
	Asset         string    `json:"asset"`
	DebitedAmount string    `json:"debited_amount"`
	Destination   string    `json:"destination"`
	Reference     string    `json:"reference,omitempty"`
	Error         string    `json:"error,omitempty"`
	CompletedAt   time.Time `json:"completed_at"`
}

// WithdrawalFromReceipt converts a withdrawal receipt.
func WithdrawalFromReceipt(receipt *domain.WithdrawalReceipt) WithdrawalResponse {
	return WithdrawalResponse{
		Status:        string(receipt.Status),
		UserID:        receipt.UserID,
		Asset:         receipt.Asset.String(),
		DebitedAmount: receipt.DebitedAmount.String(),
		Destination:   receipt.Destination,
		Reference:     receipt.Reference,
		Error:         receipt.Err,
		CompletedAt:   receipt.CompletedAt,
	}
}

// WalletResponse represents a registered wallet.
type WalletResponse struct {
	UserID    string    `json:"user_id"`
	Asset     string    `json:"asset"`
	Address   string    `json:"address"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WalletFromDomain converts a wallet registration.
func WalletFromDomain(reg *domain.WalletRegistration) WalletResponse {
	return WalletResponse{
		UserID:    reg.UserID,
		Asset:     reg.Asset.String(),
		Address:   reg.Address,
		UpdatedAt: reg.UpdatedAt,
	}
}

// HistoryEntryResponse represents one audit log entry.
type HistoryEntryResponse struct {
	Seq           int64     `json:"seq"`
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Asset         string    `json:"asset"`
	Amount        string    `json:"amount"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	Detail        string    `json:"detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// HistoryFromDomain converts a history entry list.
func HistoryFromDomain(entries []*domain.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			Seq:           e.Seq,
			ID:            e.ID,
			Kind:          string(e.Kind),
			Asset:         e.Asset.String(),
			Amount:        e.Amount.String(),
			CorrelationID: e.CorrelationID,
			Reference:     e.Reference,
			Detail:        e.Detail,
			CreatedAt:     e.CreatedAt,
		})
	}

	return out
}

// AssetTotalsResponse is one asset line of the reconciliation report.
type AssetTotalsResponse struct {
	Asset             string `json:"asset"`
	TotalBalances     string `json:"total_balances"`
	FeesCollected     string `json:"fees_collected"`
	FailedWithdrawals string `json:"failed_withdrawals"`
}

// ReconciliationResponse is the full operator report.
type ReconciliationResponse struct {
	Assets    []AssetTotalsResponse `json:"assets"`
	CheckedAt time.Time             `json:"checked_at"`
}

// ReconciliationFromReport converts a reconciliation report.
func ReconciliationFromReport(report *usecase.ReconciliationReport) ReconciliationResponse {
	out := ReconciliationResponse{CheckedAt: report.CheckedAt}

	for _, totals := range report.Assets {
		out.Assets = append(out.Assets, AssetTotalsResponse{
			Asset:             totals.Asset.String(),
			TotalBalances:     totals.TotalBalances.String(),
			FeesCollected:     totals.FeesCollected.String(),
			FailedWithdrawals: totals.FailedWithdrawals.String(),
		})
	}

	return out
}
