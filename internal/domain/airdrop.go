package domain

import "time"

// ClaimResult is the typed outcome of an airdrop claim attempt. Duplicate
// claims and closed airdrops are routine outcomes, not failures.
type ClaimResult string

const (
	ClaimResultClaimed        ClaimResult = "claimed"
	ClaimResultAlreadyClaimed ClaimResult = "already_claimed"
	ClaimResultEnded          ClaimResult = "ended"
)

// Airdrop is a one-to-many distribution of a single asset, funded up front
// from the creator's balance. The funded total is held by the airdrop itself,
// not by any account, until it is claimed or the airdrop closes.
type Airdrop struct {
	ID           string
	CreatorID    string
	Asset        Asset
	TotalAmount  Amount
	MaxClaimants int
	Claimants    []string
	Active       bool
	CreatedAt    time.Time
	ExpiresAt    *time.Time
}

// Share is the per-claim amount: total / cap, truncated at the ledger
// precision. The truncation remainder is forfeited once all slots are taken.
func (a *Airdrop) Share() Amount {
	return a.TotalAmount.DivFloor(int64(a.MaxClaimants))
}

// Expired reports whether the airdrop's time window has elapsed at now.
func (a *Airdrop) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !now.Before(*a.ExpiresAt)
}

// Open reports whether a claim may still be accepted at now.
func (a *Airdrop) Open(now time.Time) bool {
	return a.Active && !a.Expired(now) && len(a.Claimants) < a.MaxClaimants
}

// HasClaimed reports whether userID is already in the claimant set.
func (a *Airdrop) HasClaimed(userID string) bool {
	for _, c := range a.Claimants {
		if c == userID {
			return true
		}
	}

	return false
}

// Validate validates the airdrop parameters at creation time.
func (a *Airdrop) Validate() error {
	if !a.TotalAmount.IsPositive() {
		return ErrInvalidAmount
	}

	if a.MaxClaimants < 1 {
		return ErrInvalidAmount
	}

	// Every claimant must receive something; a cap larger than the total in
	// smallest units would floor the share to zero.
	if a.Share().IsZero() {
		return ErrInvalidAmount
	}

	return nil
}
