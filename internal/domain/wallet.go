package domain

import "time"

// WalletRegistration maps a (user, asset) pair to an external address.
// Purely advisory: withdrawals read it for a destination, nothing about it
// authorizes ledger mutation. Overwritten on re-registration, never expired.
type WalletRegistration struct {
	UserID    string
	Asset     Asset
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
