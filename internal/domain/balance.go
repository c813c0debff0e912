package domain

import "time"

// Balance is one (user, asset) row of the ledger. Balances are created
// implicitly on first credit and never deleted; a zero balance persists.
type Balance struct {
	UserID    string
	Asset     Asset
	Amount    Amount
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks that amount can be taken without going negative.
// Non-negativity is the ledger's core invariant: no operation may leave a
// balance below zero.
func (b *Balance) ValidateDebit(amount Amount) error {
	if b.Amount.LessThan(amount) {
		return ErrInsufficientBalance
	}

	return nil
}

// ApplyDebit returns the balance after a debit.
func (b *Balance) ApplyDebit(amount Amount) Amount {
	return b.Amount.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (b *Balance) ApplyCredit(amount Amount) Amount {
	return b.Amount.Add(amount)
}
