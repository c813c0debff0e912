package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPrecision is the number of fractional digits carried by every
// monetary value in the ledger (1e-8 of the display unit).
const AmountPrecision = 8

// Amount is a fixed-precision monetary quantity. Every Amount is truncated
// toward zero at 8 fractional digits; arithmetic never rounds up, so repeated
// operations cannot drift above what was actually funded.
type Amount struct {
	d decimal.Decimal
}

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{d: decimal.Zero}

// NewAmount truncates d to the ledger precision.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d.Truncate(AmountPrecision)}
}

// AmountFromInt returns an Amount holding whole display units.
func AmountFromInt(n int64) Amount {
	return Amount{d: decimal.NewFromInt(n)}
}

// ParseAmount parses a user-supplied decimal string. It rejects non-numeric
// content and values with more than 8 fractional digits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAmount, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroAmount, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}

	if d.Exponent() < -AmountPrecision {
		return ZeroAmount, fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, AmountPrecision)
	}

	return Amount{d: d}, nil
}

// ParsePositiveAmount parses like ParseAmount and additionally rejects zero
// and negative values. Deposits, tips, withdrawals and airdrop funding all
// require strictly positive amounts.
func ParsePositiveAmount(s string) (Amount, error) {
	a, err := ParseAmount(s)
	if err != nil {
		return ZeroAmount, err
	}

	if !a.IsPositive() {
		return ZeroAmount, fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}

	return a, nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// MulRate multiplies by a rate and truncates the product toward zero at the
// ledger precision. Used by the fee policy: fee = floor(gross * rate).
func (a Amount) MulRate(rate decimal.Decimal) Amount {
	return Amount{d: a.d.Mul(rate).Truncate(AmountPrecision)}
}

// DivFloor divides by n claimant slots, truncating toward zero. The division
// remainder is forfeited; it is never redistributed.
func (a Amount) DivFloor(n int64) Amount {
	if n <= 0 {
		return ZeroAmount
	}

	return Amount{d: a.d.Div(decimal.NewFromInt(n)).Truncate(AmountPrecision)}
}

// Cmp returns -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports exact equality.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) bool {
	return a.d.LessThan(b.d)
}

// IsPositive reports a > 0.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// IsNegative reports a < 0.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// IsZero reports a == 0.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// Decimal exposes the underlying decimal for storage adapters.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders with the full 8 fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(AmountPrecision)
}

// MarshalJSON renders the amount as a JSON string to avoid float loss.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON parses a JSON string or bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)

	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}
