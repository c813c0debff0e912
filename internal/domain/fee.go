package domain

import "github.com/shopspring/decimal"

// FeeSplit is the result of applying the deposit fee policy to a gross
// amount. Net + Fee always equals the gross amount exactly; truncation happens
// only on the fee side, in the depositor's favor.
type FeeSplit struct {
	Net Amount
	Fee Amount
}

// ApplyFee computes fee = floor(gross * rate) at the ledger precision and
// net = gross - fee. Pure function; crediting the two parts is the caller's
// job. A zero or negative rate yields a zero fee.
func ApplyFee(gross Amount, rate decimal.Decimal) FeeSplit {
	if rate.LessThanOrEqual(decimal.Zero) {
		return FeeSplit{Net: gross, Fee: ZeroAmount}
	}

	fee := gross.MulRate(rate)
	if fee.IsNegative() {
		fee = ZeroAmount
	}

	return FeeSplit{
		Net: gross.Sub(fee),
		Fee: fee,
	}
}
