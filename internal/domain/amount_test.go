package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justthetip/tipledger/internal/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "whole number", input: "10", want: "10.00000000"},
		{name: "max precision", input: "0.00000001", want: "0.00000001"},
		{name: "eight digits", input: "10.12345678", want: "10.12345678"},
		{name: "trailing zeros", input: "5.10000000", want: "5.10000000"},
		{name: "negative parses", input: "-3.5", want: "-3.50000000"},
		{name: "too many digits", input: "0.000000001", wantErr: true},
		{name: "nine digits", input: "1.123456789", wantErr: true},
		{name: "not a number", input: "ten", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage suffix", input: "1.5x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ParseAmount(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidAmount)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParsePositiveAmount(t *testing.T) {
	_, err := domain.ParsePositiveAmount("0")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = domain.ParsePositiveAmount("-1")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	a, err := domain.ParsePositiveAmount("0.00000001")
	require.NoError(t, err)
	assert.True(t, a.IsPositive())
}

func TestAmountArithmetic(t *testing.T) {
	ten, err := domain.ParseAmount("10.00000000")
	require.NoError(t, err)

	tiny, err := domain.ParseAmount("0.00000001")
	require.NoError(t, err)

	sum := ten.Add(tiny)
	assert.Equal(t, "10.00000001", sum.String())

	diff := sum.Sub(tiny)
	assert.True(t, diff.Equal(ten))
	assert.Equal(t, 0, diff.Cmp(ten))
	assert.True(t, ten.LessThan(sum))
}

func TestAmountMulRateTruncates(t *testing.T) {
	// 0.00000003 * 0.5 = 0.000000015 which must floor to 0.00000001,
	// never round to 0.00000002.
	a, err := domain.ParseAmount("0.00000003")
	require.NoError(t, err)

	half := decimal.RequireFromString("0.5")
	assert.Equal(t, "0.00000001", a.MulRate(half).String())
}

func TestAmountDivFloor(t *testing.T) {
	one, err := domain.ParseAmount("1.00000000")
	require.NoError(t, err)

	share := one.DivFloor(3)
	assert.Equal(t, "0.33333333", share.String())

	// Three shares leave 0.00000001 forfeited.
	total := share.Add(share).Add(share)
	assert.Equal(t, "0.99999999", total.String())

	assert.True(t, one.DivFloor(0).IsZero())
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a, err := domain.ParseAmount("12.34567891")
	require.NoError(t, err)

	data, err := a.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"12.34567891"`, string(data))

	var back domain.Amount
	require.NoError(t, back.UnmarshalJSON(data))
	assert.True(t, back.Equal(a))
}
