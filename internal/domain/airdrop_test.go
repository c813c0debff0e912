package domain_test

import (
	"testing"
	"time"

	"github.com/justthetip/tipledger/internal/domain"
)

func mustAmount(t *testing.T, s string) domain.Amount {
	t.Helper()

	a, err := domain.ParseAmount(s)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}

	return a
}

func TestAirdropShare(t *testing.T) {
	a := &domain.Airdrop{
		TotalAmount:  mustAmount(t, "1.00000000"),
		MaxClaimants: 3,
	}

	if got := a.Share().String(); got != "0.33333333" {
		t.Errorf("share = %s, want 0.33333333", got)
	}
}

func TestAirdropOpen(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name    string
		airdrop domain.Airdrop
		want    bool
	}{
		{
			name:    "active no expiry",
			airdrop: domain.Airdrop{Active: true, MaxClaimants: 2},
			want:    true,
		},
		{
			name:    "inactive",
			airdrop: domain.Airdrop{Active: false, MaxClaimants: 2},
			want:    false,
		},
		{
			name:    "expired",
			airdrop: domain.Airdrop{Active: true, MaxClaimants: 2, ExpiresAt: &past},
			want:    false,
		},
		{
			name:    "not yet expired",
			airdrop: domain.Airdrop{Active: true, MaxClaimants: 2, ExpiresAt: &future},
			want:    true,
		},
		{
			name:    "cap reached",
			airdrop: domain.Airdrop{Active: true, MaxClaimants: 2, Claimants: []string{"u1", "u2"}},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.airdrop.Open(now); got != tt.want {
				t.Errorf("Open() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAirdropValidate(t *testing.T) {
	valid := domain.Airdrop{TotalAmount: mustAmount(t, "1"), MaxClaimants: 10}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	zeroTotal := domain.Airdrop{TotalAmount: domain.ZeroAmount, MaxClaimants: 1}
	if err := zeroTotal.Validate(); err == nil {
		t.Error("expected error for zero total")
	}

	zeroCap := domain.Airdrop{TotalAmount: mustAmount(t, "1"), MaxClaimants: 0}
	if err := zeroCap.Validate(); err == nil {
		t.Error("expected error for zero cap")
	}

	// 0.00000005 across 10 slots floors each share to zero.
	dust := domain.Airdrop{TotalAmount: mustAmount(t, "0.00000005"), MaxClaimants: 10}
	if err := dust.Validate(); err == nil {
		t.Error("expected error when share floors to zero")
	}
}

func TestAirdropHasClaimed(t *testing.T) {
	a := domain.Airdrop{Claimants: []string{"u1", "u2"}}

	if !a.HasClaimed("u1") {
		t.Error("expected u1 to have claimed")
	}
	if a.HasClaimed("u3") {
		t.Error("did not expect u3 to have claimed")
	}
}
