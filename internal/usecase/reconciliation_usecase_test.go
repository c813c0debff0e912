package usecase_test

import (
	"context"
	"testing"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
	"github.com/justthetip/tipledger/internal/usecase/mocks"
)

func TestReconciliationUseCase_GenerateReport(t *testing.T) {
	balanceRepo := mocks.NewMockBalanceRepository()
	historyRepo := mocks.NewMockHistoryRepository()

	balanceRepo.Seed("u1", domain.AssetSOL, mustAmount(t, "3.00000000"))
	balanceRepo.Seed("u2", domain.AssetSOL, mustAmount(t, "2.00000000"))
	balanceRepo.Seed("u1", domain.AssetBTC, mustAmount(t, "0.50000000"))

	ctx := context.Background()

	seed := []struct {
		kind   domain.HistoryKind
		asset  domain.Asset
		amount string
	}{
		{domain.HistoryKindFee, domain.AssetSOL, "0.10000000"},
		{domain.HistoryKindFee, domain.AssetSOL, "0.05000000"},
		{domain.HistoryKindWithdrawFailed, domain.AssetBTC, "0.25000000"},
		{domain.HistoryKindDeposit, domain.AssetSOL, "100.00000000"},
	}
	for i, s := range seed {
		err := historyRepo.Create(ctx, nil, &domain.HistoryEntry{
			ID:     string(rune('a' + i)),
			UserID: "u1",
			Kind:   s.kind,
			Asset:  s.asset,
			Amount: mustAmount(t, s.amount),
		})
		if err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}

	uc := usecase.NewReconciliationUseCase(balanceRepo, historyRepo)

	report, err := uc.GenerateReport(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Assets) != len(domain.SupportedAssets()) {
		t.Fatalf("report covers %d assets, want %d", len(report.Assets), len(domain.SupportedAssets()))
	}

	byAsset := make(map[domain.Asset]usecase.AssetTotals)
	for _, totals := range report.Assets {
		byAsset[totals.Asset] = totals
	}

	sol := byAsset[domain.AssetSOL]
	if sol.TotalBalances.String() != "5.00000000" {
		t.Errorf("SOL total balances = %s, want 5.00000000", sol.TotalBalances)
	}
	if sol.FeesCollected.String() != "0.15000000" {
		t.Errorf("SOL fees = %s, want 0.15000000", sol.FeesCollected)
	}
	if !sol.FailedWithdrawals.IsZero() {
		t.Errorf("SOL failed withdrawals = %s, want 0", sol.FailedWithdrawals)
	}

	btc := byAsset[domain.AssetBTC]
	if btc.TotalBalances.String() != "0.50000000" {
		t.Errorf("BTC total balances = %s, want 0.50000000", btc.TotalBalances)
	}
	if btc.FailedWithdrawals.String() != "0.25000000" {
		t.Errorf("BTC failed withdrawals = %s, want 0.25000000", btc.FailedWithdrawals)
	}

	// Assets with no activity report explicit zeros, not missing lines.
	doge := byAsset[domain.AssetDOGE]
	if !doge.TotalBalances.IsZero() || !doge.FeesCollected.IsZero() || !doge.FailedWithdrawals.IsZero() {
		t.Errorf("DOGE totals should all be zero, got %+v", doge)
	}
}
