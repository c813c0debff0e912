package usecase

import (
	"context"
	"time"

	"github.com/justthetip/tipledger/internal/domain"
)

// ReconciliationUseCase builds the operator view of the ledger: per-asset
// custodial liability, accumulated fees and the failed-withdrawal backlog
// that the stuck-debit settlement policy leaves for manual resolution.
type ReconciliationUseCase struct {
	balanceRepo BalanceRepository
	historyRepo HistoryRepository
}

// NewReconciliationUseCase creates a new reconciliation use case.
func NewReconciliationUseCase(balanceRepo BalanceRepository, historyRepo HistoryRepository) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		balanceRepo: balanceRepo,
		historyRepo: historyRepo,
	}
}

// AssetTotals is one asset line of the reconciliation report.
type AssetTotals struct {
	Asset             domain.Asset
	TotalBalances     domain.Amount
	FeesCollected     domain.Amount
	FailedWithdrawals domain.Amount
}

// ReconciliationReport is the full operator report.
type ReconciliationReport struct {
	Assets    []AssetTotals
	CheckedAt time.Time
}

// GenerateReport assembles totals per supported asset.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*ReconciliationReport, error) {
	balances, err := uc.balanceRepo.SumByAsset(ctx)
	if err != nil {
		return nil, err
	}

	fees, err := uc.historyRepo.SumByKind(ctx, domain.HistoryKindFee)
	if err != nil {
		return nil, err
	}

	failed, err := uc.historyRepo.SumByKind(ctx, domain.HistoryKindWithdrawFailed)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{CheckedAt: time.Now().UTC()}

	for _, asset := range domain.SupportedAssets() {
		totals := AssetTotals{
			Asset:             asset,
			TotalBalances:     domain.ZeroAmount,
			FeesCollected:     domain.ZeroAmount,
			FailedWithdrawals: domain.ZeroAmount,
		}

		if v, ok := balances[asset]; ok {
			totals.TotalBalances = v
		}
		if v, ok := fees[asset]; ok {
			totals.FeesCollected = v
		}
		if v, ok := failed[asset]; ok {
			totals.FailedWithdrawals = v
		}

		report.Assets = append(report.Assets, totals)
	}

	return report, nil
}
