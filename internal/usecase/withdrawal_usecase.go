package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/infrastructure/metrics"
)

// WithdrawalUseCase orchestrates the two-phase withdrawal protocol: an
// off-chain debit committed first, then an external on-chain transfer whose
// failure is compensated by audit records, never by an automatic reversal.
type WithdrawalUseCase struct {
	txManager         TransactionManager
	balanceRepo       BalanceRepository
	walletRepo        WalletRepository
	historyRepo       HistoryRepository
	settlers          SettlerRegistry
	idGen             IDGenerator
	withdrawalAssets  map[domain.Asset]bool
	settlementTimeout time.Duration
	metrics           *metrics.Metrics
	logger            zerolog.Logger
}

// NewWithdrawalUseCase creates a new WithdrawalUseCase. withdrawalAssets is
// the per-deployment set of assets eligible for withdrawal.
func NewWithdrawalUseCase(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	walletRepo WalletRepository,
	historyRepo HistoryRepository,
	settlers SettlerRegistry,
	idGen IDGenerator,
	withdrawalAssets []domain.Asset,
	settlementTimeout time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *WithdrawalUseCase {
	eligible := make(map[domain.Asset]bool, len(withdrawalAssets))
	for _, a := range withdrawalAssets {
		eligible[a] = true
	}

	return &WithdrawalUseCase{
		txManager:         txManager,
		balanceRepo:       balanceRepo,
		walletRepo:        walletRepo,
		historyRepo:       historyRepo,
		settlers:          settlers,
		idGen:             idGen,
		withdrawalAssets:  eligible,
		settlementTimeout: settlementTimeout,
		metrics:           m,
		logger:            logger,
	}
}

// RequestWithdrawalInput describes a withdrawal request.
type RequestWithdrawalInput struct {
	UserID string
	Asset  domain.Asset
	Amount domain.Amount
}

// RequestWithdrawal runs the state machine:
//
//  1. Requested: validate amount, asset eligibility and registered wallet.
//     Nothing is mutated on a validation failure.
//  2. Debited: atomically debit the ledger balance. The debit transaction
//     commits and releases its lock before any external call, so a hanging
//     chain cannot stall unrelated ledger operations.
//  3. Settled / SettlementFailed: call the per-asset settler once, with the
//     configured timeout. On failure the debit stands and a withdraw_failed
//     history record carries the debited amount and error for reconciliation.
func (uc *WithdrawalUseCase) RequestWithdrawal(ctx context.Context, input RequestWithdrawalInput) (*domain.WithdrawalReceipt, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	if !uc.withdrawalAssets[input.Asset] {
		return nil, domain.ErrUnsupportedAsset
	}

	settler, ok := uc.settlers.For(input.Asset)
	if !ok {
		return nil, domain.ErrUnsupportedAsset
	}

	wallet, err := uc.walletRepo.Get(ctx, input.UserID, input.Asset)
	if err != nil {
		return nil, err
	}

	correlationID := uc.idGen.Generate()

	// Phase 2: debit, committed before the external call.
	if err := uc.debit(ctx, input, correlationID, wallet.Address); err != nil {
		return nil, err
	}

	// Phase 3: external transfer, strictly after the debit commit.
	sendCtx := ctx
	if uc.settlementTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, uc.settlementTimeout)
		defer cancel()
	}

	reference, sendErr := settler.Send(sendCtx, input.Asset, wallet.Address, input.Amount)

	now := time.Now().UTC()
	receipt := &domain.WithdrawalReceipt{
		UserID:        input.UserID,
		Asset:         input.Asset,
		DebitedAmount: input.Amount,
		Destination:   wallet.Address,
		CompletedAt:   now,
	}

	if sendErr != nil {
		receipt.Status = domain.WithdrawalStatusSettlementFailed
		receipt.Err = sendErr.Error()

		uc.logger.Error().Err(sendErr).
			Str("user_id", input.UserID).
			Str("asset", input.Asset.String()).
			Str("amount", input.Amount.String()).
			Str("destination", wallet.Address).
			Str("correlation_id", correlationID).
			Msg("withdrawal settlement failed; balance remains debited")

		if err := uc.appendSettlementRecord(ctx, input, correlationID, domain.HistoryKindWithdrawFailed, "", sendErr.Error(), now); err != nil {
			// The caller still gets the failure receipt; the missing audit
			// record is itself a reconciliation discrepancy worth shouting about.
			uc.logger.Error().Err(err).Str("correlation_id", correlationID).Msg("failed to record failed withdrawal")
		}

		if uc.metrics != nil {
			uc.metrics.Withdrawals.WithLabelValues(string(domain.WithdrawalStatusSettlementFailed)).Inc()
		}

		return receipt, nil
	}

	receipt.Status = domain.WithdrawalStatusSettled
	receipt.Reference = reference

	if err := uc.appendSettlementRecord(ctx, input, correlationID, domain.HistoryKindWithdraw, reference, "", now); err != nil {
		uc.logger.Error().Err(err).Str("correlation_id", correlationID).Msg("failed to record settled withdrawal")
	}

	if uc.metrics != nil {
		uc.metrics.Withdrawals.WithLabelValues(string(domain.WithdrawalStatusSettled)).Inc()
	}

	return receipt, nil
}

func (uc *WithdrawalUseCase) debit(ctx context.Context, input RequestWithdrawalInput, correlationID, destination string) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, input.UserID, input.Asset)
	if err != nil {
		return err
	}

	if err := balance.ValidateDebit(input.Amount); err != nil {
		return err
	}

	now := time.Now().UTC()

	if err := uc.balanceRepo.UpdateAmount(txCtx, tx, input.UserID, input.Asset, balance.ApplyDebit(input.Amount), now); err != nil {
		return err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        input.UserID,
		Kind:          domain.HistoryKindDebit,
		Asset:         input.Asset,
		Amount:        input.Amount,
		CorrelationID: correlationID,
		Detail:        "withdrawal debit to " + destination,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// appendSettlementRecord writes the settlement outcome to the audit log in
// its own transaction; the debit has already committed.
func (uc *WithdrawalUseCase) appendSettlementRecord(
	ctx context.Context,
	input RequestWithdrawalInput,
	correlationID string,
	kind domain.HistoryKind,
	reference, detail string,
	now time.Time,
) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.historyRepo.Create(txCtx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        input.UserID,
		Kind:          kind,
		Asset:         input.Asset,
		Amount:        input.Amount,
		CorrelationID: correlationID,
		Reference:     reference,
		Detail:        detail,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}
