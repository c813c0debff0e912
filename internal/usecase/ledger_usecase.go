package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/infrastructure/metrics"
)

// FeePolicy configures the deposit fee split.
type FeePolicy struct {
	// Rate is the fraction of a gross deposit taken as a fee.
	Rate decimal.Decimal
	// Collectors maps each asset to the ledger identity receiving its fees.
	Collectors map[domain.Asset]string
}

// Collector returns the fee-collector identity for an asset, if configured.
func (p FeePolicy) Collector(asset domain.Asset) (string, bool) {
	id, ok := p.Collectors[asset]
	return id, ok && id != ""
}

// LedgerUseCase implements the balance primitives: credit, debit, transfer
// and the flows composed from them (deposit with fee split, tip, burn).
type LedgerUseCase struct {
	txManager   TransactionManager
	balanceRepo BalanceRepository
	historyRepo HistoryRepository
	idGen       IDGenerator
	feePolicy   FeePolicy
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	historyRepo HistoryRepository,
	idGen IDGenerator,
	feePolicy FeePolicy,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		balanceRepo: balanceRepo,
		historyRepo: historyRepo,
		idGen:       idGen,
		feePolicy:   feePolicy,
		metrics:     m,
		logger:      logger,
	}
}

// GetBalance returns the balance for (user, asset), zero if no row exists.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, userID string, asset domain.Asset) (domain.Amount, error) {
	b, err := uc.balanceRepo.Get(ctx, userID, asset)
	if err != nil {
		return domain.ZeroAmount, err
	}

	return b.Amount, nil
}

// ListBalances returns every balance row for a user.
func (uc *LedgerUseCase) ListBalances(ctx context.Context, userID string) ([]*domain.Balance, error) {
	return uc.balanceRepo.ListByUser(ctx, userID)
}

// CreditInput describes a single credit operation.
type CreditInput struct {
	UserID        string
	Asset         domain.Asset
	Amount        domain.Amount
	Kind          domain.HistoryKind
	CorrelationID string
	Detail        string
}

// Credit atomically increases a balance and appends its history entry.
func (uc *LedgerUseCase) Credit(ctx context.Context, input CreditInput) error {
	if !input.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.creditInTx(txCtx, tx, input, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// DebitInput describes a single debit operation.
type DebitInput struct {
	UserID        string
	Asset         domain.Asset
	Amount        domain.Amount
	Kind          domain.HistoryKind
	CorrelationID string
	Detail        string
}

// Debit atomically checks and decreases a balance, appending its history
// entry. The check and the decrement happen under one row lock: two
// concurrent debits of 6 against a balance of 10 can never both succeed.
func (uc *LedgerUseCase) Debit(ctx context.Context, input DebitInput) error {
	if !input.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.debitInTx(txCtx, tx, input, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// TransferInput describes an atomic balance movement between two users.
type TransferInput struct {
	FromUserID    string
	ToUserID      string
	Asset         domain.Asset
	Amount        domain.Amount
	KindOut       domain.HistoryKind
	KindIn        domain.HistoryKind
	CorrelationID string
	Detail        string
}

// Transfer moves amount between two users in one transaction: either both
// balances change by exactly -x/+x with both history entries written, or
// nothing happens at all.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) error {
	if !input.Amount.IsPositive() {
		return domain.ErrInvalidAmount
	}

	if input.FromUserID == input.ToUserID {
		return domain.ErrSameAccount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock both rows in sorted key order to prevent deadlocks.
	keys := []BalanceKey{
		{UserID: input.FromUserID, Asset: input.Asset},
		{UserID: input.ToUserID, Asset: input.Asset},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].UserID < keys[j].UserID })

	balances, err := uc.balanceRepo.GetManyForUpdate(txCtx, tx, keys)
	if err != nil {
		return err
	}

	byUser := make(map[string]*domain.Balance, len(balances))
	for _, b := range balances {
		byUser[b.UserID] = b
	}

	from := byUser[input.FromUserID]
	to := byUser[input.ToUserID]

	if err := from.ValidateDebit(input.Amount); err != nil {
		return err
	}

	now := time.Now().UTC()

	if err := uc.balanceRepo.UpdateAmount(txCtx, tx, from.UserID, input.Asset, from.ApplyDebit(input.Amount), now); err != nil {
		return err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        from.UserID,
		Kind:          input.KindOut,
		Asset:         input.Asset,
		Amount:        input.Amount,
		CorrelationID: input.CorrelationID,
		Detail:        input.Detail,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	if err := uc.balanceRepo.UpdateAmount(txCtx, tx, to.UserID, input.Asset, to.ApplyCredit(input.Amount), now); err != nil {
		return err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        to.UserID,
		Kind:          input.KindIn,
		Asset:         input.Asset,
		Amount:        input.Amount,
		CorrelationID: input.CorrelationID,
		Detail:        input.Detail,
		CreatedAt:     now,
	}); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// DepositInput describes a gross deposit to be credited with the fee split.
type DepositInput struct {
	UserID string
	Asset  domain.Asset
	Gross  domain.Amount
}

// DepositResult reports how a gross deposit was split.
type DepositResult struct {
	Net           domain.Amount
	Fee           domain.Amount
	CorrelationID string
}

// Deposit credits a gross amount as net-to-user plus fee-to-collector, two
// causally linked credits sharing a correlation id. The user's net credit is
// the source of truth for deposit success: a fee-credit failure is logged as
// a reconciliation discrepancy and never rolls the net credit back.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	if !input.Gross.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	split := domain.ApplyFee(input.Gross, uc.feePolicy.Rate)
	correlationID := uc.idGen.Generate()

	if err := uc.Credit(ctx, CreditInput{
		UserID:        input.UserID,
		Asset:         input.Asset,
		Amount:        split.Net,
		Kind:          domain.HistoryKindDeposit,
		CorrelationID: correlationID,
	}); err != nil {
		return nil, err
	}

	if split.Fee.IsPositive() {
		if collector, ok := uc.feePolicy.Collector(input.Asset); ok {
			if err := uc.Credit(ctx, CreditInput{
				UserID:        collector,
				Asset:         input.Asset,
				Amount:        split.Fee,
				Kind:          domain.HistoryKindFee,
				CorrelationID: correlationID,
				Detail:        "deposit fee from " + input.UserID,
			}); err != nil {
				uc.logger.Error().Err(err).
					Str("correlation_id", correlationID).
					Str("asset", input.Asset.String()).
					Str("fee", split.Fee.String()).
					Msg("fee credit failed after net credit; reconciliation required")

				if uc.metrics != nil {
					uc.metrics.FeeCreditFailures.Inc()
				}
			}
		}
	}

	if uc.metrics != nil {
		uc.metrics.DepositsProcessed.Inc()
	}

	return &DepositResult{Net: split.Net, Fee: split.Fee, CorrelationID: correlationID}, nil
}

// TipInput describes a tip between two users.
type TipInput struct {
	FromUserID string
	ToUserID   string
	Asset      domain.Asset
	Amount     domain.Amount
}

// Tip transfers between two users with tip history kinds.
func (uc *LedgerUseCase) Tip(ctx context.Context, input TipInput) error {
	err := uc.Transfer(ctx, TransferInput{
		FromUserID:    input.FromUserID,
		ToUserID:      input.ToUserID,
		Asset:         input.Asset,
		Amount:        input.Amount,
		KindOut:       domain.HistoryKindTipOut,
		KindIn:        domain.HistoryKindTipIn,
		CorrelationID: uc.idGen.Generate(),
	})
	if err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.TipsProcessed.Inc()
	}

	return nil
}

// BurnResult reports what a burn moved.
type BurnResult struct {
	Amount domain.Amount
}

// Burn donates the user's entire balance of an asset to the fee collector.
func (uc *LedgerUseCase) Burn(ctx context.Context, userID string, asset domain.Asset) (*BurnResult, error) {
	collector, ok := uc.feePolicy.Collector(asset)
	if !ok {
		return nil, domain.ErrUnsupportedAsset
	}

	balance, err := uc.balanceRepo.Get(ctx, userID, asset)
	if err != nil {
		return nil, err
	}

	if !balance.Amount.IsPositive() {
		return nil, domain.ErrInsufficientBalance
	}

	// The balance may move between the read and the transfer; the transfer
	// re-validates under the row lock, so the worst case is a clean failure.
	err = uc.Transfer(ctx, TransferInput{
		FromUserID:    userID,
		ToUserID:      collector,
		Asset:         asset,
		Amount:        balance.Amount,
		KindOut:       domain.HistoryKindBurn,
		KindIn:        domain.HistoryKindFee,
		CorrelationID: uc.idGen.Generate(),
		Detail:        "burn donation",
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BurnsProcessed.Inc()
	}

	return &BurnResult{Amount: balance.Amount}, nil
}

// creditInTx applies a credit under an already-open transaction.
func (uc *LedgerUseCase) creditInTx(ctx context.Context, tx Transaction, input CreditInput, now time.Time) error {
	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, input.UserID, input.Asset)
	if err != nil {
		return err
	}

	if err := uc.balanceRepo.UpdateAmount(ctx, tx, input.UserID, input.Asset, balance.ApplyCredit(input.Amount), now); err != nil {
		return err
	}

	return uc.historyRepo.Create(ctx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        input.UserID,
		Kind:          input.Kind,
		Asset:         input.Asset,
		Amount:        input.Amount,
		CorrelationID: input.CorrelationID,
		Detail:        input.Detail,
		CreatedAt:     now,
	})
}

// debitInTx applies a debit under an already-open transaction.
func (uc *LedgerUseCase) debitInTx(ctx context.Context, tx Transaction, input DebitInput, now time.Time) error {
	balance, err := uc.balanceRepo.GetForUpdate(ctx, tx, input.UserID, input.Asset)
	if err != nil {
		return err
	}

	if err := balance.ValidateDebit(input.Amount); err != nil {
		return err
	}

	if err := uc.balanceRepo.UpdateAmount(ctx, tx, input.UserID, input.Asset, balance.ApplyDebit(input.Amount), now); err != nil {
		return err
	}

	return uc.historyRepo.Create(ctx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        input.UserID,
		Kind:          input.Kind,
		Asset:         input.Asset,
		Amount:        input.Amount,
		CorrelationID: input.CorrelationID,
		Detail:        input.Detail,
		CreatedAt:     now,
	})
}
