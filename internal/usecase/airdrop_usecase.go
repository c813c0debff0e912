package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/infrastructure/metrics"
)

// AirdropUseCase implements the airdrop state machine: fund-on-create,
// claim-once per user, close on cap or expiry.
type AirdropUseCase struct {
	txManager   TransactionManager
	balanceRepo BalanceRepository
	airdropRepo AirdropRepository
	historyRepo HistoryRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAirdropUseCase creates a new AirdropUseCase.
func NewAirdropUseCase(
	txManager TransactionManager,
	balanceRepo BalanceRepository,
	airdropRepo AirdropRepository,
	historyRepo HistoryRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AirdropUseCase {
	return &AirdropUseCase{
		txManager:   txManager,
		balanceRepo: balanceRepo,
		airdropRepo: airdropRepo,
		historyRepo: historyRepo,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// CreateAirdropInput describes a new airdrop.
type CreateAirdropInput struct {
	CreatorID    string
	Asset        domain.Asset
	TotalAmount  domain.Amount
	MaxClaimants int
	ExpiresIn    time.Duration
}

// CreateAirdrop debits the creator and persists the airdrop atomically. The
// funded total is held by the airdrop record, not by any account, until it is
// claimed slot by slot.
func (uc *AirdropUseCase) CreateAirdrop(ctx context.Context, input CreateAirdropInput) (*domain.Airdrop, error) {
	now := time.Now().UTC()

	airdrop := &domain.Airdrop{
		ID:           uc.idGen.Generate(),
		CreatorID:    input.CreatorID,
		Asset:        input.Asset,
		TotalAmount:  input.TotalAmount,
		MaxClaimants: input.MaxClaimants,
		// Non-nil so the claimants array column stores {} rather than NULL.
		Claimants: []string{},
		Active:       true,
		CreatedAt:    now,
	}
	if input.ExpiresIn > 0 {
		expires := now.Add(input.ExpiresIn)
		airdrop.ExpiresAt = &expires
	}

	if err := airdrop.Validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, input.CreatorID, input.Asset)
	if err != nil {
		return nil, err
	}

	if err := balance.ValidateDebit(input.TotalAmount); err != nil {
		return nil, err
	}

	if err := uc.balanceRepo.UpdateAmount(txCtx, tx, input.CreatorID, input.Asset, balance.ApplyDebit(input.TotalAmount), now); err != nil {
		return nil, err
	}

	if err := uc.airdropRepo.Create(txCtx, tx, airdrop); err != nil {
		return nil, err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        input.CreatorID,
		Kind:          domain.HistoryKindAirdropFund,
		Asset:         input.Asset,
		Amount:        input.TotalAmount,
		CorrelationID: airdrop.ID,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AirdropsCreated.Inc()
	}

	return airdrop, nil
}

// ClaimOutcome reports the result of a claim attempt and, when claimed, the
// credited share.
type ClaimOutcome struct {
	Result domain.ClaimResult
	Share  domain.Amount
	Asset  domain.Asset
}

// Claim attempts to collect one share for userID. Adding the claimant and
// crediting the share commit as one unit: a user is never recorded as having
// claimed without receiving the credit, nor the reverse. The airdrop row lock
// serializes concurrent claims, so a duplicate identity yields exactly one
// claimed result and a last-slot race admits exactly one winner.
func (uc *AirdropUseCase) Claim(ctx context.Context, airdropID, userID string) (*ClaimOutcome, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	airdrop, err := uc.airdropRepo.GetByIDForUpdate(txCtx, tx, airdropID)
	if err != nil {
		if errors.Is(err, domain.ErrAirdropNotFound) {
			return &ClaimOutcome{Result: domain.ClaimResultEnded}, nil
		}

		return nil, err
	}

	now := time.Now().UTC()

	// Closure wins over claim history: once an airdrop has ended, every
	// attempt reports ended, prior claimants included.
	if !airdrop.Open(now) {
		// Expiry observed lazily here; the sweeper is only an optimization.
		if airdrop.Active && airdrop.Expired(now) {
			if err := uc.airdropRepo.Close(txCtx, tx, airdrop.ID, now); err != nil {
				return nil, err
			}
			if err := tx.Commit(txCtx); err != nil {
				return nil, err
			}
		}

		uc.countClaim(domain.ClaimResultEnded)
		return &ClaimOutcome{Result: domain.ClaimResultEnded, Asset: airdrop.Asset}, nil
	}

	if airdrop.HasClaimed(userID) {
		uc.countClaim(domain.ClaimResultAlreadyClaimed)
		return &ClaimOutcome{Result: domain.ClaimResultAlreadyClaimed, Asset: airdrop.Asset}, nil
	}

	share := airdrop.Share()
	closes := len(airdrop.Claimants)+1 >= airdrop.MaxClaimants

	if err := uc.airdropRepo.AddClaimant(txCtx, tx, airdrop.ID, userID, closes, now); err != nil {
		return nil, err
	}

	balance, err := uc.balanceRepo.GetForUpdate(txCtx, tx, userID, airdrop.Asset)
	if err != nil {
		return nil, err
	}

	if err := uc.balanceRepo.UpdateAmount(txCtx, tx, userID, airdrop.Asset, balance.ApplyCredit(share), now); err != nil {
		return nil, err
	}

	if err := uc.historyRepo.Create(txCtx, tx, &domain.HistoryEntry{
		ID:            uc.idGen.Generate(),
		UserID:        userID,
		Kind:          domain.HistoryKindAirdropClaim,
		Asset:         airdrop.Asset,
		Amount:        share,
		CorrelationID: airdrop.ID,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.countClaim(domain.ClaimResultClaimed)

	return &ClaimOutcome{Result: domain.ClaimResultClaimed, Share: share, Asset: airdrop.Asset}, nil
}

func (uc *AirdropUseCase) countClaim(result domain.ClaimResult) {
	if uc.metrics != nil {
		uc.metrics.AirdropClaims.WithLabelValues(string(result)).Inc()
	}
}

// GetAirdrop retrieves an airdrop by id.
func (uc *AirdropUseCase) GetAirdrop(ctx context.Context, id string) (*domain.Airdrop, error) {
	return uc.airdropRepo.GetByID(ctx, id)
}

// LatestActive returns the most recent open airdrop, if any.
func (uc *AirdropUseCase) LatestActive(ctx context.Context) (*domain.Airdrop, error) {
	return uc.airdropRepo.GetLatestActive(ctx, time.Now().UTC())
}

// CloseExpired deactivates airdrops whose window has elapsed.
func (uc *AirdropUseCase) CloseExpired(ctx context.Context) (int64, error) {
	return uc.airdropRepo.CloseExpired(ctx, time.Now().UTC())
}

// RunExpirySweeper periodically closes expired airdrops until ctx is done.
// Claims do not depend on it: the claim path re-checks expiry under lock.
func (uc *AirdropUseCase) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed, err := uc.CloseExpired(ctx)
			if err != nil {
				uc.logger.Error().Err(err).Msg("airdrop expiry sweep failed")
				continue
			}

			if closed > 0 {
				if uc.metrics != nil {
					uc.metrics.AirdropsSwept.Add(float64(closed))
				}

				uc.logger.Info().Int64("closed", closed).Msg("closed expired airdrops")
			}
		}
	}
}
