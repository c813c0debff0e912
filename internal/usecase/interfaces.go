package usecase

import (
	"context"
	"time"

	"github.com/justthetip/tipledger/internal/domain"
)

// BalanceKey identifies one ledger row.
type BalanceKey struct {
	UserID string
	Asset  domain.Asset
}

// BalanceRepository defines data access for (user, asset) balances.
type BalanceRepository interface {
	// Get returns a zero balance if no row exists; it never fails for a
	// well-formed key.
	Get(ctx context.Context, userID string, asset domain.Asset) (*domain.Balance, error)
	// GetForUpdate locks the row for the duration of tx, creating it with a
	// zero balance first if absent.
	GetForUpdate(ctx context.Context, tx Transaction, userID string, asset domain.Asset) (*domain.Balance, error)
	// GetManyForUpdate locks several rows. Implementations must acquire the
	// locks in a deterministic (sorted) key order to prevent deadlocks.
	GetManyForUpdate(ctx context.Context, tx Transaction, keys []BalanceKey) ([]*domain.Balance, error)
	UpdateAmount(ctx context.Context, tx Transaction, userID string, asset domain.Asset, amount domain.Amount, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Balance, error)
	// SumByAsset returns the total custodial liability per asset.
	SumByAsset(ctx context.Context) (map[domain.Asset]domain.Amount, error)
}

// WalletRepository defines data access for wallet registrations.
type WalletRepository interface {
	Upsert(ctx context.Context, reg *domain.WalletRegistration) error
	// Get returns domain.ErrNoRegisteredWallet if no address is registered.
	Get(ctx context.Context, userID string, asset domain.Asset) (*domain.WalletRegistration, error)
}

// AirdropRepository defines data access for airdrop records.
type AirdropRepository interface {
	Create(ctx context.Context, tx Transaction, airdrop *domain.Airdrop) error
	GetByID(ctx context.Context, id string) (*domain.Airdrop, error)
	// GetByIDForUpdate locks the airdrop row so concurrent claims serialize.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Airdrop, error)
	// AddClaimant appends userID to the claimant set and, when close is set,
	// deactivates the airdrop in the same statement.
	AddClaimant(ctx context.Context, tx Transaction, id, userID string, close bool, now time.Time) error
	Close(ctx context.Context, tx Transaction, id string, now time.Time) error
	GetLatestActive(ctx context.Context, now time.Time) (*domain.Airdrop, error)
	// CloseExpired deactivates every active airdrop whose expiry has elapsed
	// and returns how many were closed.
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// HistoryRepository defines data access for the append-only audit log.
type HistoryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.HistoryEntry) error
	// ListByUser returns entries most recent first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryEntry, error)
	SumByKind(ctx context.Context, kind domain.HistoryKind) (map[domain.Asset]domain.Amount, error)
}

// Settler performs the external on-chain transfer that fulfils a withdrawal.
// One implementation per supported asset. The core calls Send at most once
// per withdrawal attempt; any retry policy lives behind this interface.
type Settler interface {
	Send(ctx context.Context, asset domain.Asset, destination string, amount domain.Amount) (reference string, err error)
}

// SettlerRegistry resolves the settlement collaborator for an asset.
type SettlerRegistry interface {
	For(asset domain.Asset) (Settler, bool)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
