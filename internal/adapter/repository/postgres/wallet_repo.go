package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justthetip/tipledger/internal/domain"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Upsert stores or overwrites the registered address for (user, asset).
func (r *WalletRepository) Upsert(ctx context.Context, reg *domain.WalletRegistration) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallets (user_id, asset, address, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, asset)
		 DO UPDATE SET address = EXCLUDED.address, updated_at = EXCLUDED.updated_at`,
		reg.UserID, reg.Asset.String(), reg.Address,
		timeToPgTimestamptz(reg.CreatedAt), timeToPgTimestamptz(reg.UpdatedAt),
	)

	return err
}

// Get retrieves the registered address for (user, asset).
func (r *WalletRepository) Get(ctx context.Context, userID string, asset domain.Asset) (*domain.WalletRegistration, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, asset, address, created_at, updated_at
		 FROM wallets WHERE user_id = $1 AND asset = $2`,
		userID, asset.String(),
	)

	var reg domain.WalletRegistration
	var assetStr string
	var createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&reg.UserID, &assetStr, &reg.Address, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoRegisteredWallet
		}

		return nil, err
	}

	parsed, err := domain.ParseAsset(assetStr)
	if err != nil {
		return nil, err
	}

	reg.Asset = parsed
	reg.CreatedAt = createdAt.Time
	reg.UpdatedAt = updatedAt.Time

	return &reg, nil
}
