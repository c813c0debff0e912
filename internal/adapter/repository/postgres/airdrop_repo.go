package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

// AirdropRepository implements usecase.AirdropRepository. Claimants live in a
// text[] column; appends happen only under the airdrop row lock, so the array
// never sees concurrent writers.
type AirdropRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewAirdropRepository creates a new AirdropRepository.
func NewAirdropRepository(pool *pgxpool.Pool) *AirdropRepository {
	return &AirdropRepository{pool: pool, retrier: NewRetrier()}
}

const airdropColumns = `id, creator_id, asset, total_amount, max_claimants, claimants, active, created_at, expires_at`

// Create persists a new airdrop inside the funding transaction.
func (r *AirdropRepository) Create(ctx context.Context, tx usecase.Transaction, airdrop *domain.Airdrop) error {
	pgxTx := tx.(*Tx).PgxTx()

	var expiresAt pgtype.Timestamptz
	if airdrop.ExpiresAt != nil {
		expiresAt = timeToPgTimestamptz(*airdrop.ExpiresAt)
	}

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO airdrops (`+airdropColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		airdrop.ID, airdrop.CreatorID, airdrop.Asset.String(),
		amountToNumeric(airdrop.TotalAmount), airdrop.MaxClaimants,
		airdrop.Claimants, airdrop.Active,
		timeToPgTimestamptz(airdrop.CreatedAt), expiresAt,
	)

	return err
}

// GetByID retrieves an airdrop by id.
func (r *AirdropRepository) GetByID(ctx context.Context, id string) (*domain.Airdrop, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+airdropColumns+` FROM airdrops WHERE id = $1`, id,
	)

	return scanAirdrop(row)
}

// GetByIDForUpdate retrieves an airdrop with a FOR UPDATE lock. This lock
// serializes all claim attempts against one airdrop.
func (r *AirdropRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Airdrop, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx,
		`SELECT `+airdropColumns+` FROM airdrops WHERE id = $1 FOR UPDATE`, id,
	)

	return scanAirdrop(row)
}

// AddClaimant appends a claimant and optionally deactivates the airdrop when
// the new claimant fills the last slot.
func (r *AirdropRepository) AddClaimant(ctx context.Context, tx usecase.Transaction, id, userID string, close bool, now time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE airdrops
		 SET claimants = array_append(claimants, $2),
		     active = active AND NOT $3
		 WHERE id = $1`,
		id, userID, close,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAirdropNotFound
	}

	return err
}

// Close deactivates an airdrop.
func (r *AirdropRepository) Close(ctx context.Context, tx usecase.Transaction, id string, now time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE airdrops SET active = FALSE WHERE id = $1`, id,
	)

	return err
}

// GetLatestActive returns the most recently created open airdrop.
func (r *AirdropRepository) GetLatestActive(ctx context.Context, now time.Time) (*domain.Airdrop, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+airdropColumns+` FROM airdrops
		 WHERE active = TRUE
		   AND cardinality(claimants) < max_claimants
		   AND (expires_at IS NULL OR expires_at > $1)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		timeToPgTimestamptz(now),
	)

	return scanAirdrop(row)
}

// CloseExpired deactivates every airdrop whose window has elapsed and returns
// how many were closed.
func (r *AirdropRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	var closed int64

	// The sweep contends with claim transactions holding airdrop row locks,
	// so deadlocks are retried.
	err := r.retrier.Retry(ctx, func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE airdrops
			 SET active = FALSE
			 WHERE active = TRUE AND expires_at IS NOT NULL AND expires_at <= $1`,
			timeToPgTimestamptz(now),
		)
		if err != nil {
			return err
		}

		closed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	return closed, nil
}

func scanAirdrop(row pgx.Row) (*domain.Airdrop, error) {
	var a domain.Airdrop
	var assetStr string
	var total pgtype.Numeric
	var createdAt, expiresAt pgtype.Timestamptz

	err := row.Scan(&a.ID, &a.CreatorID, &assetStr, &total, &a.MaxClaimants,
		&a.Claimants, &a.Active, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAirdropNotFound
		}

		return nil, err
	}

	asset, err := domain.ParseAsset(assetStr)
	if err != nil {
		return nil, err
	}

	a.Asset = asset
	a.TotalAmount = numericToAmount(total)
	a.CreatedAt = createdAt.Time

	if expiresAt.Valid {
		t := expiresAt.Time
		a.ExpiresAt = &t
	}

	return &a, nil
}
