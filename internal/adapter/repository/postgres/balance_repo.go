package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

// BalanceRepository implements usecase.BalanceRepository.
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(pool *pgxpool.Pool) *BalanceRepository {
	return &BalanceRepository{pool: pool}
}

const balanceColumns = `user_id, asset, amount, version, created_at, updated_at`

// Get retrieves the balance for (user, asset). A missing row reads as zero.
func (r *BalanceRepository) Get(ctx context.Context, userID string, asset domain.Asset) (*domain.Balance, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE user_id = $1 AND asset = $2`,
		userID, asset.String(),
	)

	balance, err := scanBalance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroBalance(userID, asset), nil
		}

		return nil, err
	}

	return balance, nil
}

// GetForUpdate retrieves the balance row with a FOR UPDATE lock, creating the
// zero row first if the user has never touched this asset. The insert uses
// ON CONFLICT DO NOTHING so concurrent first touches are harmless.
func (r *BalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, userID string, asset domain.Asset) (*domain.Balance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	now := timeToPgTimestamptz(time.Now().UTC())

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO balances (user_id, asset, amount, version, created_at, updated_at)
		 VALUES ($1, $2, 0, 0, $3, $3)
		 ON CONFLICT (user_id, asset) DO NOTHING`,
		userID, asset.String(), now,
	)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE user_id = $1 AND asset = $2 FOR UPDATE`,
		userID, asset.String(),
	)

	return scanBalance(row)
}

// GetManyForUpdate locks multiple balance rows. Callers pass keys already
// sorted; locking strictly in that order prevents deadlocks between
// concurrent multi-row transactions.
func (r *BalanceRepository) GetManyForUpdate(ctx context.Context, tx usecase.Transaction, keys []usecase.BalanceKey) ([]*domain.Balance, error) {
	balances := make([]*domain.Balance, 0, len(keys))

	for _, key := range keys {
		balance, err := r.GetForUpdate(ctx, tx, key.UserID, key.Asset)
		if err != nil {
			return nil, err
		}

		balances = append(balances, balance)
	}

	return balances, nil
}

// UpdateAmount sets the amount of a locked balance row.
func (r *BalanceRepository) UpdateAmount(ctx context.Context, tx usecase.Transaction, userID string, asset domain.Asset, amount domain.Amount, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE balances
		 SET amount = $3, version = version + 1, updated_at = $4
		 WHERE user_id = $1 AND asset = $2`,
		userID, asset.String(), amountToNumeric(amount), timeToPgTimestamptz(updatedAt),
	)

	return err
}

// ListByUser returns every balance row a user has touched.
func (r *BalanceRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Balance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE user_id = $1 ORDER BY asset`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []*domain.Balance

	for rows.Next() {
		balance, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}

		balances = append(balances, balance)
	}

	return balances, rows.Err()
}

// SumByAsset totals all balances per asset, the custodial liability view.
func (r *BalanceRepository) SumByAsset(ctx context.Context) (map[domain.Asset]domain.Amount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT asset, COALESCE(SUM(amount), 0) FROM balances GROUP BY asset`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[domain.Asset]domain.Amount)

	for rows.Next() {
		var assetStr string
		var total pgtype.Numeric

		if err := rows.Scan(&assetStr, &total); err != nil {
			return nil, err
		}

		asset, err := domain.ParseAsset(assetStr)
		if err != nil {
			return nil, err
		}

		sums[asset] = numericToAmount(total)
	}

	return sums, rows.Err()
}

func zeroBalance(userID string, asset domain.Asset) *domain.Balance {
	return &domain.Balance{UserID: userID, Asset: asset, Amount: domain.ZeroAmount}
}

func scanBalance(row pgx.Row) (*domain.Balance, error) {
	var b domain.Balance
	var assetStr string
	var amount pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&b.UserID, &assetStr, &amount, &b.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	asset, err := domain.ParseAsset(assetStr)
	if err != nil {
		return nil, err
	}

	b.Asset = asset
	b.Amount = numericToAmount(amount)
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// Type conversion helpers.
func amountToNumeric(a domain.Amount) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(a.Decimal().String())

	return n
}

func numericToAmount(n pgtype.Numeric) domain.Amount {
	if !n.Valid {
		return domain.ZeroAmount
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return domain.NewAmount(d)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
