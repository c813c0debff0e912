package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justthetip/tipledger/internal/domain"
	"github.com/justthetip/tipledger/internal/usecase"
)

// HistoryRepository implements usecase.HistoryRepository. The table is
// append-only: this repository exposes no update or delete, and the seq
// column is a bigserial assigned at insert.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create appends one entry inside the caller's transaction.
func (r *HistoryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.HistoryEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	row := pgxTx.QueryRow(ctx,
		`INSERT INTO history_entries
		 (id, user_id, kind, asset, amount, correlation_id, reference, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING seq`,
		entry.ID, entry.UserID, string(entry.Kind), entry.Asset.String(),
		amountToNumeric(entry.Amount), entry.CorrelationID, entry.Reference,
		entry.Detail, timeToPgTimestamptz(entry.CreatedAt),
	)

	return row.Scan(&entry.Seq)
}

// ListByUser returns a user's entries, most recent first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, id, user_id, kind, asset, amount, correlation_id, reference, detail, created_at
		 FROM history_entries
		 WHERE user_id = $1
		 ORDER BY seq DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry

	for rows.Next() {
		var e domain.HistoryEntry
		var kindStr, assetStr string
		var amount pgtype.Numeric
		var createdAt pgtype.Timestamptz

		err := rows.Scan(&e.Seq, &e.ID, &e.UserID, &kindStr, &assetStr,
			&amount, &e.CorrelationID, &e.Reference, &e.Detail, &createdAt)
		if err != nil {
			return nil, err
		}

		asset, err := domain.ParseAsset(assetStr)
		if err != nil {
			return nil, err
		}

		e.Kind = domain.HistoryKind(kindStr)
		e.Asset = asset
		e.Amount = numericToAmount(amount)
		e.CreatedAt = createdAt.Time

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// ListAfterSeq returns entries past a sequence cursor in insertion order.
// The event publisher tails the log through this.
func (r *HistoryRepository) ListAfterSeq(ctx context.Context, afterSeq int64, limit int) ([]*domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, id, user_id, kind, asset, amount, correlation_id, reference, detail, created_at
		 FROM history_entries
		 WHERE seq > $1
		 ORDER BY seq ASC
		 LIMIT $2`,
		afterSeq, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry

	for rows.Next() {
		var e domain.HistoryEntry
		var kindStr, assetStr string
		var amount pgtype.Numeric
		var createdAt pgtype.Timestamptz

		err := rows.Scan(&e.Seq, &e.ID, &e.UserID, &kindStr, &assetStr,
			&amount, &e.CorrelationID, &e.Reference, &e.Detail, &createdAt)
		if err != nil {
			return nil, err
		}

		asset, err := domain.ParseAsset(assetStr)
		if err != nil {
			return nil, err
		}

		e.Kind = domain.HistoryKind(kindStr)
		e.Asset = asset
		e.Amount = numericToAmount(amount)
		e.CreatedAt = createdAt.Time

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// MaxSeq returns the sequence of the newest entry, or 0 when the log is empty.
func (r *HistoryRepository) MaxSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM history_entries`).Scan(&seq)
	return seq, err
}

// SumByKind totals entry amounts of one kind per asset.
func (r *HistoryRepository) SumByKind(ctx context.Context, kind domain.HistoryKind) (map[domain.Asset]domain.Amount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT asset, COALESCE(SUM(amount), 0)
		 FROM history_entries
		 WHERE kind = $1
		 GROUP BY asset`,
		string(kind),
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
