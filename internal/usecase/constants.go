package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database
	// transaction. External settlement calls never run inside this window.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultHistoryPageSize and MaxHistoryPageSize bound history queries.
	DefaultHistoryPageSize = 20
	MaxHistoryPageSize     = 100

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
