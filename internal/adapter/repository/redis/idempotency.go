package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// processingMarker is stored while the first request with a key is still in
// flight, so concurrent retries see the key as claimed before a response
// exists.
const processingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore on Redis. Chat
// platforms redeliver commands, so every mutating endpoint claims its
// Idempotency-Key here before touching the ledger.
type IdempotencyStore struct {
	client *redis.Client
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "idempotency:",
	}
}

// CheckAndSet claims key for the current request. When another request
// already holds it, the stored response (or the in-flight marker) is
// returned instead.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	payload := []byte(processingMarker)
	if response != nil {
		payload = response
	}

	claimed, err := s.client.SetNX(ctx, fullKey, payload, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if claimed {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if err != nil && err != redis.Nil {
		return false, nil, err
	}

	return true, existing, nil
}

// Update replaces the claim with the final response for replay.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}
