package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which pickup request a client key produced.
// Key format: idem:<scope>:<client key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyTTL}
}

// pendingMarker holds a claimed key until its request is stored.
const pendingMarker = "pending"

// Claim reserves key with SETNX so only one concurrent submission inserts.
// A taken key yields its request id, or "" while still pending.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) (bool, string, error) {
	k := s.key(scope, key)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
		if err != nil {
			return false, "", fmt.Errorf("idempotency claim: %w", err)
		}
		if ok {
			return true, "", nil
		}

		id, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired or released between the two calls.
			continue
		}
		if err != nil {
			return false, "", fmt.Errorf("idempotency claim: %w", err)
		}
		if id == pendingMarker {
			return false, "", nil
		}
		return false, id, nil
	}
	return false, "", nil
}

// Complete records requestID under a claimed key.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key, requestID string) error {
	if err := s.client.Set(ctx, s.key(scope, key), requestID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release frees a claimed key so a retry can insert.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}
