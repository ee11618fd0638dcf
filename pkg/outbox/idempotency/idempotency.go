package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bonikcommerce/bonik-backend/pkg/redis"
)

// Guard tracks processed natural keys per scope using Redis with a TTL.
// Keys follow the `bk:idempotency:evt:processed:<scope>:<key>` pattern.
//
// Seen is a pure read and Mark is a separate write: callers Mark only after
// the guarded unit of work has committed. A crash in between leaves no key,
// so the provider or queue redelivers and the work applies exactly once.
// The durable webhook-event log is the second tier for anything the cache
// has evicted.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewGuard builds an idempotency guard that remembers keys for the given TTL.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{
		store: store,
		ttl:   ttl,
	}, nil
}

// Seen reports whether the key has already been marked. It never writes.
func (g *Guard) Seen(ctx context.Context, scope, key string) (bool, error) {
	storeKey, err := g.processedKey(scope, key)
	if err != nil {
		return false, err
	}
	return g.store.Exists(ctx, storeKey)
}

// Mark records the key as processed with the configured TTL. Call it only
// after the guarded work has committed.
func (g *Guard) Mark(ctx context.Context, scope, key string) error {
	storeKey, err := g.processedKey(scope, key)
	if err != nil {
		return err
	}
	return g.store.Set(ctx, storeKey, "1", g.ttl)
}

// Forget removes the key, primarily for operator remediation.
func (g *Guard) Forget(ctx context.Context, scope, key string) error {
	storeKey, err := g.processedKey(scope, key)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, storeKey)
}

func (g *Guard) processedKey(scope, key string) (string, error) {
	if scope == "" {
		return "", errors.New("scope is required")
	}
	if key == "" {
		return "", errors.New("key is required")
	}
	return g.store.IdempotencyKey(fmt.Sprintf("evt:processed:%s", scope), key), nil
}
