package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"capsyhub/pkg/interfaces"
	"capsyhub/pkg/types"
)

const cacheKeyPrefix = "capsyhub:account:"

// CachedDirectory is a Redis read-through cache in front of another
// directory. Reconnect storms hit the cache instead of SQLite; cache
// failures degrade to direct lookups rather than failing the init.
type CachedDirectory struct {
	inner  interfaces.AccountDirectory
	client *redis.Client
	ttl    time.Duration
}

// NewCachedDirectory wraps inner with a Redis cache.
func NewCachedDirectory(inner interfaces.AccountDirectory, client *redis.Client, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{inner: inner, client: client, ttl: ttl}
}

// Lookup consults the cache first, then the inner directory. Not-found is
// authoritative from the inner directory and is not cached: a freshly
// provisioned account must be resolvable on its first init.
func (c *CachedDirectory) Lookup(ctx context.Context, userID string) (*types.Account, error) {
	key := cacheKeyPrefix + userID

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var account types.Account
		if jsonErr := json.Unmarshal(data, &account); jsonErr == nil {
			return &account, nil
		}
		// Corrupt entry; fall through to the inner lookup and rewrite it.
	} else if err != redis.Nil {
		slog.Warn("account cache read failed", "userId", userID, "error", err)
	}

	account, err := c.inner.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(account); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			slog.Warn("account cache write failed", "userId", userID, "error", setErr)
		}
	}
	return account, nil
}

// Invalidate drops the cached entry for userID. Provisioning tooling calls
// this after an upsert.
func (c *CachedDirectory) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, cacheKeyPrefix+userID).Err(); err != nil {
		slog.Warn("account cache invalidation failed", "userId", userID, "error", err)
	}
}

// HealthCheck verifies both the cache and the inner directory.
func (c *CachedDirectory) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return err
	}
	return c.inner.HealthCheck(ctx)
}

// Close releases the cache client and the inner directory.
func (c *CachedDirectory) Close() error {
	if err := c.client.Close(); err != nil {
		slog.Warn("failed to close account cache client", "error", err)
	}
	return c.inner.Close()
}
