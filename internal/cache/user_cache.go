// Package cache provides the Redis-backed user cache. The read path
// treats it as best effort; destructive writes must invalidate the
// target entry first and abort when invalidation fails, preferring a
// failed delete over a stale cached user.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-management-service/internal/model"
)

const keyPrefix = "user:"

// UserCache caches user projections by ID in Redis.
type UserCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a UserCache, or nil when no Redis client is available so
// callers degrade to uncached operation.
func New(rdb *redis.Client, ttl time.Duration) *UserCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached user and whether it was present. Any Redis or
// decode failure is reported as a miss.
func (c *UserCache) Get(ctx context.Context, id string) (model.User, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		return model.User{}, false
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.User{}, false
	}
	return u, true
}

// Set stores the user under its ID with the configured TTL. Best
// effort: an error here only costs a future cache miss.
func (c *UserCache) Set(ctx context.Context, u model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+u.ID, raw, c.ttl).Err()
}

// InvalidateUser removes the entry for one user. Unlike Set, callers
// on destructive paths must treat an error here as fatal.
func (c *UserCache) InvalidateUser(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, keyPrefix+id).Err()
}
