package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"facegate/internal/identity/models"
)

const (
	// Redis key prefix for cached directory lookups
	directoryKeyPrefix = "dir:username:"

	defaultDirectoryTTL = 5 * time.Minute
)

// RedisDirectory is a Redis-backed directory cache. This is the recommended
// implementation for distributed deployments where multiple instances should
// share lookup results.
type RedisDirectory struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisDirectoryOption configures a RedisDirectory instance.
type RedisDirectoryOption func(*RedisDirectory)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) RedisDirectoryOption {
	return func(d *RedisDirectory) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// NewRedisDirectory constructs a Redis-backed directory cache.
func NewRedisDirectory(client *redis.Client, opts ...RedisDirectoryOption) *RedisDirectory {
	d := &RedisDirectory{
		client: client,
		ttl:    defaultDirectoryTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Get returns the cached result for a username, or found=false on a miss.
func (d *RedisDirectory) Get(ctx context.Context, username string) (*models.SearchResult, bool, error) {
	raw, err := d.client.Get(ctx, directoryKeyPrefix+username).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get directory entry: %w", err)
	}

	var result models.SearchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// A corrupt entry is treated as a miss so the caller refreshes it.
		return nil, false, nil
	}
	return &result, true, nil
}

// Set stores a result under the username with the configured TTL.
func (d *RedisDirectory) Set(ctx context.Context, username string, result *models.SearchResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal directory entry: %w", err)
	}
	return d.client.Set(ctx, directoryKeyPrefix+username, raw, d.ttl).Err()
}

// Invalidate drops the entry for a username. Deleting a missing key is not
// an error.
func (d *RedisDirectory) Invalidate(ctx context.Context, username string) error {
	return d.client.Del(ctx, directoryKeyPrefix+username).Err()
}

var _ Directory = (*RedisDirectory)(nil)
