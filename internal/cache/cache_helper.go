package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheConfig defines cache configuration for different data types
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Published catalogue pages and course details
	CourseCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "course:",
	}

	// Resolved session snapshots, keyed by account id
	SessionCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "session:",
	}

	// Dashboard aggregates
	StatsCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "stats:",
	}

	// Per-account unread badge hashes; no TTL, kept in step with SQL
	UnreadCacheConfig = CacheConfig{
		Prefix: "unread:",
	}
)

// CacheHelper provides prefixed JSON caching and counters over go-redis
type CacheHelper struct {
	client *redis.Client
	prefix string
}

func NewCacheHelper(client *redis.Client, prefix string) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: prefix,
	}
}

func (c *CacheHelper) Available() bool {
	return c != nil && c.client != nil
}

// GetCacheKey generates a cache key with prefix
func (c *CacheHelper) GetCacheKey(key string) string {
	return c.prefix + key
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Available() {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.GetCacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set marshals and stores data in cache
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Available() {
		return nil // Graceful degradation when cache not available
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	return c.client.Set(ctx, c.GetCacheKey(key), data, ttl).Err()
}

// Delete removes one or more keys in a single round trip
func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if !c.Available() || len(keys) == 0 {
		return nil
	}

	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.GetCacheKey(key)
	}
	return c.client.Del(ctx, cacheKeys...).Err()
}

func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if !c.Available() {
		return false, ErrCacheNotAvailable
	}

	count, err := c.client.Exists(ctx, c.GetCacheKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists error: %w", err)
	}
	return count > 0, nil
}

// InvalidatePattern removes all keys matching a pattern using SCAN instead of KEYS.
// Keys are collected before deleting so the cursor is not disturbed.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if !c.Available() {
		return nil
	}

	fullPattern := c.GetCacheKey(pattern)
	var keys []string
	iter := c.client.Scan(ctx, 0, fullPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		slog.ErrorContext(ctx, "Cache scan pattern error", "error", err, "pattern", fullPattern)
		return fmt.Errorf("cache scan pattern error: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	const batchSize = 100
	pipe := c.client.Pipeline()
	for i := 0; i < len(keys); i += batchSize {
		pipe.Del(ctx, keys[i:min(i+batchSize, len(keys))]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.ErrorContext(ctx, "Cache pipeline delete error", "error", err, "total_keys", len(keys))
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}
	return nil
}

// CacheOrExecute implements the cache-aside pattern
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetchFunc func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache get error, proceeding to fetch", "error", err, "key", key)
	}

	value, err := fetchFunc()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}

	if c.Available() {
		// Store asynchronously so the response is not blocked
		go func(parent context.Context) {
			setCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
			defer cancel()
			if err := c.client.Set(setCtx, c.GetCacheKey(key), data, ttl).Err(); err != nil {
				slog.Error("Cache set error", "error", err, "key", key)
			}
		}(ctx)
	}

	return json.Unmarshal(data, dest)
}

// ===== COUNTERS =====

// IncrementField atomically adds delta to a hash field
func (c *CacheHelper) IncrementField(ctx context.Context, key, field string, delta int64) (int64, error) {
	if !c.Available() {
		return 0, ErrCacheNotAvailable
	}
	return c.client.HIncrBy(ctx, c.GetCacheKey(key), field, delta).Result()
}

// ResetField removes a hash field, zeroing its counter
func (c *CacheHelper) ResetField(ctx context.Context, key, field string) error {
	if !c.Available() {
		return nil
	}
	return c.client.HDel(ctx, c.GetCacheKey(key), field).Err()
}

// SumFields adds up every numeric field of a hash
func (c *CacheHelper) SumFields(ctx context.Context, key string) (int64, error) {
	if !c.Available() {
		return 0, ErrCacheNotAvailable
	}

	values, err := c.client.HGetAll(ctx, c.GetCacheKey(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("cache hgetall error: %w", err)
	}

	var total int64
	for field, raw := range values {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.WarnContext(ctx, "Ignoring non-numeric counter field", "key", key, "field", field)
			continue
		}
		total += n
	}
	return total, nil
}

// SetFields overwrites a hash with the given counters
func (c *CacheHelper) SetFields(ctx context.Context, key string, counters map[string]int64) error {
	if !c.Available() {
		return nil
	}

	cacheKey := c.GetCacheKey(key)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, cacheKey)
	if len(counters) > 0 {
		values := make(map[string]interface{}, len(counters))
		for k, v := range counters {
			values[k] = v
		}
		pipe.HSet(ctx, cacheKey, values)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ===== MANAGER =====

// CacheManager groups the helpers used across repositories and services
type CacheManager struct {
	client *redis.Client

	Course  *CacheHelper
	Session *CacheHelper
	Stats   *CacheHelper
	Unread  *CacheHelper
}

func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		client:  client,
		Course:  NewCacheHelper(client, CourseCacheConfig.Prefix),
		Session: NewCacheHelper(client, SessionCacheConfig.Prefix),
		Stats:   NewCacheHelper(client, StatsCacheConfig.Prefix),
		Unread:  NewCacheHelper(client, UnreadCacheConfig.Prefix),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
