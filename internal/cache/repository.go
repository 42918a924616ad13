// Package cache implements the key-value caching and rate limiting domain
// over Redis. The repository is a thin pass-through to the Redis client;
// the service layers the stats snapshot and key namespacing on top.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"appstarter/internal/types"
)

// Rate limiter window parameters: at most rateLimitMax requests per
// rateLimitWindow per key, measured over a sliding window.
const (
	rateLimitMax    = 10
	rateLimitWindow = 10 * time.Second
)

// Repository is the low-level cache and rate limiter contract. Satisfied by
// RedisRepository; tests substitute an in-memory fake.
type Repository interface {
	// Get returns the raw value for key, reporting absence via the bool.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// CheckRateLimit records one request against key's sliding window and
	// returns the admission decision.
	CheckRateLimit(ctx context.Context, key string) (types.RateLimitResult, error)
}

// RedisRepository implements Repository over a go-redis client. It holds no
// state beyond the client handle; every operation is a single round trip
// (the limiter uses a pipeline).
type RedisRepository struct {
	rdb *redis.Client
}

// NewRedisRepository creates a repository over the given Redis client.
func NewRedisRepository(rdb *redis.Client) *RedisRepository {
	return &RedisRepository{rdb: rdb}
}

func (r *RedisRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, types.NewAppError(types.ErrCodeDependencyFailed, "cache read failed", err)
	}
	return val, true, nil
}

func (r *RedisRepository) Set(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return types.NewAppError(types.ErrCodeDependencyFailed, "cache write failed", err)
	}
	return nil
}

func (r *RedisRepository) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return types.NewAppError(types.ErrCodeDependencyFailed, "cache write failed", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return types.NewAppError(types.ErrCodeDependencyFailed, "cache delete failed", err)
	}
	return nil
}

// CheckRateLimit implements a sliding window limiter with a Redis sorted
// set per key: each admitted request is a member scored by its timestamp
// in milliseconds; entries older than the window are pruned before
// counting.
func (r *RedisRepository) CheckRateLimit(ctx context.Context, key string) (types.RateLimitResult, error) {
	now := time.Now()
	windowStart := now.Add(-rateLimitWindow).UnixMilli()

	pipe := r.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	cardCmd := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.RateLimitResult{}, types.NewAppError(types.ErrCodeDependencyFailed, "rate limit check failed", err)
	}

	result := windowDecision(int(cardCmd.Val()), rateLimitMax, now, rateLimitWindow)
	if !result.Allowed {
		return result, nil
	}

	// Record the admitted request and keep the key from lingering forever.
	pipe = r.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, rateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return types.RateLimitResult{}, types.NewAppError(types.ErrCodeDependencyFailed, "rate limit update failed", err)
	}

	return result, nil
}

// windowDecision is the pure admission rule: given the number of requests
// already inside the window, decide whether one more fits and how many
// remain after it. Reset is the epoch second when a full window has passed.
func windowDecision(inWindow, limit int, now time.Time, window time.Duration) types.RateLimitResult {
	allowed := inWindow < limit
	remaining := 0
	if allowed {
		remaining = limit - inWindow - 1
	}
	return types.RateLimitResult{
		Allowed:   allowed,
		Remaining: remaining,
		Reset:     now.Add(window).Unix(),
	}
}
