package cache

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"appstarter/internal/types"
)

// statsCacheKey is the single well-known key holding the stats snapshot.
const statsCacheKey = "stats:global"

// rateLimitPrefix namespaces limiter keys so different features never share
// limiter buckets.
const rateLimitPrefix = "ping:"

// randomCeiling bounds the snapshot's tie-breaker value: [0, 1000).
const randomCeiling = 1000

// UserCounter is the slice of the user repository the stats snapshot needs.
type UserCounter interface {
	CountUsers(ctx context.Context) (int, error)
}

// CounterResolver lazily resolves the database-backed counter. Resolution
// is deferred to the fetch so an unconfigured database fails the stats
// computation, not service construction.
type CounterResolver func(ctx context.Context) (UserCounter, error)

// Service is the cache domain capability interface.
type Service interface {
	// GetStats returns the cached snapshot, or (nil, nil) on a cache miss.
	GetStats(ctx context.Context) (*types.StatsData, error)

	// SetStats stores the snapshot under the stats key with the given TTL.
	SetStats(ctx context.Context, data types.StatsData, ttl time.Duration) error

	// CheckRateLimit runs one sliding-window check for the given client IP.
	CheckRateLimit(ctx context.Context, ip string) (types.RateLimitResult, error)

	// FetchAndCacheStats computes a fresh snapshot from the database,
	// stores it with the given TTL, and returns it.
	FetchAndCacheStats(ctx context.Context, ttl time.Duration) (*types.StatsData, error)
}

// DefaultService is the production Service implementation.
type DefaultService struct {
	repo    Repository
	counter CounterResolver
}

// NewService creates a cache service over the given repository and counter
// resolver.
func NewService(repo Repository, counter CounterResolver) *DefaultService {
	return &DefaultService{repo: repo, counter: counter}
}

func (s *DefaultService) GetStats(ctx context.Context) (*types.StatsData, error) {
	raw, ok, err := s.repo.Get(ctx, statsCacheKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var data types.StatsData
	if err := json.Unmarshal(raw, &data); err != nil {
		// A corrupt cache entry is treated as a miss; the next fetch
		// overwrites it.
		return nil, nil
	}
	return &data, nil
}

func (s *DefaultService) SetStats(ctx context.Context, data types.StatsData, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode stats snapshot", err)
	}
	return s.repo.SetWithTTL(ctx, statsCacheKey, raw, ttl)
}

func (s *DefaultService) CheckRateLimit(ctx context.Context, ip string) (types.RateLimitResult, error) {
	return s.repo.CheckRateLimit(ctx, rateLimitPrefix+ip)
}

func (s *DefaultService) FetchAndCacheStats(ctx context.Context, ttl time.Duration) (*types.StatsData, error) {
	counter, err := s.counter(ctx)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeDependencyUnconfigured, "database is not configured", err)
	}

	count, err := counter.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	data := types.StatsData{
		UserCount: count,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Random:    rand.IntN(randomCeiling),
	}

	if err := s.SetStats(ctx, data, ttl); err != nil {
		return nil, err
	}
	return &data, nil
}
