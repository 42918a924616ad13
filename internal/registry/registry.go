// Package registry owns the lazily constructed service singletons. Nothing
// here touches an external system at startup: each service, its repository,
// and its external client are built on first use, so the process boots
// cleanly with any subset of the integrations configured.
//
// The original design exposed transparent forwarding proxies; in Go the
// accessors are explicit. Callers invoke the getter per use and handle the
// configuration error it may return.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"appstarter/internal/cache"
	"appstarter/internal/config"
	"appstarter/internal/db"
	"appstarter/internal/media"
	"appstarter/internal/user"
)

// Registry resolves and caches the per-domain services for the lifetime of
// the process. Concurrent first calls are serialized by the mutex, so each
// service is constructed exactly once. A failed construction (missing
// settings) is NOT cached: the next call re-attempts, mirroring lazy
// retry-on-access.
type Registry struct {
	cfg    *config.Config
	logger *slog.Logger

	mu       sync.Mutex
	pool     *pgxpool.Pool
	rdb      *redis.Client
	userSvc  user.Service
	cacheSvc cache.Service
	mediaSvc media.Service
}

// New creates a registry over the loaded configuration. No connections are
// opened here.
func New(cfg *config.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{cfg: cfg, logger: logger}
}

// UserService returns the process-wide user service, constructing it (and
// the database pool) on first call. Returns a *config.ConfigError when the
// database settings are absent.
func (r *Registry) UserService() (user.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userSvc != nil {
		return r.userSvc, nil
	}

	pool, err := r.databasePool()
	if err != nil {
		return nil, err
	}

	r.userSvc = user.NewService(db.NewUserRepository(pool))
	r.logger.Debug("user service initialized")
	return r.userSvc, nil
}

// CacheService returns the process-wide cache service, constructing the
// Redis client on first call. Returns a *config.ConfigError when the cache
// settings are absent. The database is resolved lazily per stats fetch, so
// an unconfigured database does not block construction.
func (r *Registry) CacheService() (cache.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cacheSvc != nil {
		return r.cacheSvc, nil
	}

	settings, err := r.cfg.CacheSettings()
	if err != nil {
		return nil, err
	}

	opts, err := redis.ParseURL(settings.RedisURL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	r.rdb = redis.NewClient(opts)

	counter := func(ctx context.Context) (cache.UserCounter, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		pool, err := r.databasePool()
		if err != nil {
			return nil, err
		}
		return db.NewUserRepository(pool), nil
	}

	r.cacheSvc = cache.NewService(cache.NewRedisRepository(r.rdb), counter)
	r.logger.Debug("cache service initialized")
	return r.cacheSvc, nil
}

// MediaService returns the process-wide media service. Returns a
// *config.ConfigError when the object storage settings are absent. The S3
// client itself is built by the repository's own once-guard on first
// upload.
func (r *Registry) MediaService() (media.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mediaSvc != nil {
		return r.mediaSvc, nil
	}

	settings, err := r.cfg.MediaSettings()
	if err != nil {
		return nil, err
	}

	r.mediaSvc = media.NewService(media.NewS3Repository(settings))
	r.logger.Debug("media service initialized")
	return r.mediaSvc, nil
}

// databasePool lazily creates the shared pgx pool. Callers must hold r.mu.
func (r *Registry) databasePool() (*pgxpool.Pool, error) {
	if r.pool != nil {
		return r.pool, nil
	}

	settings, err := r.cfg.DatabaseSettings()
	if err != nil {
		return nil, err
	}

	pool, err := db.NewPool(context.Background(), settings)
	if err != nil {
		return nil, err
	}
	r.pool = pool
	r.logger.Debug("database pool initialized")
	return pool, nil
}

// Close releases the pooled connections held by resolved services.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	if r.rdb != nil {
		if err := r.rdb.Close(); err != nil {
			return fmt.Errorf("closing redis client: %w", err)
		}
		r.rdb = nil
	}
	return nil
}
