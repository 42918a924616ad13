// Package config defines the global configuration structure for the starter
// backend. Configuration is loaded once at process initialization and is
// immutable thereafter, following 12-Factor principles.
//
// Unlike most services, every external integration here (database, auth,
// cache, media) is OPTIONAL: the application starts with none of them
// configured and degrades gracefully. Per-service presence is answered by
// the boolean gate methods; typed settings for a service are obtained
// through the strict accessors, which fail with a *ConfigError enumerating
// every missing field.
package config

import (
	"time"

	"appstarter/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. It is populated once during
// process initialization and never modified. Components receive only the
// specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Cache    CacheConfig
	Media    MediaConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
// URL is empty when the database is unconfigured.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// AuthConfig holds identity provider credentials. PublishableKey and
// SecretKey gate the auth integration; WebhookSecret is checked separately
// by the webhook handler because webhook delivery is an independent,
// optional capability of the provider.
type AuthConfig struct {
	PublishableKey string       `envconfig:"AUTH_PUBLISHABLE_KEY"`
	SecretKey      SecretString `envconfig:"AUTH_SECRET_KEY"`
	WebhookSecret  SecretString `envconfig:"AUTH_WEBHOOK_SECRET"`
}

// CacheConfig holds the Redis connection settings for caching and rate
// limiting.
type CacheConfig struct {
	RedisURL SecretString `envconfig:"REDIS_URL"`
}

// MediaConfig holds object storage credentials and URL settings for the
// media upload integration.
type MediaConfig struct {
	Bucket          string       `envconfig:"MEDIA_BUCKET"`
	Region          string       `envconfig:"MEDIA_REGION" default:"us-east-1"`
	AccessKeyID     string       `envconfig:"MEDIA_ACCESS_KEY_ID"`
	SecretAccessKey SecretString `envconfig:"MEDIA_SECRET_ACCESS_KEY"`

	// EndpointURL overrides the storage endpoint for S3-compatible backends
	// (MinIO, LocalStack). Empty in production AWS.
	EndpointURL string `envconfig:"MEDIA_ENDPOINT_URL"`

	// CDNBaseURL, when set, is used as the public base for uploaded object
	// URLs instead of the bucket's native endpoint (no trailing slash).
	CDNBaseURL string `envconfig:"MEDIA_CDN_URL"`
}
