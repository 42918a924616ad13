package config

import (
	"fmt"
	"slices"
	"strings"
)

// The gate methods answer "is this service configured?" without performing
// I/O, without caching, and without erroring. Handlers use them to return
// 503 responses for unconfigured integrations instead of failing at startup.

// HasDatabase reports whether the database connection settings are present.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasAuth reports whether the identity provider credentials are present.
// The webhook signing secret is intentionally not part of this gate.
func (c *Config) HasAuth() bool {
	return c.Auth.PublishableKey != "" && c.Auth.SecretKey != ""
}

// HasCache reports whether the Redis connection settings are present.
func (c *Config) HasCache() bool {
	return c.Cache.RedisURL != ""
}

// HasMedia reports whether the object storage settings are present.
func (c *Config) HasMedia() bool {
	return c.Media.Bucket != "" && c.Media.AccessKeyID != "" && c.Media.SecretAccessKey != ""
}

// ConfigError is returned by the strict accessors when a service's required
// settings are missing. Missing lists every absent field so operators can
// fix the whole set at once.
type ConfigError struct {
	Service string
	Missing []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s configuration error: missing %s", e.Service, strings.Join(e.Missing, ", "))
}

// missingError builds a *ConfigError from (field, present) pairs, returning
// nil when nothing is missing.
func missingError(service string, checks map[string]bool) *ConfigError {
	var missing []string
	for field, present := range checks {
		if !present {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return &ConfigError{Service: service, Missing: missing}
}

// DatabaseSettings returns the typed database settings, or a *ConfigError
// when DATABASE_URL is absent.
func (c *Config) DatabaseSettings() (DatabaseConfig, error) {
	if err := missingError("database", map[string]bool{
		"DATABASE_URL": c.Database.URL != "",
	}); err != nil {
		return DatabaseConfig{}, err
	}
	return c.Database, nil
}

// AuthSettings returns the typed auth settings, or a *ConfigError
// enumerating the missing identity provider credentials.
func (c *Config) AuthSettings() (AuthConfig, error) {
	if err := missingError("auth", map[string]bool{
		"AUTH_PUBLISHABLE_KEY": c.Auth.PublishableKey != "",
		"AUTH_SECRET_KEY":      c.Auth.SecretKey != "",
	}); err != nil {
		return AuthConfig{}, err
	}
	return c.Auth, nil
}

// CacheSettings returns the typed cache settings, or a *ConfigError when
// REDIS_URL is absent.
func (c *Config) CacheSettings() (CacheConfig, error) {
	if err := missingError("cache", map[string]bool{
		"REDIS_URL": c.Cache.RedisURL != "",
	}); err != nil {
		return CacheConfig{}, err
	}
	return c.Cache, nil
}

// MediaSettings returns the typed media settings, or a *ConfigError
// enumerating the missing object storage credentials.
func (c *Config) MediaSettings() (MediaConfig, error) {
	if err := missingError("media", map[string]bool{
		"MEDIA_BUCKET":            c.Media.Bucket != "",
		"MEDIA_ACCESS_KEY_ID":     c.Media.AccessKeyID != "",
		"MEDIA_SECRET_ACCESS_KEY": c.Media.SecretAccessKey != "",
	}); err != nil {
		return MediaConfig{}, err
	}
	return c.Media, nil
}
