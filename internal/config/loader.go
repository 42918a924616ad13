// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load .env file via godotenv (non-fatal if absent).
//  2. Use envconfig to process struct tags and populate the Config struct.
//  3. Validate the struct using go-playground/validator.
//
// Service-level settings (DATABASE_URL, AUTH_*, REDIS_URL, MEDIA_*) are all
// optional at load time: the gate methods and strict accessors decide
// per-service availability later, so an empty environment still produces a
// valid configuration.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads and validates the configuration from the process environment.
// A .env file in the working directory is honored but never overrides
// variables already set in the environment.
func Load() (*Config, error) {
	// godotenv silently succeeds when no .env file exists.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
