package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv applies environment variable overrides. Unset variables leave the
// current value alone.
//
// Server:
//
//	PORT, ENVIRONMENT, LOG_LEVEL, ALLOWED_ORIGINS (comma separated), REQUEST_TIMEOUT
//
// Database:
//
//	DATABASE_TYPE - memory, postgres or dynamodb. When unset, a postgres
//	                DATABASE_URL selects postgres and anything else memory.
//	DATABASE_URL, DB_SCHEMA, AUTO_MIGRATE
//	DYNAMODB_REGION, DYNAMODB_TABLE, DYNAMODB_ENDPOINT, DYNAMODB_ACCESS_KEY_ID,
//	DYNAMODB_SECRET_ACCESS_KEY, DYNAMODB_CONSISTENT_READ, DYNAMODB_SKIP_TABLE_CHECK
//
// Seeds:
//
//	S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_USE_PATH_STYLE
//
// Service:
//
//	ID_STRATEGY - monotonic or uuid
//	ENABLE_EVENT_LOGGING
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithFile reads a YAML, JSON, TOML or .env file and then applies the
// environment on top of it.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}
}

// Usage describes every environment variable ServerConfig reads.
func Usage() (string, error) {
	var cfg ServerConfig
	return cleanenv.GetDescription(&cfg, nil)
}
