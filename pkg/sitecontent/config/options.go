package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithLogLevel sets the minimum log level
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		c.LogLevel = level
		return nil
	}
}

// WithMemoryDatabase selects the in-memory repository
func WithMemoryDatabase() Option {
	return func(c *ServerConfig) error {
		c.DatabaseType = DatabaseMemory
		c.DatabaseURL = ""
		return nil
	}
}

// WithPostgres selects the Postgres repository
func WithPostgres(url, schema string, autoMigrate bool) Option {
	return func(c *ServerConfig) error {
		if url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = DatabasePostgres
		c.DatabaseURL = url
		c.DBSchema = schema
		c.AutoMigrate = autoMigrate
		return nil
	}
}

// WithDynamoDB selects the DynamoDB repository on table in region
func WithDynamoDB(region, table string) Option {
	return func(c *ServerConfig) error {
		if table == "" {
			return fmt.Errorf("dynamodb table cannot be empty")
		}
		c.DatabaseType = DatabaseDynamoDB
		c.DynamoDB.Table = table
		if region != "" {
			c.DynamoDB.Region = region
		}
		return nil
	}
}

// WithDynamoDBEndpoint points the DynamoDB client at a local endpoint
func WithDynamoDBEndpoint(endpoint string) Option {
	return func(c *ServerConfig) error {
		c.DynamoDB.Endpoint = endpoint
		return nil
	}
}

// WithS3Endpoint points seed and export S3 access at an S3-compatible store
func WithS3Endpoint(endpoint string, usePathStyle bool) Option {
	return func(c *ServerConfig) error {
		c.S3.Endpoint = endpoint
		c.S3.UsePathStyle = usePathStyle
		return nil
	}
}

// WithIDStrategy sets the ID generation strategy (monotonic, uuid)
func WithIDStrategy(strategy string) Option {
	return func(c *ServerConfig) error {
		c.IDStrategy = strategy
		return nil
	}
}

// WithEventLogging enables or disables the logging event sink
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithAllowedOrigins sets the CORS origins allowed by the HTTP server
func WithAllowedOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.AllowedOrigins = origins
		return nil
	}
}

// WithRequestTimeout bounds each HTTP request
func WithRequestTimeout(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d < 0 {
			return fmt.Errorf("request timeout cannot be negative")
		}
		c.RequestTimeout = d
		return nil
	}
}
