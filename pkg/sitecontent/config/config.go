package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/idgen"
	repodynamo "github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/repo/dynamodb"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/repo/memory"
	repopg "github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/repo/postgres"
	"github.com/ravivalluri/pixelsandpetals-content/pkg/sitecontent/seed"
)

const (
	DatabaseMemory   = "memory"
	DatabasePostgres = "postgres"
	DatabaseDynamoDB = "dynamodb"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	cfg.inferDatabaseType()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",
		DBSchema:    "content",
		DynamoDB: DynamoDBConfig{
			Region: "us-east-1",
			Table:  "pixelsandpetals-content",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		IDStrategy:         "monotonic",
		EnableEventLogging: true,
		RequestTimeout:     30 * time.Second,
	}
}

// ServerConfig represents configuration for the content service and its executables
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT"`
	Environment string `yaml:"environment" env:"ENVIRONMENT"` // development, production, testing
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`

	// Database configuration
	DatabaseType string `yaml:"database_type" env:"DATABASE_TYPE"` // memory, postgres, dynamodb
	DatabaseURL  string `yaml:"database_url" env:"DATABASE_URL"`
	DBSchema     string `yaml:"db_schema" env:"DB_SCHEMA"` // Postgres schema (default: content)
	AutoMigrate  bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`

	DynamoDB DynamoDBConfig `yaml:"dynamodb" env-prefix:"DYNAMODB_"`

	// S3 is used for s3:// seed and export locations
	S3 S3Config `yaml:"s3" env-prefix:"S3_"`

	// Service options
	IDStrategy         string `yaml:"id_strategy" env:"ID_STRATEGY"` // monotonic, uuid
	EnableEventLogging bool   `yaml:"enable_event_logging" env:"ENABLE_EVENT_LOGGING"`

	// HTTP options
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:","`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// DynamoDBConfig configures the DynamoDB repository
type DynamoDBConfig struct {
	Region          string `yaml:"region" env:"REGION"`
	Table           string `yaml:"table" env:"TABLE"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"` // DynamoDB Local, LocalStack
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	ConsistentRead  bool   `yaml:"consistent_read" env:"CONSISTENT_READ"`
	SkipTableCheck  bool   `yaml:"skip_table_check" env:"SKIP_TABLE_CHECK"`
}

// S3Config configures access to seed documents in S3 or MinIO
type S3Config struct {
	Region          string `yaml:"region" env:"REGION"`
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"USE_PATH_STYLE"`
}

// inferDatabaseType picks a backend when none was named: a postgres URL
// selects postgres, anything else the in-memory store.
func (c *ServerConfig) inferDatabaseType() {
	if c.DatabaseType != "" {
		return
	}
	if isPostgresURL(c.DatabaseURL) {
		c.DatabaseType = DatabasePostgres
		return
	}
	c.DatabaseType = DatabaseMemory
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case DatabaseMemory:
	case DatabasePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
		if !isPostgresURL(c.DatabaseURL) {
			return fmt.Errorf("unsupported database_url format: %s (use 'postgresql://...')", c.DatabaseURL)
		}
	case DatabaseDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.New("dynamodb table is required when using dynamodb")
		}
		if c.DynamoDB.Region == "" {
			return errors.New("dynamodb region is required when using dynamodb")
		}
	default:
		return fmt.Errorf("database_type must be 'memory', 'postgres' or 'dynamodb', got: %s", c.DatabaseType)
	}

	if _, err := idgen.ForStrategy(c.IDStrategy); err != nil {
		return err
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout cannot be negative")
	}

	return nil
}

// BuildLogger creates the process logger. Production uses JSON output, the
// testing environment discards everything.
func (c *ServerConfig) BuildLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	var zc zap.Config
	switch c.Environment {
	case "testing":
		return zap.NewNop(), nil
	case "production":
		zc = zap.NewProductionConfig()
	default:
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	return zc.Build()
}

// BuildRepository creates the configured Repository. The returned cleanup
// releases any connections and is never nil.
func (c *ServerConfig) BuildRepository(ctx context.Context, logger *zap.Logger) (sitecontent.Repository, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() {}

	switch c.DatabaseType {
	case DatabaseMemory:
		return memory.New(), noop, nil

	case DatabasePostgres:
		pool, err := c.openPostgres(ctx)
		if err != nil {
			return nil, noop, err
		}
		if c.AutoMigrate {
			if err := repopg.MigratePool(ctx, pool, c.DBSchema); err != nil {
				pool.Close()
				return nil, noop, fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("database migrations applied", zap.String("schema", c.DBSchema))
		}
		return repopg.NewWithPool(pool, repopg.WithLogger(logger)), pool.Close, nil

	case DatabaseDynamoDB:
		awsCfg, err := c.DynamoDB.awsConfig(ctx)
		if err != nil {
			return nil, noop, err
		}

		endpoint := c.DynamoDB.Endpoint
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})

		repo, err := repodynamo.New(&awsCfg, c.DynamoDB.Table,
			repodynamo.WithAPI(client),
			repodynamo.WithConsistentRead(c.DynamoDB.ConsistentRead),
			repodynamo.WithLogger(logger))
		if err != nil {
			return nil, noop, err
		}
		if !c.DynamoDB.SkipTableCheck {
			if err := repo.Init(ctx); err != nil {
				return nil, noop, fmt.Errorf("dynamodb table check failed: %w", err)
			}
		}
		return repo, noop, nil

	default:
		return nil, noop, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// openPostgres creates a pool with search_path set to the configured schema
// and checks that the database is reachable.
func (c *ServerConfig) openPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}

	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

func (d DynamoDBConfig) awsConfig(ctx context.Context) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(d.Region)}
	if d.AccessKeyID != "" && d.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(d.AccessKeyID, d.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// BuildService creates a Service over repo using the configured ID strategy
// and event sink.
func (c *ServerConfig) BuildService(repo sitecontent.Repository, logger *zap.Logger) (sitecontent.Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	gen, err := idgen.ForStrategy(c.IDStrategy)
	if err != nil {
		return nil, err
	}

	options := []sitecontent.Option{
		sitecontent.WithRepository(repo),
		sitecontent.WithIDGenerator(gen),
		sitecontent.WithLogger(logger),
	}
	if c.EnableEventLogging {
		options = append(options, sitecontent.WithEventSink(sitecontent.NewLoggingEventSink(logger)))
	}

	return sitecontent.New(options...)
}

// BuildSeedResolver creates the resolver for seed and export locations.
// s3:// locations are always available; credentials come from the S3
// section or the default chain.
func (c *ServerConfig) BuildSeedResolver(ctx context.Context, logger *zap.Logger) (*seed.Resolver, error) {
	store, err := seed.NewS3Store(ctx, seed.S3Config{
		Region:          c.S3.Region,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		Endpoint:        c.S3.Endpoint,
		UsePathStyle:    c.S3.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &seed.Resolver{S3: store}, nil
}
