// Package config builds a list store from environment variables.
//
// All variables use the IVFSTORE_ prefix, for example:
//
//	IVFSTORE_NLIST=1024
//	IVFSTORE_CODE_SIZE=16
//	IVFSTORE_BACKEND=pebble
//	IVFSTORE_PEBBLE_DIR=/var/lib/ivf
//	IVFSTORE_COMPRESSION=zstd
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/kelseyhightower/envconfig"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/ivfstore"
	"github.com/hupe1980/ivfstore/blobstore"
	miniostore "github.com/hupe1980/ivfstore/blobstore/minio"
	s3store "github.com/hupe1980/ivfstore/blobstore/s3"
	"github.com/hupe1980/ivfstore/kv"
	ddbkv "github.com/hupe1980/ivfstore/kv/dynamodb"
	pebblekv "github.com/hupe1980/ivfstore/kv/pebble"
)

// Prefix is the environment variable prefix.
const Prefix = "IVFSTORE"

// Backend kinds.
const (
	BackendMemory   = "memory"
	BackendLocal    = "local"
	BackendPebble   = "pebble"
	BackendS3       = "s3"
	BackendMinIO    = "minio"
	BackendDynamoDB = "dynamodb"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Config holds the store configuration.
type Config struct {
	NList            int    `envconfig:"NLIST" required:"true"`
	CodeSize         int    `envconfig:"CODE_SIZE" required:"true"`
	CacheMode        string `envconfig:"CACHE_MODE" default:"always-cached"`
	KeyPrefix        string `envconfig:"KEY_PREFIX"`
	StrictMissing    bool   `envconfig:"STRICT_MISSING" default:"false"`
	MemoryLimitBytes int64  `envconfig:"MEMORY_LIMIT_BYTES" default:"0"` // 0 means unlimited

	Backend        string  `envconfig:"BACKEND" default:"memory"`
	Compression    string  `envconfig:"COMPRESSION" default:"none"`
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"0"`   // 0 means disabled
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"0"` // 0 means use RPS

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	Local    LocalConfig    `envconfig:"LOCAL"`
	Pebble   PebbleConfig   `envconfig:"PEBBLE"`
	S3       S3Config       `envconfig:"S3"`
	MinIO    MinIOConfig    `envconfig:"MINIO"`
	DynamoDB DynamoDBConfig `envconfig:"DYNAMODB"`
}

// LocalConfig configures the local filesystem backend.
type LocalConfig struct {
	Dir string `envconfig:"DIR"`
}

// PebbleConfig configures the Pebble backend.
type PebbleConfig struct {
	Dir    string `envconfig:"DIR"`
	NoSync bool   `envconfig:"NO_SYNC" default:"false"`
}

// S3Config configures the S3 backend. Credentials come from the default
// AWS configuration chain.
type S3Config struct {
	Bucket   string `envconfig:"BUCKET"`
	Prefix   string `envconfig:"PREFIX"`
	Region   string `envconfig:"REGION"`
	Endpoint string `envconfig:"ENDPOINT"`
}

// MinIOConfig configures the MinIO backend.
type MinIOConfig struct {
	Endpoint  string `envconfig:"ENDPOINT" default:"localhost:9000"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
	Bucket    string `envconfig:"BUCKET"`
	Prefix    string `envconfig:"PREFIX"`
}

// DynamoDBConfig configures the DynamoDB backend.
type DynamoDBConfig struct {
	Table    string `envconfig:"TABLE"`
	Region   string `envconfig:"REGION"`
	Endpoint string `envconfig:"ENDPOINT"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values and backend specific requirements.
func (c *Config) Validate() error {
	if c.NList <= 0 {
		return fmt.Errorf("%w: nlist %d", ErrInvalid, c.NList)
	}
	if c.CodeSize <= 0 {
		return fmt.Errorf("%w: code size %d", ErrInvalid, c.CodeSize)
	}
	if c.MemoryLimitBytes < 0 {
		return fmt.Errorf("%w: memory limit %d", ErrInvalid, c.MemoryLimitBytes)
	}
	if _, err := ivfstore.ParseCacheMode(c.CacheMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := kv.ParseCompressionType(c.Compression); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat)
	}

	switch c.Backend {
	case BackendMemory:
	case BackendLocal:
		if c.Local.Dir == "" {
			return fmt.Errorf("%w: %s_LOCAL_DIR is required", ErrInvalid, Prefix)
		}
	case BackendPebble:
		if c.Pebble.Dir == "" {
			return fmt.Errorf("%w: %s_PEBBLE_DIR is required", ErrInvalid, Prefix)
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("%w: %s_S3_BUCKET is required", ErrInvalid, Prefix)
		}
	case BackendMinIO:
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("%w: %s_MINIO_BUCKET is required", ErrInvalid, Prefix)
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("%w: %s_DYNAMODB_TABLE is required", ErrInvalid, Prefix)
		}
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	return level, nil
}

// Logger returns the logger described by LogLevel and LogFormat.
func (c *Config) Logger() (*ivfstore.Logger, error) {
	level, err := c.level()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(c.LogFormat, "json") {
		return ivfstore.NewJSONLogger(level), nil
	}
	return ivfstore.NewTextLogger(level), nil
}

// StoreOptions translates the configuration into store options.
func (c *Config) StoreOptions() ([]ivfstore.Option, error) {
	mode, err := ivfstore.ParseCacheMode(c.CacheMode)
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	opts := []ivfstore.Option{
		ivfstore.WithCacheMode(mode),
		ivfstore.WithKeyPrefix(c.KeyPrefix),
		ivfstore.WithMemoryLimit(c.MemoryLimitBytes),
		ivfstore.WithLogger(logger),
	}
	if c.StrictMissing {
		opts = append(opts, ivfstore.WithStrictMissing())
	}
	return opts, nil
}

// OpenBackend creates the configured backend with compression and rate
// limiting applied. The returned close function releases resources held by
// the backend and must be called once the store is no longer used.
func (c *Config) OpenBackend(ctx context.Context) (kv.Backend, func() error, error) {
	noop := func() error { return nil }

	var (
		backend kv.Backend
		closeFn = noop
	)
	switch c.Backend {
	case BackendMemory:
		backend = kv.NewMemoryBackend()
	case BackendLocal:
		if err := os.MkdirAll(c.Local.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create local dir: %w", err)
		}
		backend = kv.NewBlobBackend(blobstore.NewLocalStore(c.Local.Dir))
	case BackendPebble:
		pb, err := pebblekv.Open(c.Pebble.Dir, &pebblekv.Options{NoSync: c.Pebble.NoSync})
		if err != nil {
			return nil, nil, err
		}
		backend, closeFn = pb, pb.Close
	case BackendS3:
		var opts []s3store.Option
		if c.S3.Prefix != "" {
			opts = append(opts, s3store.WithPrefix(c.S3.Prefix))
		}
		if c.S3.Region != "" {
			opts = append(opts, s3store.WithRegion(c.S3.Region))
		}
		if c.S3.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(c.S3.Endpoint))
		}
		store, err := s3store.New(ctx, c.S3.Bucket, opts...)
		if err != nil {
			return nil, nil, err
		}
		backend = kv.NewBlobBackend(store)
	case BackendMinIO:
		client, err := minio.New(c.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(c.MinIO.AccessKey, c.MinIO.SecretKey, ""),
			Secure: c.MinIO.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create minio client: %w", err)
		}
		backend = kv.NewBlobBackend(miniostore.NewStore(client, c.MinIO.Bucket, c.MinIO.Prefix))
	case BackendDynamoDB:
		client, err := c.dynamoDBClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		backend = ddbkv.New(client, c.DynamoDB.Table)
	default:
		return nil, nil, fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend)
	}

	compression, err := kv.ParseCompressionType(c.Compression)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if compression != kv.CompressionNone {
		backend = kv.NewCompressed(backend, compression)
	}
	if c.RateLimitRPS > 0 {
		backend = kv.NewRateLimited(backend, c.RateLimitRPS, c.RateLimitBurst)
	}
	return backend, closeFn, nil
}

func (c *Config) dynamoDBClient(ctx context.Context) (*dynamodb.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.DynamoDB.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(c.DynamoDB.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.DynamoDB.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.DynamoDB.Endpoint)
		}
	}), nil
}

// Open creates the backend and a store over it. The returned close function
// closes the store and then the backend.
func (c *Config) Open(ctx context.Context, extra ...ivfstore.Option) (*ivfstore.Store, func() error, error) {
	opts, err := c.StoreOptions()
	if err != nil {
		return nil, nil, err
	}
	backend, closeBackend, err := c.OpenBackend(ctx)
	if err != nil {
		return nil, nil, err
	}
	st, err := ivfstore.New(backend, c.NList, c.CodeSize, append(opts, extra...)...)
	if err != nil {
		_ = closeBackend()
		return nil, nil, err
	}
	return st, func() error {
		return errors.Join(st.Close(), closeBackend())
	}, nil
}
