package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ivfstore"
	"github.com/hupe1980/ivfstore/kv"
)

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(Prefix+"_"+k, v)
	}
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(Prefix+"_"+k, "")
		require.NoError(t, os.Unsetenv(Prefix+"_"+k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "BACKEND", "CACHE_MODE", "COMPRESSION", "RATE_LIMIT_RPS", "LOG_LEVEL", "LOG_FORMAT", "MINIO_ENDPOINT")
	setEnv(t, map[string]string{"NLIST": "1024", "CODE_SIZE": "16"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.NList)
	assert.Equal(t, 16, cfg.CodeSize)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "always-cached", cfg.CacheMode)
	assert.Equal(t, "none", cfg.Compression)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:9000", cfg.MinIO.Endpoint)
	assert.Zero(t, cfg.RateLimitRPS)
}

func TestLoad_Nested(t *testing.T) {
	setEnv(t, map[string]string{
		"NLIST":              "8",
		"CODE_SIZE":          "4",
		"BACKEND":            "s3",
		"S3_BUCKET":          "ivf",
		"S3_PREFIX":          "lists/",
		"S3_REGION":          "eu-central-1",
		"CACHE_MODE":         "ownership-transfer",
		"STRICT_MISSING":     "true",
		"RATE_LIMIT_RPS":     "50",
		"DYNAMODB_TABLE":     "ivf-lists",
		"PEBBLE_NO_SYNC":     "true",
		"MEMORY_LIMIT_BYTES": "1048576",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ivf", cfg.S3.Bucket)
	assert.Equal(t, "lists/", cfg.S3.Prefix)
	assert.Equal(t, "eu-central-1", cfg.S3.Region)
	assert.Equal(t, "ivf-lists", cfg.DynamoDB.Table)
	assert.True(t, cfg.Pebble.NoSync)
	assert.True(t, cfg.StrictMissing)
	assert.InDelta(t, 50.0, cfg.RateLimitRPS, 0)
	assert.Equal(t, int64(1<<20), cfg.MemoryLimitBytes)
}

func TestLoad_MissingRequired(t *testing.T) {
	unsetEnv(t, "NLIST", "CODE_SIZE")
	_, err := Load()
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		NList:       4,
		CodeSize:    8,
		CacheMode:   "always-cached",
		Backend:     BackendMemory,
		Compression: "none",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"nlist", func(c *Config) { c.NList = 0 }},
		{"code size", func(c *Config) { c.CodeSize = -1 }},
		{"memory limit", func(c *Config) { c.MemoryLimitBytes = -1 }},
		{"cache mode", func(c *Config) { c.CacheMode = "lru" }},
		{"compression", func(c *Config) { c.Compression = "brotli" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"backend", func(c *Config) { c.Backend = "redis" }},
		{"local dir", func(c *Config) { c.Backend = BackendLocal }},
		{"pebble dir", func(c *Config) { c.Backend = BackendPebble }},
		{"s3 bucket", func(c *Config) { c.Backend = BackendS3 }},
		{"minio bucket", func(c *Config) { c.Backend = BackendMinIO }},
		{"dynamodb table", func(c *Config) { c.Backend = BackendDynamoDB }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestOpenBackend_Decorators(t *testing.T) {
	ctx := context.Background()
	cfg := validConfig()
	cfg.Compression = "zstd"

	backend, closeFn, err := cfg.OpenBackend(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()
	assert.IsType(t, &kv.Compressed{}, backend)

	cfg.RateLimitRPS = 1000
	backend, closeFn2, err := cfg.OpenBackend(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn2()) }()
	assert.IsType(t, &kv.RateLimited{}, backend)

	require.NoError(t, backend.Put(ctx, "k", []byte("value")))
	got, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestOpen_Local(t *testing.T) {
	ctx := context.Background()
	cfg := validConfig()
	cfg.Backend = BackendLocal
	cfg.Local.Dir = filepath.Join(t.TempDir(), "lists")
	cfg.Compression = "lz4"

	st, closeFn, err := cfg.Open(ctx)
	require.NoError(t, err)
	_, err = st.AddEntries(ctx, 2, 1, []int64{42}, make([]byte, cfg.CodeSize))
	require.NoError(t, err)
	require.NoError(t, closeFn())

	st, closeFn, err = cfg.Open(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	id, err := st.GetSingleID(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	ids, _, err := st.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, ids.ToArray())
}

func TestOpen_Pebble(t *testing.T) {
	ctx := context.Background()
	cfg := validConfig()
	cfg.Backend = BackendPebble
	cfg.Pebble.Dir = t.TempDir()
	cfg.Pebble.NoSync = true
	cfg.CacheMode = "ownership-transfer"

	st, closeFn, err := cfg.Open(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	assert.Equal(t, ivfstore.OwnershipTransfer, st.Mode())
	off, err := st.AddEntries(ctx, 0, 2, []int64{1, 2}, make([]byte, 2*cfg.CodeSize))
	require.NoError(t, err)
	assert.Zero(t, off)

	n, err := st.ListSize(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStoreOptions_Strict(t *testing.T) {
	ctx := context.Background()
	cfg := validConfig()
	cfg.StrictMissing = true
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	st, closeFn, err := cfg.Open(ctx)
	require.NoError(t, err)
	defer func() { require.NoError(t, closeFn()) }()

	_, err = st.ListSize(ctx, 1)
	require.ErrorIs(t, err, ivfstore.ErrNotFound)
}
