package ivfstore

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/ivfstore/internal/resource"
)

// CacheMode selects what happens to a cached snapshot when its borrows are
// released.
type CacheMode uint8

const (
	// AlwaysCached keeps every loaded snapshot until Reset, Evict or Close.
	// Release only updates the borrow count.
	AlwaysCached CacheMode = iota

	// OwnershipTransfer keeps a snapshot only while it is borrowed. When the
	// last borrow of a list is released the snapshot is dropped, and
	// operations that do not borrow leave nothing cached behind them.
	OwnershipTransfer
)

func (m CacheMode) String() string {
	switch m {
	case AlwaysCached:
		return "always-cached"
	case OwnershipTransfer:
		return "ownership-transfer"
	default:
		return fmt.Sprintf("CacheMode(%d)", m)
	}
}

// ParseCacheMode parses "always-cached" or "ownership-transfer".
func ParseCacheMode(s string) (CacheMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always-cached", "always":
		return AlwaysCached, nil
	case "ownership-transfer", "ownership":
		return OwnershipTransfer, nil
	default:
		return 0, &ErrInvalidConfig{Field: "cache mode", Value: s}
	}
}

type options struct {
	mode             CacheMode
	keyPrefix        string
	strictMissing    bool
	memoryLimit      int64
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Store.
type Option func(*options)

// WithCacheMode sets the cache mode. The default is AlwaysCached.
func WithCacheMode(mode CacheMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithKeyPrefix places every key under "<prefix>/", so several stores can
// share one backend. Keys then look like "shard-a/list-3/ids".
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithStrictMissing makes reads of a list with no persisted arrays fail with
// ErrNotFound instead of returning an empty list. Mutations always treat such
// a list as empty.
func WithStrictMissing() Option {
	return func(o *options) {
		o.strictMissing = true
	}
}

// WithMemoryLimit bounds the bytes held by cached snapshots. An operation
// that would exceed the limit fails with resource.ErrMemoryLimitExceeded;
// nothing is evicted to make room. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &ivfstore.BasicMetricsCollector{}
//	st, _ := ivfstore.New(backend, 1024, 16, ivfstore.WithMetricsCollector(metrics))
//	// ... use st ...
//	stats := metrics.GetStats()
//	fmt.Printf("Loads: %d, hits: %d\n", stats.LoadCount, stats.CacheHits)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		mode:             AlwaysCached,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

func (o options) resourceController() *resource.Controller {
	return resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit})
}
