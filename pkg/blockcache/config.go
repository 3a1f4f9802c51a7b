package blockcache

// config.go defines the immutable Config object and the set of functional
// options used to build it (spec.md §6 Configuration schema). Validation
// happens once, in New, never on the hot path.
//
// Grounded on the teacher's pkg/config.go: defaultConfig + applyOptions +
// package-level sentinel errors, generalized from the teacher's
// capBytes/ttl/shards triple to this cache's blockSize/blockLimit/
// concurrencyLevel/streamRatio/cacheHotMax knobs. WithLogger and WithMetrics
// are carried over unchanged in spirit (ambient stack, not cache semantics).
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dfsblock/cache/internal/unsafehelpers"
)

const (
	defaultBlockSize            = int32(64 * 1024)
	defaultConcurrencyLevel     = 32
	defaultStreamRatio          = 1.0
	defaultCacheHotMax          = uint32(4)
	defaultEvictionLogWatermark = 256
)

// RefLockWaitObserver is invoked with the duration a caller waited to
// acquire a ref stripe lock, for callers that want latency metrics on
// single-flight contention. Must not block.
type RefLockWaitObserver func(time.Duration)

// Option configures a Cache at construction time. Options never mutate a
// live Cache — see Configuration in DESIGN.md for why reconfiguration goes
// through Replace instead.
type Option func(*Config)

// Config bundles every knob that influences cache behavior. Immutable once
// built by New; there is no live mutation of a Config's fields (not even
// internally) — re-tuning means constructing a fresh Cache and swapping it
// in via Replace.
type Config struct {
	BlockSize        int32
	BlockLimit       int64
	ConcurrencyLevel int
	StreamRatio      float64

	// CacheHotMax holds the per-extension hotness clamp for ref entries,
	// keyed by extension name. Looked up through the extension registry at
	// insertion time; zero-value (unset) falls back to defaultCacheHotMax.
	CacheHotMax map[string]uint32

	RefLockWaitObserver RefLockWaitObserver

	// EvictionLogWatermark is the number of entries a single clock sweep
	// may evict before it is logged as a zap.Warn. Zero disables the log.
	EvictionLogWatermark int

	Logger   *zap.Logger
	Registry *prometheus.Registry
}

func defaultConfig() *Config {
	return &Config{
		BlockSize:             defaultBlockSize,
		BlockLimit:            int64(defaultBlockSize) * 1024,
		ConcurrencyLevel:      defaultConcurrencyLevel,
		StreamRatio:           defaultStreamRatio,
		CacheHotMax:           make(map[string]uint32),
		EvictionLogWatermark:  defaultEvictionLogWatermark,
		Logger:                zap.NewNop(),
	}
}

// WithBlockSize sets the byte length of a single block. Must be a power of
// two; validated in New.
func WithBlockSize(n int32) Option {
	return func(c *Config) { c.BlockSize = n }
}

// WithBlockLimit sets the soft upper bound on live bytes. Must be >=
// BlockSize; validated in New.
func WithBlockLimit(n int64) Option {
	return func(c *Config) { c.BlockLimit = n }
}

// WithConcurrencyLevel sets the number of stripe locks in each of the two
// lock arrays (block loads, ref loads).
func WithConcurrencyLevel(n int) Option {
	return func(c *Config) { c.ConcurrencyLevel = n }
}

// WithStreamRatio sets the fraction (0, 1] of BlockLimit beyond which a
// stream bypasses the cache entirely (ShouldCopyThroughCache).
func WithStreamRatio(ratio float64) Option {
	return func(c *Config) { c.StreamRatio = ratio }
}

// WithCacheHotMax overrides the ref hotness clamp for a single extension.
// Blocks are not affected — their clamp is fixed at hotMaxBlock.
func WithCacheHotMax(ext string, max uint32) Option {
	return func(c *Config) {
		if c.CacheHotMax == nil {
			c.CacheHotMax = make(map[string]uint32)
		}
		c.CacheHotMax[ext] = max
	}
}

// WithRefLockWaitObserver registers a callback invoked with the time spent
// waiting on a ref stripe lock. Passing nil disables observation (default).
func WithRefLockWaitObserver(obs RefLockWaitObserver) Option {
	return func(c *Config) { c.RefLockWaitObserver = obs }
}

// WithEvictionLogWatermark sets the per-sweep eviction count above which the
// clock evictor logs a zap.Warn. Passing 0 disables the log entirely.
func WithEvictionLogWatermark(n int) Option {
	return func(c *Config) { c.EvictionLogWatermark = n }
}

// WithLogger plugs an external zap.Logger. The cache never logs on the hot
// path; it logs construction, configuration rejection, clock sweeps that
// evict more than EvictionLogWatermark entries, and ref-lock wait samples
// when no RefLockWaitObserver is registered.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics export for the cache instance.
// Passing nil disables metrics (default).
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *Config) { c.Registry = reg }
}

// hotMaxFor resolves the ref hotness clamp for an extension, falling back to
// defaultCacheHotMax when unset.
func (c *Config) hotMaxFor(ext string) int32 {
	if max, ok := c.CacheHotMax[ext]; ok && max > 0 {
		return int32(max)
	}
	return int32(defaultCacheHotMax)
}

// buildConfig applies opts over defaultConfig and validates the result,
// returning the first ConfigError encountered.
func buildConfig(opts []Option) (*Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if !unsafehelpers.IsPowerOfTwo(int64(cfg.BlockSize)) {
		return rejectConfig(cfg, "BlockSize", ErrInvalidBlockSize, cfg.BlockSize)
	}
	if cfg.BlockLimit < int64(cfg.BlockSize) {
		return rejectConfig(cfg, "BlockLimit", ErrInvalidBlockLimit, cfg.BlockLimit)
	}
	if cfg.ConcurrencyLevel <= 0 {
		return rejectConfig(cfg, "ConcurrencyLevel", ErrInvalidConcurrency, cfg.ConcurrencyLevel)
	}
	if cfg.StreamRatio <= 0 || cfg.StreamRatio > 1 {
		return rejectConfig(cfg, "StreamRatio", ErrInvalidStreamRatio, cfg.StreamRatio)
	}
	if hashTableSize(cfg.BlockSize, cfg.BlockLimit) < 1 {
		return rejectConfig(cfg, "BlockLimit", ErrInvalidTableSize, cfg.BlockLimit)
	}
	return nil
}

// rejectConfig logs the rejection (cfg.Logger is already wired by the time
// validateConfig runs: WithLogger applies before buildConfig validates) and
// returns the ConfigError buildConfig hands back to the caller.
func rejectConfig(cfg *Config, field string, sentinel error, got any) error {
	err := configError(field, sentinel, got)
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Warn("blockcache: rejecting configuration",
		zap.String("field", field),
		zap.Error(sentinel),
		zap.Any("got", got),
	)
	return err
}
