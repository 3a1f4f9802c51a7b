package blockcache

// cache.go is the top-level Cache facade (spec.md §2 CacheFacade, §4.4
// operations). It wires together the HashTable, ClockEvictor, two
// StripedLocks sets (block loads, ref loads), the extension registry,
// and the accounting table into the single object the rest of the
// package's files (blocks.go, refs.go, stats.go) add methods to.
//
// Grounded on the teacher's Cache[K,V] (pkg/cache.go): same
// construct-validate-wire shape as New, generalized from a fixed shard
// array to the single shared HashTable + ClockEvictor spec.md's design
// calls for (the teacher shards to reduce *lock* contention; this cache
// avoids locks on the hit path entirely, so sharding the table buys
// nothing and was dropped — see DESIGN.md).
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dfsblock/cache/internal/accounting"
	"github.com/dfsblock/cache/internal/extreg"
	"github.com/dfsblock/cache/internal/striped"
)

// Cache is a process-wide, in-memory block cache for a DFS-backed Git
// storage layer. The zero value is not usable; construct with New.
type Cache struct {
	cfg *Config

	table  *hashTable
	clock  *clockEvictor
	blocks *striped.Set // keyed by the same slot() as the hash table
	refs   *striped.Set
	stats  *accounting.Table
	extreg *extreg.Registry
	log    *zap.Logger
}

// New constructs a Cache from opts, validating the derived Config and
// returning a *ConfigError on any violation (spec.md §6). No I/O and no
// background goroutines are started; New never blocks.
func New(opts ...Option) (*Cache, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	stats := accounting.New()
	c := &Cache{
		cfg:    cfg,
		table:  newHashTable(cfg.BlockSize, cfg.BlockLimit),
		clock:  newClockEvictor(cfg.BlockLimit, stats).withLogging(cfg.Logger, cfg.EvictionLogWatermark),
		blocks: striped.New(cfg.ConcurrencyLevel),
		refs:   striped.NewLogged(cfg.ConcurrencyLevel, cfg.Logger),
		stats:  stats,
		extreg: extreg.New(),
		log:    cfg.Logger,
	}
	c.log.Debug("blockcache constructed",
		zap.Int32("block_size", cfg.BlockSize),
		zap.Int64("block_limit", cfg.BlockLimit),
		zap.Int("concurrency_level", cfg.ConcurrencyLevel),
	)
	if cfg.Registry != nil {
		cfg.Registry.MustRegister(newCacheCollector(c))
	}
	return c, nil
}

// Close releases the Cache's resources. A Cache carries no background
// goroutines or file descriptors of its own (spec.md Non-goals exclude
// persistence), so Close only drops references to let the garbage
// collector reclaim the table and ring; it never blocks and is safe to
// call more than once.
func (c *Cache) Close() {
	c.table = nil
	c.clock = nil
}

// extPosFor resolves key's extension to a stable position via the
// registry, assigning one on first use.
func (c *Cache) extPosFor(ext string) int {
	return c.extreg.PosFor(ext)
}

// singleton is the process-wide default Cache slot used by package-level
// convenience callers that don't want to thread a *Cache through every
// call site — mirroring how a JGit process keeps exactly one
// DfsBlockCache alive at a time. Most embedders should prefer holding
// their own *Cache and ignore this.
var singleton atomic.Pointer[Cache]

// Replace installs cache as the process-wide singleton and returns
// whatever Cache was previously installed (nil on the first call). The
// swap is atomic: concurrent Current() callers observe either the old or
// the new Cache, never a half-updated one. Callers that swap out a Cache
// are responsible for calling Close on the value Replace returns once
// they're sure no goroutine still holds a reference to it.
func Replace(cache *Cache) (old *Cache) {
	return singleton.Swap(cache)
}

// Current returns the process-wide singleton installed by the most
// recent Replace call, or nil if none has been installed yet.
func Current() *Cache {
	return singleton.Load()
}
