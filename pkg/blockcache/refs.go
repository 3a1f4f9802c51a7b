package blockcache

// refs.go implements the ref-shaped half of CacheFacade (spec.md §4.4
// get_or_load_ref<T>): cached parsed artifacts (bitmap index, commit
// graph, reftable blocks, ...) keyed by StreamKey alone (position is
// always 0). Unlike blocks, a ref's size is unknown until the loader
// runs, so reservation happens after the load instead of before it.
//
// Generic wrapper functions are the only place a *T type assertion
// happens; Entry itself stores the payload as `any` (see "Generic value
// type" in DESIGN.md) so one HashTable and one ClockEvictor serve every
// ref artifact kind without a downcast anywhere in the cache's internals.
//
// Grounded on the teacher's LoaderFunc[K,V]/Cache.GetOrLoad shape
// (pkg/loaderfunc.go, pkg/cache.go), adapted from singleflight
// coalescing to the ref-stripe-lock sequence spec.md §4.4 specifies.
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"context"
	"time"

	"github.com/dfsblock/cache/internal/striped"
)

// RefLoader loads the parsed artifact identified by key. It returns the
// artifact itself and sizeEstimate, the caller's best estimate of the
// artifact's retained memory footprint in bytes (used as the reservation
// amount — spec.md §6 External Interfaces, RefLoader<T>).
type RefLoader[T any] func(ctx context.Context, key StreamKey) (value T, sizeEstimate int64, err error)

// GetOrLoadRef implements spec.md §4.4's get_or_load_ref<T>. Position is
// always 0 for ref entries.
func GetOrLoadRef[T any](ctx context.Context, c *Cache, key StreamKey, loader RefLoader[T]) (T, error) {
	var zero T

	if e, ok := c.table.lookup(key, 0); ok {
		if v, ok := e.rawValue().(T); ok {
			e.markReferenced()
			c.recordHit(key)
			return v, nil
		}
	}

	idx := c.refSlot(key)
	// The wait is measured while acquiring the stripe, but the caller's
	// observer is only invoked after the stripe has been released.
	obs := c.refWaitObserver()
	var waited time.Duration
	if obs != nil {
		c.refs.LockTimed(idx, func(d time.Duration) { waited = d })
	} else {
		c.refs.LockTimed(idx, nil)
	}
	defer func() {
		c.refs.Unlock(idx)
		if obs != nil {
			obs(waited)
		}
	}()

	if e, ok := c.table.lookup(key, 0); ok {
		if v, ok := e.rawValue().(T); ok {
			e.markReferenced()
			c.recordHit(key)
			return v, nil
		}
	}

	c.recordMiss(key)
	value, size, err := loader(ctx, key)
	if err != nil {
		return zero, err
	}

	c.clock.reserve(size)
	entry := newEntry(key, 0, size, value, c.cfg.hotMaxFor(refExtName(key, c)))
	entry.hot.Store(entry.hotMax) // loader result counts as referenced immediately
	c.table.install(c.slot(key, 0), entry)
	c.clock.addToClock(entry, 0)
	c.bumpLiveBytes(key, size)

	return value, nil
}

// GetRef is a lock-free value fetch for an already-resident ref; unlike
// GetOrLoadRef it never loads on a miss.
func GetRef[T any](c *Cache, key StreamKey) (T, bool) {
	var zero T
	e, ok := c.table.lookup(key, 0)
	if !ok {
		c.recordMiss(key)
		return zero, false
	}
	v, ok := e.rawValue().(T)
	if !ok {
		c.recordMiss(key)
		return zero, false
	}
	e.markReferenced()
	c.recordHit(key)
	return v, true
}

// PutRef inserts a preloaded ref artifact, idempotently: if an entry
// already exists for key it is left untouched beyond being marked
// referenced (spec.md §4.4 put's idempotence, property R2).
func PutRef[T any](c *Cache, key StreamKey, value T, sizeEstimate int64) {
	if e, ok := c.table.lookup(key, 0); ok {
		e.markReferenced()
		return
	}

	c.clock.reserve(sizeEstimate)
	idx := c.refSlot(key)
	c.refs.Lock(idx)
	defer c.refs.Unlock(idx)

	if e, ok := c.table.lookup(key, 0); ok {
		c.clock.creditSpace(sizeEstimate)
		e.markReferenced()
		return
	}

	entry := newEntry(key, 0, sizeEstimate, value, c.cfg.hotMaxFor(refExtName(key, c)))
	c.table.install(c.slot(key, 0), entry)
	c.clock.addToClock(entry, 0)
	c.bumpLiveBytes(key, sizeEstimate)
}

// refSlot indexes the ref-stripe array: (hash >>> 1) mod N, per spec.md
// §4.2 (position is always 0 for refs, so no position term is folded
// in).
func (c *Cache) refSlot(key StreamKey) int {
	return int((key.Hash() >> 1) % uint64(c.refs.Len()))
}

func (c *Cache) refWaitObserver() striped.WaitObserver {
	if c.cfg.RefLockWaitObserver == nil {
		return nil
	}
	return striped.WaitObserver(c.cfg.RefLockWaitObserver)
}

// refExtName resolves key's extension name for the CacheHotMax lookup.
// The registry only hands out positions, not names, to the hot path;
// this reverse lookup happens once per ref miss, not per hit.
func refExtName(key StreamKey, c *Cache) string {
	return c.extreg.Name(key.ExtPos())
}
