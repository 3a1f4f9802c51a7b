package blockcache

// entry.go defines Entry, the cached value record (spec.md §3 Data
// Model). A single concrete (non-generic) Entry type backs both block
// entries (payload is *Block) and ref entries (payload is whatever T the
// caller's RefLoader[T] produced) — see "Generic value type" in
// DESIGN.md for why a type parameter per concrete T was rejected (it
// would force one hash table per ref artifact kind).
//
// Grounded on the teacher's entry[K,V] struct (pkg/cache.go lines
// 39-63): same field-by-field reasoning (hashed key for fast compare,
// a pointer to the payload, a weight/size, a hotness flag, a link
// field), restructured to match spec.md's exact shape: `next` on Entry
// itself threads the CLOCK ring (not a separate metaNode as the
// teacher's CLOCK-Pro implementation used), and doubles as the
// liveness flag per invariant I2 — an Entry whose next is nil has been
// evicted and must never be returned as a hit.
//
// © 2025 dfsblock/cache authors. MIT License.

import "sync/atomic"

// hotMaxBlock is the clamp applied to block entries' hotness counter,
// making the counter scheme degenerate into the boolean scheme spec.md
// §4.3 describes for blocks (see DESIGN.md Open Questions #1).
const hotMaxBlock = 1

// Entry is the metadata and payload kept for one cached (key, position)
// pair.
type Entry struct {
	key      StreamKey
	position int64 // 0 for ref entries
	size     atomic.Int64

	value atomic.Pointer[any] // nil once evicted

	hot    atomic.Int32 // clamped counter; >0 means "referenced since last sweep"
	hotMax int32        // per-entry clamp: 1 for blocks, Config.CacheHotMax[extension name] for refs

	next atomic.Pointer[Entry] // clock-ring link; nil <=> evicted (stale)
}

func newEntry(key StreamKey, position int64, size int64, value any, hotMax int32) *Entry {
	e := &Entry{key: key, position: position, hotMax: hotMax}
	e.size.Store(size)
	e.value.Store(&value)
	// hot starts at its zero value: get_or_load_block's install step never
	// marks hot, only get() does on a subsequent hit. The ref path is the
	// one exception and sets hot explicitly right after construction.
	return e
}

// Key returns the entry's StreamKey.
func (e *Entry) Key() StreamKey { return e.key }

// Position returns the entry's byte offset (always 0 for ref entries).
func (e *Entry) Position() int64 { return e.position }

// Size returns the byte count charged to the budget for this entry.
func (e *Entry) Size() int64 { return e.size.Load() }

// Live reports whether the entry still holds a payload. A false result
// means the entry has been evicted (payload cleared, unlinked from the
// clock ring) and must not be treated as a hit even if still
// transiently reachable from a stale hash-table bucket chain.
func (e *Entry) Live() bool {
	return e.value.Load() != nil
}

// rawValue returns the raw payload, or nil if evicted.
func (e *Entry) rawValue() any {
	p := e.value.Load()
	if p == nil {
		return nil
	}
	return *p
}

// markReferenced bumps the hotness counter on a cache hit, clamped to
// hotMax. Called by the Cache's get paths on every hit and by Put/PutRef
// when the entry already exists (hashTable.lookup itself never calls it);
// never blocks.
func (e *Entry) markReferenced() {
	for {
		cur := e.hot.Load()
		if cur >= e.hotMax {
			return
		}
		if e.hot.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// isStale reports whether this entry has been evicted: its ring link is
// nil. Used by HashTable.install's chain-cleaning pass.
func (e *Entry) isStale() bool {
	return e.next.Load() == nil
}
