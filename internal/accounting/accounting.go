// Package accounting holds the per-extension statistics counters the
// block cache exposes to callers: hits, misses, evictions and live bytes,
// indexed by StreamKey.ExtPos. The backing array grows by atomic
// replacement when a new extension position is observed, so readers
// never take a lock and never see an index-out-of-range panic — they
// either see the old array (and the new extension simply hasn't
// accumulated stats yet) or the grown one.
//
// Grounded on the teacher's pkg/metrics.go (promMetrics.arenaMirror
// []atomic.Int64, and the shard-level hits/misses/evictions
// atomic.Uint64 fields), generalized from a fixed shard count to a
// growable extension-indexed table.
//
// © 2025 dfsblock/cache authors. MIT License.
package accounting

import (
	"sync"
	"sync/atomic"
)

// Counters is the atomic counter set for a single extension.
type Counters struct {
	Hits      atomic.Uint64
	Misses    atomic.Uint64
	Evictions atomic.Uint64
	LiveBytes atomic.Int64
}

// Snapshot is a point-in-time, non-atomic read of one extension's
// Counters. Consumers of statistics must tolerate skew between fields:
// reading a snapshot of all counters is not itself atomic (spec
// §5 Ordering guarantees).
type Snapshot struct {
	Ext       string
	ExtPos    int
	Hits      uint64
	Misses    uint64
	Evictions uint64
	LiveBytes int64
}

// Total returns Hits+Misses.
func (s Snapshot) Total() uint64 { return s.Hits + s.Misses }

// HitRatioPercent returns an integer 0..100 hit ratio. 0 when Total()==0.
func (s Snapshot) HitRatioPercent() int {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return int(s.Hits * 100 / total)
}

// Table is the growable array of per-extension Counters, behind an
// atomic pointer so lookups never block. Growth itself (appending a new
// Counters for a never-before-seen extPos) is serialized by growMu; the
// hot path (Get on an already-registered extPos) never takes it.
type Table struct {
	arr    atomic.Pointer[[]*Counters]
	growMu sync.Mutex
}

// New returns an empty table.
func New() *Table {
	t := &Table{}
	empty := make([]*Counters, 0)
	t.arr.Store(&empty)
	return t
}

// Get returns the Counters for extPos, growing the backing array first
// if necessary. The grown array is a fresh copy published with an atomic
// store while growMu is held, so that concurrent readers holding the old
// array keep working with it —
// both are consistent snapshots of their respective generations.
func (t *Table) Get(extPos int) *Counters {
	if extPos < 0 {
		extPos = 0
	}
	if c := t.tryGet(extPos); c != nil {
		return c
	}

	t.growMu.Lock()
	defer t.growMu.Unlock()

	cur := *t.arr.Load()
	if extPos < len(cur) {
		return cur[extPos]
	}
	grown := make([]*Counters, extPos+1)
	copy(grown, cur)
	for i := len(cur); i <= extPos; i++ {
		grown[i] = &Counters{}
	}
	t.arr.Store(&grown)
	return grown[extPos]
}

func (t *Table) tryGet(extPos int) *Counters {
	cur := *t.arr.Load()
	if extPos < len(cur) {
		return cur[extPos]
	}
	return nil
}

// Len returns the current backing array length (i.e. the number of
// distinct extensions observed so far).
func (t *Table) Len() int {
	return len(*t.arr.Load())
}

// Snapshot reads Counters at extPos into a non-atomic Snapshot. ext is
// the human-readable extension name (caller looks it up via
// internal/extreg); it is carried for convenience only.
func (t *Table) Snapshot(extPos int, ext string) Snapshot {
	cur := *t.arr.Load()
	if extPos < 0 || extPos >= len(cur) {
		return Snapshot{Ext: ext, ExtPos: extPos}
	}
	c := cur[extPos]
	return Snapshot{
		Ext:       ext,
		ExtPos:    extPos,
		Hits:      c.Hits.Load(),
		Misses:    c.Misses.Load(),
		Evictions: c.Evictions.Load(),
		LiveBytes: c.LiveBytes.Load(),
	}
}

// All returns a Snapshot for every extension position currently
// allocated. name is used to resolve Ext labels; it may return "" for
// unknown positions.
func (t *Table) All(name func(extPos int) string) []Snapshot {
	cur := *t.arr.Load()
	out := make([]Snapshot, len(cur))
	for i, c := range cur {
		out[i] = Snapshot{
			Ext:       name(i),
			ExtPos:    i,
			Hits:      c.Hits.Load(),
			Misses:    c.Misses.Load(),
			Evictions: c.Evictions.Load(),
			LiveBytes: c.LiveBytes.Load(),
		}
	}
	return out
}
