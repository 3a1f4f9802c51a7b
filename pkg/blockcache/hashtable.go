package blockcache

// hashtable.go implements HashTable (spec.md §4.1): a fixed-size array
// of atomic references to immutable bucket chains. Lookup is a single
// atomic load plus a chain walk and never blocks; install CASes a newly
// built chain head in, retrying against whatever the slot currently
// holds.
//
// This is one of the few places the implementation deliberately departs
// from the teacher's mechanism (see DESIGN.md): the teacher's shard
// keeps a map[uint64]*entry behind a sync.RWMutex, which is simple but
// not lock-free. spec.md's invariants I1/I2 and the "hash-table hit path
// holds no lock and never blocks" requirement (§5) call for genuine
// lock-free CAS bucket chains instead, built the same way the teacher's
// own "Concurrent hash bucket" design note (spec.md §9) describes.
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"math/bits"
	"sync/atomic"

	"github.com/dfsblock/cache/internal/arena"
)

// bucketNode is an immutable singly-linked chain node. The array cell is
// an atomic reference to the head node; membership changes only by CAS
// of the whole head pointer.
type bucketNode struct {
	entry *Entry
	next  *bucketNode
}

type hashTable struct {
	buckets     []atomic.Pointer[bucketNode]
	blockSizeL2 uint // log2(blockSize), used to fold a position into slot()
	nodePool    *arena.Pool[bucketNode]
}

// hashTableSize implements spec.md §4.1's sizing formula:
// min(5*(ceiling/blockSize)/2, MaxInt32), given blockSize > 0 and
// ceiling >= blockSize (both already validated by Config).
func hashTableSize(blockSize int32, ceiling int64) int {
	n := (5 * (ceiling / int64(blockSize))) / 2
	if n < 1 {
		n = 1
	}
	const maxInt32 = int64(1<<31 - 1)
	if n > maxInt32 {
		n = maxInt32
	}
	return int(n)
}

func newHashTable(blockSize int32, ceiling int64) *hashTable {
	size := hashTableSize(blockSize, ceiling)
	t := &hashTable{
		buckets:     make([]atomic.Pointer[bucketNode], size),
		blockSizeL2: uint(bits.TrailingZeros32(uint32(blockSize))),
		nodePool:    arena.NewPool(func() *bucketNode { return &bucketNode{} }),
	}
	return t
}

// slot implements spec.md §4.1's index formula:
//
//	slot(key, pos) = ((key.hash + (pos >> log2(blockSize))) >>> 1) mod tableSize
//
// Go's >> on an unsigned operand is already a logical (unsigned) shift,
// so no extra masking is needed to get a nonnegative index.
func (t *hashTable) slot(key StreamKey, pos int64) int {
	folded := key.Hash() + uint64(pos>>t.blockSizeL2)
	return int((folded >> 1) % uint64(len(t.buckets)))
}

// lookup walks the chain at (key, pos)'s slot, skipping any node whose
// entry has since been cleared, and returns the first live match. No
// locks are taken.
func (t *hashTable) lookup(key StreamKey, pos int64) (*Entry, bool) {
	idx := t.slot(key, pos)
	n := t.buckets[idx].Load()
	for n != nil {
		e := n.entry
		if e.position == pos && e.key.Equal(key) {
			if e.Live() {
				return e, true
			}
			// stale: skip, per spec.md §4.1's lookup contract, keep
			// walking in case an older duplicate further down is live.
		}
		n = n.next
	}
	return nil, false
}

// install builds a new chain head {newEntry, cleaned(old)} and CASes it
// into idx's slot, retrying against the freshly observed old value on
// failure. cleaned drops any node whose entry has been evicted
// (identified by entry.next == nil, per invariant I2), which is how
// chain garbage collection happens — opportunistically, only when a
// chain is being rewritten anyway.
func (t *hashTable) install(idx int, newEntry *Entry) {
	cell := &t.buckets[idx]
	var attempt installAttempt
	attempt.pool = t.nodePool
	for {
		attempt.allocated = attempt.allocated[:0]
		old := cell.Load()
		head := attempt.buildHead(newEntry, old)
		if cell.CompareAndSwap(old, head) {
			return
		}
		// Lost the race: every node this attempt allocated was never
		// published to any reader (the cell still holds whatever a
		// concurrent winner installed), so they're safe to recycle.
		// Nodes shared from the pre-existing chain are never in
		// attempt.allocated and are left untouched — a concurrent
		// reader may still be walking them.
		attempt.recycle()
	}
}

// installAttempt tracks the bucketNodes freshly allocated by a single
// install() CAS attempt, so that a losing attempt can return exactly
// those (and only those) nodes to the pool.
type installAttempt struct {
	pool      *arena.Pool[bucketNode]
	allocated []*bucketNode
}

func (a *installAttempt) buildHead(newEntry *Entry, old *bucketNode) *bucketNode {
	cleaned := a.cleaned(old)
	head := a.alloc()
	head.entry = newEntry
	head.next = cleaned
	return head
}

// cleaned returns a chain equivalent to n with every stale node removed,
// reusing trailing nodes that don't need to change and allocating only
// for the prefix that does.
func (a *installAttempt) cleaned(n *bucketNode) *bucketNode {
	if n == nil {
		return nil
	}
	if n.entry.isStale() {
		return a.cleaned(n.next)
	}
	tail := a.cleaned(n.next)
	if tail == n.next {
		return n // nothing downstream changed; share the existing node
	}
	rebuilt := a.alloc()
	rebuilt.entry = n.entry
	rebuilt.next = tail
	return rebuilt
}

func (a *installAttempt) alloc() *bucketNode {
	n := a.pool.Get()
	a.allocated = append(a.allocated, n)
	return n
}

func (a *installAttempt) recycle() {
	for _, n := range a.allocated {
		n.entry = nil
		n.next = nil
		a.pool.Put(n)
	}
}
