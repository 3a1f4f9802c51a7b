// Package arena recycles short-lived allocations that the hash table's
// lock-free install path churns through under contention.
//
// The teacher's internal/arena wrapped Go's experimental `arena` package
// (gated behind `//go:build goexperiment.arenas`) to allocate cache
// entries outside the GC-scanned heap. That build tag makes a module
// uncompilable for anyone who hasn't opted into GOEXPERIMENT=arenas,
// which is unacceptable for a library other code is meant to import, so
// this package no longer touches the experimental arena API.
//
// What survives is the underlying idea — recycle memory instead of
// letting every insert allocate fresh — applied somewhere it's actually
// safe: HashTable.install (pkg/blockcache/hashtable.go) builds a new
// bucketNode chain on every CAS attempt, and attempts that lose the race
// are retried from scratch. A node built during a losing attempt was
// never reachable from any bucket head, so nothing could have read it
// through the lock-free lookup path, and it is safe to recycle.
//
// Cache Entry objects are deliberately NOT pooled here: an evicted Entry
// can remain transiently reachable from a stale bucket chain per
// invariant I2 until the next chain rewrite, so a concurrent reader may
// still be mid-dereference of it. Reusing that memory for an unrelated
// insertion would race with that reader. Go's garbage collector already
// reclaims an Entry safely once the last reader lets go of it; recycling
// it by hand would require epoch-based reclamation this cache doesn't
// implement.
//
// © 2025 dfsblock/cache authors. MIT License.
package arena

import "sync"

// Pool recycles *T values. New is called to produce a fresh value when
// the pool is empty; callers must reset any fields a reused value might
// carry before reading from it.
type Pool[T any] struct {
	pool sync.Pool
}

// NewPool returns a Pool whose New function is new_.
func NewPool[T any](new_ func() *T) *Pool[T] {
	p := &Pool[T]{}
	p.pool.New = func() any { return new_() }
	return p
}

// Get returns a recycled or freshly constructed *T.
func (p *Pool[T]) Get() *T {
	return p.pool.Get().(*T)
}

// Put returns v to the pool for reuse. v must not be reachable from
// anywhere else in the program at the time of the call.
func (p *Pool[T]) Put(v *T) {
	p.pool.Put(v)
}
