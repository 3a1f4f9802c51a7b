// Package extreg assigns stable small integer positions to packfile
// extension names ("pack", "idx", "bitmap", "rev", "graph", "objsize",
// "reftable", ...) on first use. StreamKey.ExtPos is an opaque integer
// used to index per-extension statistics arrays (internal/accounting);
// this registry is what maps a human-readable extension name to that
// integer, and back again for the inspector CLI's labels.
//
// © 2025 dfsblock/cache authors. MIT License.
package extreg

import "sync"

// Registry is a process-wide name <-> position table. The zero value is
// ready to use.
type Registry struct {
	mu    sync.Mutex
	byExt map[string]int
	names []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byExt: make(map[string]int, 8)}
}

// PosFor returns the stable position for ext, assigning a new one the
// first time ext is seen. Safe for concurrent use.
func (r *Registry) PosFor(ext string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pos, ok := r.byExt[ext]; ok {
		return pos
	}
	if r.byExt == nil {
		r.byExt = make(map[string]int)
	}
	pos := len(r.names)
	r.byExt[ext] = pos
	r.names = append(r.names, ext)
	return pos
}

// Name returns the extension name registered at pos, or "" if pos was
// never assigned. Takes the registry lock; callers are statistics readers
// and the ref-miss path, never the hit path.
func (r *Registry) Name(pos int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pos < 0 || pos >= len(r.names) {
		return ""
	}
	return r.names[pos]
}

// Len reports how many distinct extensions have been registered so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}
