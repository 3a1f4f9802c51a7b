package blockcache

// clock.go implements ClockEvictor (spec.md §4.3): a singly-linked
// circular list of live entries plus a sentinel, with a moving hand and
// a dedicated clock lock. Reserve sweeps the ring until enough bytes are
// free; AddToClock splices a freshly loaded entry in after the hand;
// CreditSpace rolls back a reservation that turned out to be
// unnecessary.
//
// Grounded on the teacher's internal/clockpro/clockpro.go (ring
// append/remove, evictIfNeeded's hand sweep), simplified from full
// CLOCK-Pro (hot/cold/test/ghost states, promotion on a second
// reference) to the plain second-chance CLOCK spec.md §4.3 specifies:
// one hotness counter, one grace pass, evict on the second sweep still
// unreferenced. See DESIGN.md for why (the spec's pseudocode and
// invariants describe the simpler algorithm, and ghost-entry retention
// is an explicit "MAY" in the source, not a requirement).
//
// © 2025 dfsblock/cache authors. MIT License.

import (
	"sync"

	"go.uber.org/zap"

	"github.com/dfsblock/cache/internal/accounting"
)

// clockEvictor owns the ring and the byte budget.
type clockEvictor struct {
	mu       sync.Mutex
	sentinel *Entry // invariant I3: first ring member, never evicted
	hand     *Entry
	live     int64 // live bytes; consistent only while mu is held (invariant I4)
	ceiling  int64
	stats    *accounting.Table

	log          *zap.Logger
	logWatermark int // sweeps evicting more entries than this get a zap.Warn; 0 disables
}

func newClockEvictor(ceiling int64, stats *accounting.Table) *clockEvictor {
	sentinel := &Entry{}
	sentinel.next.Store(sentinel) // ring of one
	return &clockEvictor{
		sentinel: sentinel, hand: sentinel, ceiling: ceiling, stats: stats,
		log: zap.NewNop(),
	}
}

// withLogging attaches the logger and per-sweep eviction watermark used to
// flag unusually large sweeps (spec.md's logging bullet). Called once from
// New, before the evictor is reachable by any other goroutine.
func (c *clockEvictor) withLogging(log *zap.Logger, watermark int) *clockEvictor {
	if log != nil {
		c.log = log
	}
	c.logWatermark = watermark
	return c
}

// liveBytes returns the current live-byte total. Only meaningful as a
// point-in-time snapshot outside the clock lock (invariant I4).
func (c *clockEvictor) liveBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// reserve accounts for an upcoming insertion of up to bytes before the
// caller acquires its stripe lock (spec.md §4.4 step 3). It commits the
// reservation to the live-byte total immediately ("eager" accounting —
// see DESIGN.md Open Questions #3) and sweeps the ring if that pushes
// the total over ceiling. The reservation is reconciled against the
// entry's actual size later via addToClock, or rolled back entirely via
// creditSpace.
func (c *clockEvictor) reserve(bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live += bytes
	c.sweepLocked()
}

// creditSpace rolls back bytes previously committed by reserve, used
// when a speculative reservation turns out to be unnecessary (a
// concurrent re-lookup found an existing live entry, or the loader
// failed).
func (c *clockEvictor) creditSpace(bytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live -= bytes
}

// addToClock splices entry into the ring immediately after the hand and
// advances the hand to it, then reconciles the reservation: creditBack
// is subtracted from the live-byte total (entries may pass a negative
// creditBack when the actual size turned out larger than reserved,
// growing the total — invariant I5 allows this transient overage).
func (c *clockEvictor) addToClock(entry *Entry, creditBack int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.hand.next.Load()
	entry.next.Store(next)
	c.hand.next.Store(entry)
	c.hand = entry

	c.live -= creditBack
}

// sweepLocked runs the second-chance eviction loop described in spec.md
// §4.3. Callers must hold mu.
func (c *clockEvictor) sweepLocked() {
	if c.live <= c.ceiling {
		return
	}
	prev := c.hand
	curr := loadNext(prev)
	evicted := 0
	for c.live > c.ceiling {
		if curr == c.sentinel {
			if prev == curr {
				break // nothing but the sentinel in the ring
			}
			prev = curr
			curr = loadNext(curr)
			continue
		}
		if curr.hot.Load() > 0 {
			curr.hot.Add(-1) // give it a second chance
			prev = curr
			curr = loadNext(curr)
			continue
		}
		if prev == curr {
			break // full revolution, nothing left to evict
		}
		// evict curr
		next := loadNext(curr)
		prev.next.Store(next)
		curr.next.Store(nil) // mark stale (invariant I2)
		curr.value.Store(nil)
		c.live -= curr.Size()
		c.debitExtension(curr)
		evicted++
		curr = next
	}
	c.hand = prev
	if c.logWatermark > 0 && evicted > c.logWatermark {
		c.log.Warn("blockcache: clock sweep evicted more entries than the configured watermark",
			zap.Int("evicted", evicted),
			zap.Int("watermark", c.logWatermark),
			zap.Int64("live_bytes", c.live),
			zap.Int64("ceiling", c.ceiling),
		)
	}
}

func loadNext(e *Entry) *Entry {
	n := e.next.Load()
	if n == nil {
		// Defensive only: a live ring member's next is never nil while
		// it is still linked; this path is unreachable in correct use.
		return e
	}
	return n
}

func (c *clockEvictor) debitExtension(e *Entry) {
	ctr := c.stats.Get(e.key.ExtPos())
	ctr.Evictions.Add(1)
	ctr.LiveBytes.Add(-e.Size())
}
