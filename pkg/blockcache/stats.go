package blockcache

// stats.go exposes the statistics surface spec.md §6 describes: per-
// extension hits/misses/total/hit-ratio/evictions/live-bytes, plus a
// whole-cache fill percentage.
//
// Grounded on the teacher's pkg/metrics.go Prometheus collector, which
// read the same shard-level atomic counters this file reads from
// internal/accounting.
//
// © 2025 dfsblock/cache authors. MIT License.

import "github.com/dfsblock/cache/internal/accounting"

// ExtensionStats returns a statistics snapshot for ext, or a zero
// Snapshot if ext has never been observed by this Cache. The first call
// for ext assigns it a position in the extension registry; the returned
// Snapshot's ExtPos is that position.
func (c *Cache) ExtensionStats(ext string) accounting.Snapshot {
	pos := c.extreg.PosFor(ext)
	return c.stats.Snapshot(pos, ext)
}

// Stats returns a snapshot for every extension this Cache has observed,
// ordered by extension position (i.e. first-seen order).
func (c *Cache) Stats() []accounting.Snapshot {
	return c.stats.All(c.extreg.Name)
}

// FillPercent returns the whole-cache fill level as an integer 0..100:
// live bytes over the configured ceiling, clamped to 100 (live bytes may
// transiently exceed the ceiling per invariant I5).
func (c *Cache) FillPercent() int {
	live := c.clock.liveBytes()
	if c.cfg.BlockLimit <= 0 {
		return 0
	}
	pct := int(live * 100 / c.cfg.BlockLimit)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// LiveBytes returns the current live-byte total, a point-in-time
// snapshot (spec.md invariant I4).
func (c *Cache) LiveBytes() int64 {
	return c.clock.liveBytes()
}
