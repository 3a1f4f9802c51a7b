// Package debughttp exposes a Cache's statistics over HTTP: a JSON
// snapshot endpoint and, when the Cache was built with a Prometheus
// registry, a /metrics endpoint backed by promhttp.
//
// Grounded on the teacher's examples/basic/main.go
// (/debug/arena-cache/snapshot and /metrics handlers), generalized from
// Len/SizeBytes to the per-extension accounting.Snapshot array plus fill
// percentage this cache tracks.
//
// © 2025 dfsblock/cache authors. MIT License.
package debughttp

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dfsblock/cache/pkg/blockcache"
)

// snapshot is the JSON body served by Handler's snapshot route.
type snapshot struct {
	FillPercent int64               `json:"fill_percent"`
	LiveBytes   int64               `json:"live_bytes"`
	Extensions  []extensionSnapshot `json:"extensions"`
}

type extensionSnapshot struct {
	Ext       string `json:"ext"`
	ExtPos    int    `json:"ext_pos"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	HitRatio  int    `json:"hit_ratio_percent"`
	Evictions uint64 `json:"evictions"`
	LiveBytes int64  `json:"live_bytes"`
}

// Handler builds a mux serving GET /debug/blockcache/snapshot against c,
// and GET /metrics against reg if reg is non-nil.
func Handler(c *blockcache.Cache, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/blockcache/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeSnapshot(w, c)
	})
	if reg != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return mux
}

func writeSnapshot(w http.ResponseWriter, c *blockcache.Cache) {
	stats := c.Stats()
	out := snapshot{
		FillPercent: int64(c.FillPercent()),
		LiveBytes:   c.LiveBytes(),
		Extensions:  make([]extensionSnapshot, len(stats)),
	}
	for i, s := range stats {
		out.Extensions[i] = extensionSnapshot{
			Ext:       s.Ext,
			ExtPos:    s.ExtPos,
			Hits:      s.Hits,
			Misses:    s.Misses,
			HitRatio:  s.HitRatioPercent(),
			Evictions: s.Evictions,
			LiveBytes: s.LiveBytes,
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
