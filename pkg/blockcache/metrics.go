package blockcache

// metrics.go bridges internal/accounting.Table to Prometheus as a pull-model
// prometheus.Collector: Collect reads the current Snapshot for every
// extension (and the whole-cache fill level) at scrape time, rather than
// mirroring counters into a second set of CounterVec/GaugeVec updated on
// every hit/miss — the accounting table is already the hot path's source of
// truth, so scraping it on demand avoids paying a label lookup per
// operation.
//
// Grounded on the teacher's pkg/metrics.go (the registration-on-construction
// shape: built once in New, reg.MustRegister'd immediately, nothing in the
// hot path knows Prometheus exists), adapted from the teacher's per-call
// CounterVec.WithLabelValues().Inc() push style to a pull-model Collector
// since accounting.Table already holds the counters this cache needs to
// expose.
//
// © 2025 dfsblock/cache authors. MIT License.

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "blockcache"

// cacheCollector implements prometheus.Collector over a Cache's
// accounting.Table, labeled by packfile extension.
type cacheCollector struct {
	c *Cache

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	evictions   *prometheus.Desc
	liveBytes   *prometheus.Desc
	fillPercent *prometheus.Desc
	totalBytes  *prometheus.Desc
}

func newCacheCollector(c *Cache) *cacheCollector {
	extLabel := []string{"ext"}
	return &cacheCollector{
		c: c,
		hits: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "hits_total"),
			"Number of cache hits, by extension.", extLabel, nil),
		misses: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "misses_total"),
			"Number of cache misses, by extension.", extLabel, nil),
		evictions: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "evictions_total"),
			"Number of entries evicted by the CLOCK sweep, by extension.", extLabel, nil),
		liveBytes: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "extension_live_bytes"),
			"Live bytes currently charged to the budget, by extension.", extLabel, nil),
		fillPercent: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "fill_percent"),
			"Whole-cache fill level as a percentage of the configured ceiling.", nil, nil),
		totalBytes: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "live_bytes"),
			"Whole-cache live byte total.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (cc *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cc.hits
	ch <- cc.misses
	ch <- cc.evictions
	ch <- cc.liveBytes
	ch <- cc.fillPercent
	ch <- cc.totalBytes
}

// Collect implements prometheus.Collector, reading a fresh snapshot of the
// accounting table on every scrape.
func (cc *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	for _, snap := range cc.c.Stats() {
		ch <- prometheus.MustNewConstMetric(cc.hits, prometheus.CounterValue, float64(snap.Hits), snap.Ext)
		ch <- prometheus.MustNewConstMetric(cc.misses, prometheus.CounterValue, float64(snap.Misses), snap.Ext)
		ch <- prometheus.MustNewConstMetric(cc.evictions, prometheus.CounterValue, float64(snap.Evictions), snap.Ext)
		ch <- prometheus.MustNewConstMetric(cc.liveBytes, prometheus.GaugeValue, float64(snap.LiveBytes), snap.Ext)
	}
	ch <- prometheus.MustNewConstMetric(cc.fillPercent, prometheus.GaugeValue, float64(cc.c.FillPercent()))
	ch <- prometheus.MustNewConstMetric(cc.totalBytes, prometheus.GaugeValue, float64(cc.c.LiveBytes()))
}
