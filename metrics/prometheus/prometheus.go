// Package prometheus exports list store metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	st, _ := ivfstore.New(backend, nlist, codeSize,
//	    ivfstore.WithMetricsCollector(ivfprom.NewCollector(reg)))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/ivfstore"
)

const namespace = "ivfstore"

// Collector implements ivfstore.MetricsCollector with Prometheus metrics.
type Collector struct {
	LoadsTotal      *prometheus.CounterVec
	LoadDuration    prometheus.Histogram
	LoadBytesTotal  prometheus.Counter
	CacheLookups    *prometheus.CounterVec
	FlushesTotal    *prometheus.CounterVec
	FlushDuration   prometheus.Histogram
	FlushBytesTotal prometheus.Counter
	EvictionsTotal  prometheus.Counter
	MergesTotal     *prometheus.CounterVec
	MergedEntries   prometheus.Counter
	MergeDuration   prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		LoadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_total",
				Help:      "Total list snapshot loads from the backend by status",
			},
			[]string{"status"},
		),
		LoadDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Duration of list snapshot loads",
				Buckets:   prometheus.DefBuckets,
			},
		),
		LoadBytesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_bytes_total",
				Help:      "Total bytes of id and code arrays loaded",
			},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		FlushesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flushes_total",
				Help:      "Total list write-backs by status",
			},
			[]string{"status"},
		),
		FlushDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "flush_duration_seconds",
				Help:      "Duration of list write-backs",
				Buckets:   prometheus.DefBuckets,
			},
		),
		FlushBytesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flush_bytes_total",
				Help:      "Total bytes of id and code arrays written",
			},
		),
		EvictionsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evictions_total",
				Help:      "Total cached snapshots dropped",
			},
		),
		MergesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merges_total",
				Help:      "Total store merges by status",
			},
			[]string{"status"},
		),
		MergedEntries: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merged_entries_total",
				Help:      "Total entries appended by merges",
			},
		),
		MergeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "merge_duration_seconds",
				Help:      "Duration of store merges",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordLoad implements ivfstore.MetricsCollector.
func (c *Collector) RecordLoad(bytes int, duration time.Duration, err error) {
	c.LoadsTotal.WithLabelValues(status(err)).Inc()
	c.LoadDuration.Observe(duration.Seconds())
	if err == nil {
		c.LoadBytesTotal.Add(float64(bytes))
	}
}

// RecordCacheHit implements ivfstore.MetricsCollector.
func (c *Collector) RecordCacheHit() { c.CacheLookups.WithLabelValues("hit").Inc() }

// RecordCacheMiss implements ivfstore.MetricsCollector.
func (c *Collector) RecordCacheMiss() { c.CacheLookups.WithLabelValues("miss").Inc() }

// RecordFlush implements ivfstore.MetricsCollector.
func (c *Collector) RecordFlush(bytes int, duration time.Duration, err error) {
	c.FlushesTotal.WithLabelValues(status(err)).Inc()
	c.FlushDuration.Observe(duration.Seconds())
	if err == nil {
		c.FlushBytesTotal.Add(float64(bytes))
	}
}

// RecordEviction implements ivfstore.MetricsCollector.
func (c *Collector) RecordEviction() { c.EvictionsTotal.Inc() }

// RecordMerge implements ivfstore.MetricsCollector.
func (c *Collector) RecordMerge(lists, entries int, duration time.Duration, err error) {
	c.MergesTotal.WithLabelValues(status(err)).Inc()
	c.MergedEntries.Add(float64(entries))
	c.MergeDuration.Observe(duration.Seconds())
}

var _ ivfstore.MetricsCollector = (*Collector)(nil)
