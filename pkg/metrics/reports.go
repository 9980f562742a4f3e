package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReportMetrics records report builds and the upstream source traffic behind them.
type ReportMetrics struct {
	buildDuration *prometheus.HistogramVec
	fetchFailures *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
}

// NewReportMetrics registers the report metrics on the provided registerer.
func NewReportMetrics(reg prometheus.Registerer) *ReportMetrics {
	if reg == nil {
		return &ReportMetrics{}
	}
	buildDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reports",
		Name:      "build_duration_seconds",
		Help:      "Duration of report builds in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"dashboard", "granularity"})
	fetchFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sources",
		Name:      "fetch_failures_total",
		Help:      "Failed source fetches by source kind.",
	}, []string{"kind"})
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sources",
		Name:      "cache_hits_total",
		Help:      "Source fetches served from cache.",
	}, []string{"kind"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sources",
		Name:      "cache_misses_total",
		Help:      "Source fetches that missed the cache.",
	}, []string{"kind"})
	reg.MustRegister(buildDuration, fetchFailures, cacheHits, cacheMisses)
	return &ReportMetrics{
		buildDuration: buildDuration,
		fetchFailures: fetchFailures,
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
	}
}

// ObserveBuild records the duration of one report build.
func (m *ReportMetrics) ObserveBuild(dashboard, granularity string, elapsed time.Duration) {
	if m == nil || m.buildDuration == nil {
		return
	}
	m.buildDuration.WithLabelValues(normalizeLabel(dashboard), normalizeLabel(granularity)).Observe(elapsed.Seconds())
}

// IncFetchFailure counts a failed source fetch.
func (m *ReportMetrics) IncFetchFailure(kind string) {
	if m == nil || m.fetchFailures == nil {
		return
	}
	m.fetchFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCacheHit counts a source fetch served from cache.
func (m *ReportMetrics) IncCacheHit(kind string) {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCacheMiss counts a source fetch that went upstream.
func (m *ReportMetrics) IncCacheMiss(kind string) {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.WithLabelValues(normalizeLabel(kind)).Inc()
}
