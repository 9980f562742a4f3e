package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestReportMetricsExportsSourceCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReportMetrics(reg)
	m.IncFetchFailure("google_ads")
	m.IncFetchFailure("google_ads")
	m.IncCacheHit("shopify")
	m.IncCacheMiss("")
	m.ObserveBuild("ppc", "Weekly", 1500*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "perfdash_sources_fetch_failures_total", "kind", "google_ads"); err != nil || got != 2 {
		t.Fatalf("expected 2 failures, got %v err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "perfdash_sources_cache_hits_total", "kind", "shopify"); err != nil || got != 1 {
		t.Fatalf("expected 1 hit, got %v err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "perfdash_sources_cache_misses_total", "kind", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected empty kind to be labelled unknown, got %v err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "perfdash_reports_build_duration_seconds", "dashboard", "ppc"); err != nil || got != 1.5 {
		t.Fatalf("expected build sum 1.5, got %v err=%v", got, err)
	}
}

func TestHTTPMetricsExportsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/accounts/{accountId}", 200, 20*time.Millisecond)
	m.Observe("GET", "/api/v1/accounts/{accountId}", 404, 5*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "perfdash_http_requests_total", "status", "404"); err != nil || got != 1 {
		t.Fatalf("expected one 404, got %v err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "perfdash_http_request_duration_seconds", "route", "/api/v1/accounts/{accountId}"); err != nil || got <= 0 {
		t.Fatalf("expected latency sum, got %v err=%v", got, err)
	}
}

func TestBlankLabelsAreRecordedAsUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	reports := NewReportMetrics(reg)
	reports.ObserveBuild("", "  ", time.Second)
	reports.IncFetchFailure("")
	reports.IncCacheHit(" ")
	NewHTTPMetrics(reg).Observe("GET", "", 404, time.Millisecond)
	NewCronJobMetrics(reg).Observe("", time.Second, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	cases := []struct {
		name  string
		label string
	}{
		{"perfdash_reports_build_duration_seconds", "dashboard"},
		{"perfdash_reports_build_duration_seconds", "granularity"},
		{"perfdash_sources_fetch_failures_total", "kind"},
		{"perfdash_sources_cache_hits_total", "kind"},
		{"perfdash_http_requests_total", "route"},
		{"perfdash_cron_job_success_total", "job"},
	}
	for _, tc := range cases {
		mf := findMetricFamily(mfs, tc.name)
		if mf == nil || len(mf.GetMetric()) != 1 {
			t.Fatalf("%s: expected exactly one series", tc.name)
		}
		if !matchesLabel(mf.GetMetric()[0].GetLabel(), tc.label, "unknown") {
			t.Fatalf("%s: expected %s=unknown, got %v", tc.name, tc.label, mf.GetMetric()[0].GetLabel())
		}
	}
}
