package sources

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	goredis "github.com/redis/go-redis/v9"
)

var redisNil = goredis.Nil

func shopSeries() engine.Series {
	return engine.Series{Name: "shopify", Currency: enums.CurrencyDKK, Rows: []engine.RawRow{
		{Date: "2024-01-01", Fields: map[string]float64{"orders": 3}},
	}}
}

func TestCachedReadThrough(t *testing.T) {
	store := newMemoryStore()
	next := &stubFetcher{kind: enums.SourceShopify, series: shopSeries()}
	fetcher := NewCached(next, store, 5*time.Minute, nil, nil)
	w := testWindow(t, "2024-01-01", "2024-01-07")
	target := Target{AccountID: "acc-1", Currency: enums.CurrencyDKK}

	first, err := fetcher.Fetch(context.Background(), target, w)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, ok := store.data["pd:sources:acc-1:shopify:2024-01-01:2024-01-07"]; !ok {
		t.Fatalf("expected series cached under source key, got %v", store.data)
	}
	if store.lastTTL != 5*time.Minute {
		t.Fatalf("expected ttl to be applied, got %v", store.lastTTL)
	}

	target.Currency = enums.CurrencySEK
	second, err := fetcher.Fetch(context.Background(), target, w)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected upstream to be called once, got %d", next.calls)
	}
	if second.Currency != enums.CurrencySEK || len(second.Rows) != len(first.Rows) || second.Rows[0].Fields["orders"] != 3 {
		t.Fatalf("unexpected cached series %+v", second)
	}
}

func TestCachedBypassesStoreFailures(t *testing.T) {
	logg, buf := bufferedLogger()
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	next := &stubFetcher{kind: enums.SourceShopify, series: shopSeries()}

	series, err := NewCached(next, store, time.Minute, nil, logg).Fetch(context.Background(), Target{AccountID: "a"}, testWindow(t, "2024-01-01", "2024-01-01"))
	if err != nil {
		t.Fatalf("cache failures must not fail the fetch: %v", err)
	}
	if len(series.Rows) != 1 || next.calls != 1 {
		t.Fatalf("expected upstream series, got %+v calls=%d", series, next.calls)
	}
	if !strings.Contains(buf.String(), "source.cache.read_failed") || !strings.Contains(buf.String(), "source.cache.write_failed") {
		t.Fatalf("expected cache failures to be logged, got %s", buf.String())
	}
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	store := newMemoryStore()
	next := &stubFetcher{kind: enums.SourceMetaAds, err: errors.New("upstream down")}
	if _, err := NewCached(next, store, time.Minute, nil, nil).Fetch(context.Background(), Target{AccountID: "a"}, testWindow(t, "2024-01-01", "2024-01-01")); err == nil {
		t.Fatal("expected upstream error")
	}
	if len(store.data) != 0 {
		t.Fatalf("errors must not be cached, got %v", store.data)
	}
}

func TestNewCachedDisabled(t *testing.T) {
	next := &stubFetcher{kind: enums.SourceShopify}
	if NewCached(next, newMemoryStore(), 0, nil, nil) != Fetcher(next) {
		t.Fatal("zero ttl should return the fetcher unchanged")
	}
	if NewCached(next, nil, time.Minute, nil, nil) != Fetcher(next) {
		t.Fatal("nil store should return the fetcher unchanged")
	}
}

func TestRegistry(t *testing.T) {
	shop := &stubFetcher{kind: enums.SourceShopify}
	meta := &stubFetcher{kind: enums.SourceMetaAds}
	r := NewRegistry(shop, meta, nil)

	if f, ok := r.Get(enums.SourceShopify); !ok || f != Fetcher(shop) {
		t.Fatal("expected shopify fetcher")
	}
	if _, ok := r.Get(enums.SourceGA4); ok {
		t.Fatal("unexpected ga4 fetcher")
	}
	kinds := r.Kinds()
	if len(kinds) != 2 || kinds[0] != enums.SourceMetaAds || kinds[1] != enums.SourceShopify {
		t.Fatalf("unexpected kinds %v", kinds)
	}

	wrapped := r.Wrap(func(f Fetcher) Fetcher { return NewCached(f, newMemoryStore(), time.Minute, nil, nil) })
	if f, _ := wrapped.Get(enums.SourceShopify); f.Kind() != enums.SourceShopify {
		t.Fatal("wrapped fetcher should keep its kind")
	}
	if f, _ := wrapped.Get(enums.SourceMetaAds); f == nil {
		t.Fatal("expected wrapped meta fetcher")
	} else if _, ok := f.(*Cached); !ok {
		t.Fatal("expected wrapped fetcher to be cached")
	}
}

func TestCachedKeysIncludeTargetLocation(t *testing.T) {
	store := newMemoryStore()
	next := &stubFetcher{kind: enums.SourceGoogleAds, series: shopSeries()}
	fetcher := NewCached(next, store, time.Minute, nil, nil)
	w := testWindow(t, "2024-01-01", "2024-01-07")
	target := Target{AccountID: "acc-1", Project: "proj", Dataset: "ads", Table: "daily_v1"}

	if _, err := fetcher.Fetch(context.Background(), target, w); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, ok := store.data["pd:sources:acc-1:google_ads:proj.ads.daily_v1:2024-01-01:2024-01-07"]; !ok {
		t.Fatalf("expected location in cache key, got %v", store.data)
	}

	target.Table = "daily_v2"
	if _, err := fetcher.Fetch(context.Background(), target, w); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("expected a repointed table to miss the cache, got %d upstream calls", next.calls)
	}
}

func TestCachedEvictsUndecodableEntries(t *testing.T) {
	logg, buf := bufferedLogger()
	store := newMemoryStore()
	key := "pd:sources:acc-1:shopify:2024-01-01:2024-01-01"
	store.data[key] = "{not json"
	next := &stubFetcher{kind: enums.SourceShopify, series: shopSeries()}

	series, err := NewCached(next, store, time.Minute, nil, logg).Fetch(context.Background(), Target{AccountID: "acc-1"}, testWindow(t, "2024-01-01", "2024-01-01"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(series.Rows) != 1 || next.calls != 1 {
		t.Fatalf("expected upstream series, got %+v calls=%d", series, next.calls)
	}
	if len(store.deleted) != 1 || store.deleted[0] != key {
		t.Fatalf("expected corrupt entry evicted, got %v", store.deleted)
	}
	if !strings.Contains(buf.String(), "source.cache.decode_failed") {
		t.Fatalf("expected decode failure logged, got %s", buf.String())
	}
	if raw := store.data[key]; !strings.Contains(raw, "orders") {
		t.Fatalf("expected fresh series written back, got %q", raw)
	}
}
