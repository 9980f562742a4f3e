package sources

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/metrics"
	"github.com/angelmondragon/perfdash-backend/pkg/redis"
)

// CacheStore is the redis surface used by the source cache.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SourceKey(accountID, kind, location, start, end string) string
}

// Cached is a read-through cache of raw source rows. Cache failures never
// fail a fetch; they are logged and the upstream is used instead.
type Cached struct {
	next    Fetcher
	store   CacheStore
	ttl     time.Duration
	metrics *metrics.ReportMetrics
	logg    *logger.Logger
}

// NewCached wraps next. A ttl of 0 or a nil store returns next unchanged.
func NewCached(next Fetcher, store CacheStore, ttl time.Duration, m *metrics.ReportMetrics, logg *logger.Logger) Fetcher {
	if store == nil || ttl <= 0 {
		return next
	}
	return &Cached{next: next, store: store, ttl: ttl, metrics: m, logg: logg}
}

func (c *Cached) Kind() enums.SourceKind { return c.next.Kind() }

func (c *Cached) Fetch(ctx context.Context, target Target, window engine.Window) (engine.Series, error) {
	kind := string(c.next.Kind())
	key := c.store.SourceKey(target.AccountID, kind, target.Location(), window.Start.String(), window.End.String())
	logCtx := ctx
	if c.logg != nil {
		logCtx = c.logg.WithFields(ctx, map[string]any{"source": kind, "cache_key": key})
	}

	if raw, err := c.store.Get(ctx, key); err == nil {
		var series engine.Series
		if err := json.Unmarshal([]byte(raw), &series); err == nil {
			c.metrics.IncCacheHit(kind)
			series.Currency = target.Currency
			return series, nil
		} else {
			if c.logg != nil {
				c.logg.Warn(logCtx, "source.cache.decode_failed")
			}
			if err := c.store.Del(ctx, key); err != nil && c.logg != nil {
				c.logg.Error(logCtx, "source.cache.evict_failed", err)
			}
		}
	} else if !redis.IsNil(err) && c.logg != nil {
		c.logg.Error(logCtx, "source.cache.read_failed", err)
	}

	c.metrics.IncCacheMiss(kind)
	series, err := c.next.Fetch(ctx, target, window)
	if err != nil {
		return engine.Series{}, err
	}

	payload, err := json.Marshal(series)
	if err == nil {
		err = c.store.Set(ctx, key, payload, c.ttl)
	}
	if err != nil && c.logg != nil {
		c.logg.Error(logCtx, "source.cache.write_failed", err)
	}
	return series, nil
}
