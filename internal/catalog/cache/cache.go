// Package cache owns the in-process catalog state: the TTL-boxed app index
// snapshot and the permanent per-app detail store. It shields Steam from
// per-request load; handlers never call the upstream index or storefront
// endpoints directly.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"playdex/internal/catalog/models"
	"playdex/internal/platform/metrics"
	"playdex/internal/steam"
)

// Upstream is the slice of the Steam client the cache depends on.
type Upstream interface {
	ListApps(ctx context.Context) ([]steam.AppEntry, error)
	AppDetails(ctx context.Context, appID int64) (*steam.AppDetail, error)
}

// Cache holds the index snapshot and detail records. Safe for concurrent use.
type Cache struct {
	upstream Upstream
	ttl      time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	// refreshMu serializes upstream index fetches; mu guards only the
	// snapshot pointer so readers are never blocked behind a refresh they
	// don't need.
	refreshMu sync.Mutex
	mu        sync.RWMutex
	snapshot  *models.Snapshot

	detailMu sync.RWMutex
	details  map[int64]*steam.AppDetail
	flight   singleflight.Group
}

const defaultTTL = time.Hour

// Option configures the Cache.
type Option func(*Cache)

// WithTTL sets the index snapshot time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithMetrics injects the metrics registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithClock injects the time source for expiry checks (no hidden time.Now()
// calls, so tests can simulate the TTL elapsing).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New constructs an empty cache around the given upstream.
func New(upstream Upstream, opts ...Option) *Cache {
	c := &Cache{
		upstream: upstream,
		ttl:      defaultTTL,
		now:      time.Now,
		details:  make(map[int64]*steam.AppDetail),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Prime performs the startup index fetch. Failure is reported to the caller
// but leaves the cache serviceable: the first request after the outage
// triggers another refresh attempt (fail-open startup policy).
func (c *Cache) Prime(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

// Index returns the current snapshot, refreshing synchronously when the TTL
// has elapsed. On refresh failure the previous snapshot is returned unchanged
// and the failure is logged as non-fatal (serve-stale-on-error).
func (c *Cache) Index(ctx context.Context) *models.Snapshot {
	if snap := c.current(); snap != nil && snap.Age(c.now()) <= c.ttl {
		return snap
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another request may have refreshed while we waited for the lock.
	if snap := c.current(); snap != nil && snap.Age(c.now()) <= c.ttl {
		return snap
	}

	snap, err := c.refresh(ctx)
	if err != nil {
		stale := c.current()
		if stale == nil {
			return &models.Snapshot{}
		}
		c.logger.WarnContext(ctx, "serving stale catalog snapshot after failed refresh",
			"error", err,
			"snapshot_age", c.now().Sub(stale.FetchedAt).String(),
		)
		if c.metrics != nil {
			c.metrics.StaleServes.Inc()
		}
		return stale
	}
	return snap
}

// refresh fetches a full index from upstream and swaps the snapshot pointer.
// The swap is the only write to c.snapshot, so readers see either the old or
// the new snapshot, never a partial one.
func (c *Cache) refresh(ctx context.Context) (*models.Snapshot, error) {
	apps, err := c.upstream.ListApps(ctx)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ObserveRefresh("failure")
		}
		return nil, err
	}

	snap := &models.Snapshot{Apps: apps, FetchedAt: c.now()}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ObserveRefresh("success")
	}
	c.logger.InfoContext(ctx, "catalog index refreshed", "apps", len(apps))
	return snap, nil
}

func (c *Cache) current() *models.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Detail returns the storefront record for one app. Records are cached
// forever once fetched; failed lookups are not cached, so a later call
// retries upstream. Concurrent misses for the same id are coalesced into a
// single upstream fetch.
func (c *Cache) Detail(ctx context.Context, appID int64) (*steam.AppDetail, error) {
	c.detailMu.RLock()
	detail, ok := c.details[appID]
	c.detailMu.RUnlock()
	if ok {
		if c.metrics != nil {
			c.metrics.DetailCacheHits.Inc()
		}
		return detail, nil
	}

	if c.metrics != nil {
		c.metrics.DetailCacheMiss.Inc()
	}

	// The fetch is shared by every coalesced caller, so it must not die with
	// whichever request happened to start it. The upstream client's own
	// timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)

	value, err, _ := c.flight.Do(strconv.FormatInt(appID, 10), func() (any, error) {
		// A racing fetch may have populated the entry while we queued.
		c.detailMu.RLock()
		cached, ok := c.details[appID]
		c.detailMu.RUnlock()
		if ok {
			return cached, nil
		}

		fetched, err := c.upstream.AppDetails(fetchCtx, appID)
		if err != nil {
			return nil, err
		}

		c.detailMu.Lock()
		c.details[appID] = fetched
		c.detailMu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*steam.AppDetail), nil
}

// Ready reports whether an index snapshot has ever been fetched. Used by the
// readiness probe; the service itself starts regardless.
func (c *Cache) Ready() error {
	if c.current() == nil {
		return errors.New("catalog index not primed")
	}
	return nil
}
