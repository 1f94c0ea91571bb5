package places

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/c0ncepT23/Travelbuddy-sub005/internal/domain"
	"github.com/c0ncepT23/Travelbuddy-sub005/internal/observability"
)

// CachedProvider wraps a PlaceSearchProvider with an in-memory TTL cache.
type CachedProvider struct {
	inner   domain.PlaceSearchProvider
	cache   *cache.Cache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.PlaceSearchProvider, ttl time.Duration, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func (c *CachedProvider) TextSearch(ctx context.Context, query string) ([]domain.PlaceSummary, error) {
	key := "search:" + strings.ToLower(strings.TrimSpace(query))
	if v, ok := c.cache.Get(key); ok {
		c.metrics.PlacesCache.WithLabelValues("textsearch", "hit").Inc()
		return v.([]domain.PlaceSummary), nil
	}
	c.metrics.PlacesCache.WithLabelValues("textsearch", "miss").Inc()

	hits, err := c.inner.TextSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so "not found" can be retried later.
	if len(hits) > 0 {
		c.cache.SetDefault(key, hits)
	}
	return hits, nil
}

func (c *CachedProvider) Details(ctx context.Context, placeID string, fields []string) (domain.PlaceDetails, error) {
	key := "details:" + placeID + "|" + strings.Join(fields, ",")
	if v, ok := c.cache.Get(key); ok {
		c.metrics.PlacesCache.WithLabelValues("details", "hit").Inc()
		return v.(domain.PlaceDetails), nil
	}
	c.metrics.PlacesCache.WithLabelValues("details", "miss").Inc()

	d, err := c.inner.Details(ctx, placeID, fields)
	if err != nil {
		return d, err
	}
	if d.PlaceID != "" {
		c.cache.SetDefault(key, d)
	}
	return d, nil
}
