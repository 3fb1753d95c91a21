package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/opscart/tariff-optimizer/pkg/models"
)

// CatalogueCache caches candidate lists per access tariff to avoid
// re-reading the catalogue source on every simulation.
type CatalogueCache struct {
	data  map[string]*cacheEntry
	ttl   time.Duration
	now   func() time.Time
	mutex sync.RWMutex
}

type cacheEntry struct {
	candidates []models.TariffCandidate
	expiresAt  time.Time
}

func NewCatalogueCache(ttl time.Duration) *CatalogueCache {
	return &CatalogueCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns a copy of the cached list, or nil when missing or expired.
func (c *CatalogueCache) Get(key string) []models.TariffCandidate {
	c.mutex.RLock()
	entry, exists := c.data[key]
	c.mutex.RUnlock()
	if !exists {
		return nil
	}

	if c.now().After(entry.expiresAt) {
		c.mutex.Lock()
		if current, ok := c.data[key]; ok && current == entry {
			delete(c.data, key)
		}
		c.mutex.Unlock()
		return nil
	}

	return append([]models.TariffCandidate(nil), entry.candidates...)
}

func (c *CatalogueCache) Set(key string, candidates []models.TariffCandidate) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &cacheEntry{
		candidates: append([]models.TariffCandidate(nil), candidates...),
		expiresAt:  c.now().Add(c.ttl),
	}
}

func (c *CatalogueCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*cacheEntry)
}

// CachedProvider fronts another provider with a CatalogueCache.
type CachedProvider struct {
	next  Provider
	cache *CatalogueCache
}

func NewCachedProvider(next Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: NewCatalogueCache(ttl)}
}

func (c *CachedProvider) Name() string {
	return c.next.Name() + "+cache"
}

func (c *CachedProvider) ListCandidates(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error) {
	if cached := c.cache.Get(accessTariff); cached != nil {
		return cached, nil
	}
	candidates, err := c.next.ListCandidates(ctx, accessTariff)
	if err != nil {
		return nil, err
	}
	// Empty lists are not cached so a newly loaded catalogue shows up at once.
	if len(candidates) > 0 {
		c.cache.Set(accessTariff, candidates)
	}
	return candidates, nil
}

// Invalidate drops every cached list so the next call reads the source.
func (c *CachedProvider) Invalidate() {
	c.cache.Clear()
}
