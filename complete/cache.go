package complete

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const cacheCapacity = 256

// suggestionCache is a TTL cache of cleaned suggestions keyed by prompt.
type suggestionCache struct {
	cache *ttlcache.Cache[string, string]
}

func newSuggestionCache(ttl time.Duration) *suggestionCache {
	c := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithCapacity[string, string](cacheCapacity),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go c.Start()
	return &suggestionCache{cache: c}
}

// Get returns the cached suggestion for prompt, if present and not expired.
func (sc *suggestionCache) Get(prompt string) (string, bool) {
	item := sc.cache.Get(prompt)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

func (sc *suggestionCache) Set(prompt, suggestion string) {
	sc.cache.Set(prompt, suggestion, ttlcache.DefaultTTL)
}

func (sc *suggestionCache) Len() int {
	return sc.cache.Len()
}

// Close stops the cache expiration loop.
func (sc *suggestionCache) Close() {
	sc.cache.Stop()
}
