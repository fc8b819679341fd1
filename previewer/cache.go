package previewer

import (
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/t2bot/link-previewer/metrics"
	"github.com/t2bot/link-previewer/url_previewing/u"
)

const cacheName = "instances"

// InstanceCache deduplicates Previewers by normalized URL and bounds how many are alive. It is
// only used from the service loop.
type InstanceCache struct {
	lru      *simplelru.LRU
	capacity int
	create   func(rawUrl string, key string) *Previewer
}

func newInstanceCache(capacity int, create func(rawUrl string, key string) *Previewer) (*InstanceCache, error) {
	if capacity < 1 {
		capacity = 1
	}
	c := &InstanceCache{capacity: capacity, create: create}
	lru, err := simplelru.NewLRU(capacity, c.onEvicted)
	if err != nil {
		return nil, err
	}
	c.lru = lru
	return c, nil
}

func (c *InstanceCache) onEvicted(key interface{}, value interface{}) {
	p := value.(*Previewer)
	reason := "idle"
	if p.cancel() {
		reason = "loading"
	}
	p.evicted = true
	p.log().Debugf("Evicted preview instance (%s)", reason)
	metrics.CacheEvictions.WithLabelValues(cacheName, reason).Inc()
}

// getOrCreate returns the Previewer for rawUrl, creating it when missing. A new entry is the most
// recently used, so the eviction it may cause never removes it.
func (c *InstanceCache) getOrCreate(rawUrl string) *Previewer {
	key := u.Normalize(rawUrl)
	if v, ok := c.lru.Get(key); ok {
		metrics.CacheHits.WithLabelValues(cacheName).Inc()
		return v.(*Previewer)
	}
	metrics.CacheMisses.WithLabelValues(cacheName).Inc()

	p := c.create(rawUrl, key)
	c.lru.Add(key, p)
	metrics.CacheNumItems.WithLabelValues(cacheName).Set(float64(c.lru.Len()))
	return p
}

func (c *InstanceCache) peek(rawUrl string) (*Previewer, bool) {
	v, ok := c.lru.Peek(u.Normalize(rawUrl))
	if !ok {
		return nil, false
	}
	return v.(*Previewer), true
}

func (c *InstanceCache) resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == c.capacity {
		return
	}
	c.capacity = capacity
	c.lru.Resize(capacity)
	metrics.CacheNumItems.WithLabelValues(cacheName).Set(float64(c.lru.Len()))
}

func (c *InstanceCache) len() int {
	return c.lru.Len()
}

// keys lists the normalized URLs from least to most recently used.
func (c *InstanceCache) keys() []string {
	raw := c.lru.Keys()
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, k.(string))
	}
	return keys
}

func (c *InstanceCache) purge() {
	c.lru.Purge()
	metrics.CacheNumItems.WithLabelValues(cacheName).Set(0)
}
