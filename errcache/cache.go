package errcache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// ErrCache remembers recent failures by key. A zero expiration disables it.
type ErrCache struct {
	cache      *cache.Cache
	expiration time.Duration
	mu         sync.Mutex
}

func NewErrCache(expiration time.Duration) *ErrCache {
	return &ErrCache{cache: newBackingCache(expiration, nil), expiration: expiration}
}

func newBackingCache(expiration time.Duration, items map[string]cache.Item) *cache.Cache {
	if expiration <= 0 {
		return cache.New(time.Minute, time.Minute)
	}
	if items == nil {
		return cache.New(expiration, expiration*2)
	}
	return cache.NewFrom(expiration, expiration*2, items)
}

func (e *ErrCache) Resize(expiration time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if expiration == e.expiration {
		return
	}
	if expiration <= 0 {
		e.cache.Flush()
	}
	e.cache = newBackingCache(expiration, e.cache.Items())
	e.expiration = expiration
}

func (e *ErrCache) Get(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expiration <= 0 {
		return nil
	}
	if err, ok := e.cache.Get(key); ok {
		return err.(error)
	}
	return nil
}

func (e *ErrCache) Set(key string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.expiration <= 0 || err == nil {
		return
	}
	e.cache.Set(key, err, cache.DefaultExpiration)
}

func (e *ErrCache) Forget(key string) {
	e.mu.Lock()
	e.cache.Delete(key)
	e.mu.Unlock()
}

func (e *ErrCache) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.ItemCount()
}
