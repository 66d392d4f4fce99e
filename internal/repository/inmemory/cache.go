package inmemory

import (
	"context"
	"sync"
	"time"
)

// Cache is a process-local TTL cache used when Redis is not configured.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

func NewCache() *Cache {
	return &Cache{
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[key]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	return cloneBytes(item.value), true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return c.Delete(ctx, key)
	}

	c.mu.Lock()
	c.items[key] = cacheItem{
		value:     cloneBytes(value),
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.items, key)
	}
	c.mu.Unlock()
	return nil
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	cloned := make([]byte, len(value))
	copy(cloned, value)
	return cloned
}
