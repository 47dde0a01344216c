package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/webarch-grader/internal/cache"
)

const defaultCleanupInterval = 5 * time.Minute

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache - in-memory кеш с TTL и фоновой чисткой
type Cache[V any] struct {
	mu       sync.RWMutex
	items    map[string]entry[V]
	interval time.Duration
	stopChan chan struct{}
	stopped  bool
}

var _ cache.Cache[int] = (*Cache[int])(nil)

type Options struct {
	// CleanupInterval - как часто выкидывать просроченные записи
	CleanupInterval time.Duration
}

func New[V any]() *Cache[V] {
	return NewWithContext[V](context.Background(), Options{})
}

// NewWithContext: чистка останавливается по отмене ctx или Stop.
func NewWithContext[V any](ctx context.Context, opts Options) *Cache[V] {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	c := &Cache[V]{
		items:    make(map[string]entry[V]),
		interval: opts.CleanupInterval,
		stopChan: make(chan struct{}),
	}
	go c.cleanup(ctx)
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len - число записей, включая ещё не вычищенные просроченные.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[V]) Stop() {
	c.mu.Lock()
	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
	}
	c.mu.Unlock()
}

func (c *Cache[V]) cleanup(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache[V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
