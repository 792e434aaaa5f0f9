package probe

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds recent successful values of slow probes, keyed by probe name.
// It is safe for concurrent use.
type Cache struct {
	lru *expirable.LRU[string, any]
}

// NewCache creates a cache for up to size probes whose entries expire after ttl.
// A non-positive ttl disables caching and returns nil.
func NewCache(size int, ttl time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	return &Cache{lru: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Purge drops every cached value.
func (c *Cache) Purge() {
	if c != nil {
		c.lru.Purge()
	}
}

// Cached wraps p so that a successful value is reused until it expires in c.
// Failures are never cached. A nil cache returns p unchanged.
func Cached[T any](c *Cache, p *Func[T]) *Func[T] {
	if c == nil {
		return p
	}

	name := p.Name()
	return New(name, func(ctx context.Context) (T, error) {
		if v, ok := c.lru.Get(name); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
		v, err := p.Probe(ctx)
		if err != nil {
			return v, err
		}
		c.lru.Add(name, v)
		return v, nil
	})
}
