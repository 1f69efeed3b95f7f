package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ResponseCache holds judge replies keyed by prompt hash. Capacity is
// enforced by LRU eviction and each entry carries its own deadline.
type ResponseCache struct {
	entries *lru.Cache[Key, Entry]
	ttl     time.Duration
	maxSize int

	hits, misses, evictions, expirations atomic.Int64

	done     chan struct{}
	doneOnce sync.Once
}

func NewResponseCache(config *Config) (*ResponseCache, error) {
	if config == nil {
		config = DefaultConfig()
	}
	entries, err := lru.New[Key, Entry](config.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	c := &ResponseCache{
		entries: entries,
		ttl:     config.TTL,
		maxSize: config.MaxSize,
		done:    make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.sweep(config.CleanupInterval)
	}
	return c, nil
}

// Get returns the reply stored under key if it has not expired.
func (c *ResponseCache) Get(key Key) (string, bool) {
	entry, ok := c.entries.Get(key)
	if ok && entry.expired(time.Now()) {
		c.entries.Remove(key)
		c.expirations.Add(1)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return entry.Value, true
}

// Set stores value under key. ttl <= 0 means the configured default.
func (c *ResponseCache) Set(key Key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if c.entries.Add(key, Entry{Value: value, ExpiresAt: time.Now().Add(ttl)}) {
		c.evictions.Add(1)
	}
}

func (c *ResponseCache) Delete(key Key) { c.entries.Remove(key) }

func (c *ResponseCache) Clear() { c.entries.Purge() }

func (c *ResponseCache) Len() int { return c.entries.Len() }

func (c *ResponseCache) Stats() Stats {
	s := Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Size:        c.entries.Len(),
		MaxSize:     c.maxSize,
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
	}
	s.CalculateHitRate()
	return s
}

// Close stops the sweeper. Safe to call more than once.
func (c *ResponseCache) Close() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *ResponseCache) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			for _, key := range c.entries.Keys() {
				if entry, ok := c.entries.Peek(key); ok && entry.expired(now) {
					c.entries.Remove(key)
					c.expirations.Add(1)
				}
			}
		}
	}
}
