package cache

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T, maxSize int, ttl time.Duration) *ResponseCache {
	t.Helper()
	cache, err := NewResponseCache(&Config{MaxSize: maxSize, TTL: ttl})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(cache.Close)
	return cache
}

func TestResponseCache(t *testing.T) {
	cache := newTestCache(t, 10, time.Minute)

	key := KeyFor("judge", "system", "user")
	cache.Set(key, `{"criterion_status":"MET"}`, 0)

	value, exists := cache.Get(key)
	if !exists {
		t.Fatal("Expected entry to exist")
	}
	if value != `{"criterion_status":"MET"}` {
		t.Errorf("Unexpected cached value %s", value)
	}

	if _, exists := cache.Get(KeyFor("judge", "system", "other")); exists {
		t.Error("Expected miss for a different prompt")
	}

	stats := cache.Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", stats.HitRate)
	}
}

func TestResponseCacheExpiration(t *testing.T) {
	cache := newTestCache(t, 10, time.Minute)

	key := Key("test-key")
	cache.Set(key, "test response", 20*time.Millisecond)

	if _, exists := cache.Get(key); !exists {
		t.Error("Expected entry to exist initially")
	}

	time.Sleep(50 * time.Millisecond)

	if _, exists := cache.Get(key); exists {
		t.Error("Expected entry to be expired")
	}
	if stats := cache.Stats(); stats.Expirations != 1 {
		t.Errorf("Expected 1 expiration, got %d", stats.Expirations)
	}
}

func TestResponseCacheSweeper(t *testing.T) {
	cache, err := NewResponseCache(&Config{MaxSize: 10, TTL: 10 * time.Millisecond, CleanupInterval: 10 * time.Millisecond})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	cache.Set(Key("a"), "x", 0)
	time.Sleep(60 * time.Millisecond)

	if cache.Len() != 0 {
		t.Errorf("Expected sweeper to remove expired entry, len %d", cache.Len())
	}
}

func TestResponseCacheEviction(t *testing.T) {
	cache := newTestCache(t, 3, time.Minute)

	for i := 0; i < 5; i++ {
		cache.Set(Key(fmt.Sprintf("key-%d", i)), fmt.Sprintf("response-%d", i), 0)
	}

	if cache.Len() != 3 {
		t.Errorf("Expected cache size to be 3, got %d", cache.Len())
	}
	if stats := cache.Stats(); stats.Evictions != 2 {
		t.Errorf("Expected 2 evictions, got %d", stats.Evictions)
	}
	if _, exists := cache.Get(Key("key-0")); exists {
		t.Error("Expected oldest entry to be evicted")
	}
}

func TestResponseCacheClear(t *testing.T) {
	cache := newTestCache(t, 10, time.Minute)

	for i := 0; i < 3; i++ {
		cache.Set(Key(fmt.Sprintf("key-%d", i)), "v", 0)
	}
	cache.Delete(Key("key-0"))
	if cache.Len() != 2 {
		t.Errorf("Expected cache size to be 2, got %d", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Expected cache size to be 0, got %d", cache.Len())
	}
}

func TestKeyFor(t *testing.T) {
	if KeyFor("m", "a", "bc") == KeyFor("m", "ab", "c") {
		t.Error("Expected prompt boundaries to change the key")
	}
	if KeyFor("m1", "a", "b") == KeyFor("m2", "a", "b") {
		t.Error("Expected namespace to change the key")
	}
	if KeyFor("m", "a", "b") != KeyFor("m", "a", "b") {
		t.Error("Expected key to be deterministic")
	}
}
