package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Key identifies a cached judge response
type Key string

// Entry is a cached judge response
type Entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e Entry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Config holds cache configuration
type Config struct {
	MaxSize         int           `json:"max_size" yaml:"max_size"`                 // Maximum number of entries
	TTL             time.Duration `json:"ttl" yaml:"ttl"`                           // Default TTL for entries
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"` // 0 disables the sweeper
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		MaxSize:         1000,
		TTL:             10 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// KeyFor derives the cache key of a judge call. The namespace keeps
// responses of different models apart.
func KeyFor(namespace, systemPrompt, userPrompt string) Key {
	h := sha256.New()
	for _, part := range []string{namespace, systemPrompt, userPrompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// Stats represents cache statistics
type Stats struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	Size         int     `json:"size"`
	MaxSize      int     `json:"max_size"`
	HitRate      float64 `json:"hit_rate"`
	Evictions    int64   `json:"evictions"`
	Expirations  int64   `json:"expirations"`
	Deduplicated int64   `json:"deduplicated"`
}

// CalculateHitRate calculates the hit rate
func (s *Stats) CalculateHitRate() {
	total := s.Hits + s.Misses
	if total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	} else {
		s.HitRate = 0.0
	}
}
