package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a token bucket for one key.
type bucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
	timer      *time.Timer
	key        string
	parent     *KeyedLimiter
}

// KeyedLimiter rate-limits independently per key (user id, IP, email).
// Buckets expire and are dropped after a period of inactivity, so the map
// does not grow with every address that ever hit the service.
type KeyedLimiter struct {
	buckets  map[string]*bucket
	mu       sync.RWMutex
	rate     float64 // tokens per second
	capacity float64
	ttl      time.Duration
}

func New(rate, capacity float64, ttl time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		ttl:      ttl,
	}
}

// Presets for common tiers.

func PerSecond() *KeyedLimiter { return New(1, 1, time.Hour) }

func Rps10() *KeyedLimiter { return New(10, 10, time.Hour) }

func Rps100() *KeyedLimiter { return New(100, 100, time.Hour) }

func (kl *KeyedLimiter) remove(key string) {
	kl.mu.Lock()
	delete(kl.buckets, key)
	kl.mu.Unlock()
}

func (b *bucket) resetExpiry() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.parent.ttl, func() {
		b.parent.remove(b.key)
	})
}

func (kl *KeyedLimiter) getBucket(key string) *bucket {
	kl.mu.RLock()
	b, exists := kl.buckets[key]
	kl.mu.RUnlock()
	if exists {
		b.resetExpiry()
		return b
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	// Re-check under the write lock.
	if b, exists = kl.buckets[key]; exists {
		b.resetExpiry()
		return b
	}

	b = &bucket{
		tokens:     kl.capacity,
		lastRefill: time.Now(),
		key:        key,
		parent:     kl,
	}
	kl.buckets[key] = b
	b.resetExpiry()
	return b
}

func (b *bucket) allow(rate, capacity float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * rate
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Allow reports whether a request under the given key may proceed.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.getBucket(key).allow(kl.rate, kl.capacity)
}

// Stop cancels all expiry timers.
func (kl *KeyedLimiter) Stop() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for _, b := range kl.buckets {
		if b.timer != nil {
			b.timer.Stop()
		}
	}
}
