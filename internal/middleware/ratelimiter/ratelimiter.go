// Package ratelimiter keeps token buckets keyed by caller identity.
package ratelimiter

import (
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	seen   time.Time // last refill, also used for expiry
}

// KeyedRateLimiter keeps one bucket per key (session id, IP). Buckets idle
// for longer than the expiration are swept in the background until Stop.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens per second
	capacity float64
	idle     time.Duration
	now      func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(rate, capacity float64, expiration time.Duration) *KeyedRateLimiter {
	return newWithClock(rate, capacity, expiration, time.Now)
}

func newWithClock(rate, capacity float64, expiration time.Duration, now func() time.Time) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		idle:     expiration,
		now:      now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go krl.sweepLoop()
	return krl
}

// Allow takes a token from key's bucket, refilling it for the time elapsed
// since its last use. A new key starts with a full bucket.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	now := krl.now()
	b, ok := krl.buckets[key]
	if !ok {
		b = &bucket{tokens: krl.capacity, seen: now}
		krl.buckets[key] = b
	}
	b.tokens = min(krl.capacity, b.tokens+now.Sub(b.seen).Seconds()*krl.rate)
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.buckets)
}

// Stop ends the sweeper. Allow keeps working afterwards, without expiry.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() { close(krl.stop) })
	<-krl.done
}

func (krl *KeyedRateLimiter) sweepLoop() {
	defer close(krl.done)
	interval := krl.idle / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-krl.stop:
			return
		case <-ticker.C:
			krl.sweep()
		}
	}
}

func (krl *KeyedRateLimiter) sweep() {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	cutoff := krl.now().Add(-krl.idle)
	for key, b := range krl.buckets {
		if b.seen.Before(cutoff) {
			delete(krl.buckets, key)
		}
	}
}
