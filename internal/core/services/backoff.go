package services

import (
	"math/rand"
	"sync"
	"time"
)

// Backoff produces capped exponential delays with jitter for reconnect
// attempts. The zero value is not usable; construct with NewBackoff.
type Backoff struct {
	min    time.Duration
	max    time.Duration
	factor float64
	jitter float64

	mu      sync.Mutex
	attempt int
}

func NewBackoff(min, max time.Duration) *Backoff {
	if min <= 0 {
		min = 500 * time.Millisecond
	}
	if max < min {
		max = min
	}
	return &Backoff{
		min:    min,
		max:    max,
		factor: 2,
		jitter: 0.2,
	}
}

// Next returns the delay before the next attempt, growing exponentially
// from min up to max, with up to ±jitter applied.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	d := float64(b.min)
	for i := 0; i < b.attempt; i++ {
		d *= b.factor
		if d >= float64(b.max) {
			d = float64(b.max)
			break
		}
	}
	b.attempt++
	b.mu.Unlock()

	spread := 1 + b.jitter*(2*rand.Float64()-1)
	j := time.Duration(d * spread)
	if j < 0 {
		j = b.min
	}
	return j
}

// Reset rewinds to the initial delay after a successful connect.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.attempt = 0
	b.mu.Unlock()
}
