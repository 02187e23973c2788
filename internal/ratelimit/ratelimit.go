// Package ratelimit implements a fixed-window request counter keyed by
// client. State lives behind a Store so a single process can keep it in
// memory while several instances share it through the database.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Defaults used by the AI proxy.
const (
	DefaultWindow      = 30 * time.Second
	DefaultMaxRequests = 5
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Window is the counter state of one key.
type Window struct {
	Start time.Time
	Count int
}

// Store holds one Window per key. Get returns ok=false when the key has
// no window.
type Store interface {
	Get(ctx context.Context, key string) (w Window, ok bool, err error)
	Put(ctx context.Context, key string, w Window) error
}

// Config sets the window length and the number of requests allowed in it.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// DefaultConfig returns 5 requests per 30 seconds.
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, MaxRequests: DefaultMaxRequests}
}

// Validate rejects non-positive limits.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got %s", c.Window)
	}
	if c.MaxRequests <= 0 {
		return fmt.Errorf("rate limit max requests must be positive, got %d", c.MaxRequests)
	}
	return nil
}

// Limiter decides whether a key may make another request.
type Limiter struct {
	cfg   Config
	store Store
	clock Clock

	// Serializes read-modify-write on the store within this process.
	mu sync.Mutex
}

// New creates a Limiter. A nil clock means the system clock.
func New(cfg Config, store Store, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Limiter{cfg: cfg, store: store, clock: clock}
}

// Allow records a request for key and reports whether it is within the
// limit. The first request of a key, or the first after its window has
// been open longer than the window length, starts a new window with a
// count of one. Once the count reaches the limit further requests are
// rejected until the window expires. Rejected requests are not counted.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	w, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("read rate limit window: %w", err)
	}

	if !ok || now.Sub(w.Start) > l.cfg.Window {
		if err := l.store.Put(ctx, key, Window{Start: now, Count: 1}); err != nil {
			return false, fmt.Errorf("start rate limit window: %w", err)
		}
		return true, nil
	}

	if w.Count >= l.cfg.MaxRequests {
		return false, nil
	}

	w.Count++
	if err := l.store.Put(ctx, key, w); err != nil {
		return false, fmt.Errorf("update rate limit window: %w", err)
	}
	return true, nil
}

// Config returns the limiter's configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}
