// Package ratelimit holds the flood limiter used when no Redis is configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether one more event for key fits in limit per window.
// The Redis limiter in infra/redis satisfies it too.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var _ Limiter = (*Memory)(nil)

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Memory is a per-key token bucket refilled at limit/window with a burst of limit.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*entry
	idleTTL time.Duration
	now     func() time.Time
}

func NewMemory(idleTTL time.Duration) *Memory {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Memory{buckets: make(map[string]*entry), idleTTL: idleTTL, now: time.Now}
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	now := m.now()

	m.mu.Lock()
	e, ok := m.buckets[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		m.buckets[key] = e
	}
	e.lastSeen = now
	m.mu.Unlock()

	return e.lim.AllowN(now, 1), nil
}

// Cleanup drops buckets idle for longer than the idle TTL.
func (m *Memory) Cleanup() int {
	cutoff := m.now().Add(-m.idleTTL)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(m.buckets, k)
			n++
		}
	}
	return n
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Memory) RunCleanup(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Cleanup()
		}
	}
}
