package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/arasverel/tgpanel/pkg/observability"
)

// LimitResult describes the outcome of one rate-limit check.
type LimitResult struct {
	OK        bool
	Remaining int
	ResetAt   time.Time
	Blocked   bool
}

// LimiterStore holds per-key attempt counters. MemoryStore serves a single
// instance; RedisStore shares the counters across replicas.
type LimiterStore interface {
	// Hit records one attempt against key and reports whether it is still
	// within limit. Crossing the limit escalates: the window is extended to
	// the block duration once, so further attempts stay rejected.
	Hit(ctx context.Context, key string, max int, window, block time.Duration) (LimitResult, error)
	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

type memoryEntry struct {
	count    int
	resetAt  time.Time
	extended bool
}

// MemoryStore is the in-process LimiterStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

// Hit implements LimiterStore
func (m *MemoryStore) Hit(_ context.Context, key string, max int, window, block time.Duration) (LimitResult, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &memoryEntry{count: 1, resetAt: now.Add(window)}
		m.entries[key] = e
		return LimitResult{OK: true, Remaining: max - 1, ResetAt: e.resetAt}, nil
	}

	e.count++
	if e.count <= max {
		return LimitResult{OK: true, Remaining: max - e.count, ResetAt: e.resetAt}, nil
	}

	// Over the limit: extend the lockout once so retries during the block
	// do not keep pushing the reset time further out.
	if !e.extended {
		e.extended = true
		e.resetAt = now.Add(block)
	}
	return LimitResult{OK: false, Remaining: 0, ResetAt: e.resetAt, Blocked: true}, nil
}

// Reset implements LimiterStore
func (m *MemoryStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// StartSweep removes expired entries on an interval until ctx is done.
func (m *MemoryStore) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now()
				m.mu.Lock()
				for key, e := range m.entries {
					if now.After(e.resetAt) {
						delete(m.entries, key)
					}
				}
				m.mu.Unlock()
			}
		}
	}()
}

// LoginLimiter throttles login attempts per client IP: a small burst inside
// a short window, then an escalated lockout once the burst is exhausted. A
// successful login clears the counter.
type LoginLimiter struct {
	store  LimiterStore
	max    int
	window time.Duration
	block  time.Duration
	logger *observability.Logger
}

// NewLoginLimiter creates a LoginLimiter over the given store
func NewLoginLimiter(store LimiterStore, max int, window, block time.Duration, logger *observability.Logger) *LoginLimiter {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &LoginLimiter{store: store, max: max, window: window, block: block, logger: logger}
}

const loginKeyPrefix = "login:"

// Allow records a login attempt from ip. Store failures fail open so an
// unavailable backend never locks everyone out.
func (l *LoginLimiter) Allow(ctx context.Context, ip string) LimitResult {
	res, err := l.store.Hit(ctx, loginKeyPrefix+ip, l.max, l.window, l.block)
	if err != nil {
		l.logger.WithError(err).WithField("ip", ip).Warn("rate limit store unavailable, allowing request")
		return LimitResult{OK: true, Remaining: l.max - 1, ResetAt: time.Now().Add(l.window)}
	}
	return res
}

// Reset clears the attempt counter for ip after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, ip string) {
	if err := l.store.Reset(ctx, loginKeyPrefix+ip); err != nil {
		l.logger.WithError(err).WithField("ip", ip).Warn("failed to reset rate limit counter")
	}
}
