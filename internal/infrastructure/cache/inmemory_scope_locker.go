package cache

import (
	"context"
	"sync"
)

// InMemoryScopeLocker serializes critical sections within a single process.
// Suitable for single-instance deployments and testing.
// WARNING: lock state is not shared across process instances; in a
// distributed deployment two instances could enter the same scope at once.
type InMemoryScopeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewInMemoryScopeLocker creates a new in-process scope locker
func NewInMemoryScopeLocker() *InMemoryScopeLocker {
	return &InMemoryScopeLocker{
		locks: make(map[string]*sync.Mutex),
	}
}

// WithLock runs fn while holding the scope's mutex. Scope mutexes are
// created lazily and kept for the process lifetime; the set of scopes is
// small and bounded (category x month).
func (l *InMemoryScopeLocker) WithLock(ctx context.Context, scope string, fn func() error) error {
	l.mu.Lock()
	m, ok := l.locks[scope]
	if !ok {
		m = &sync.Mutex{}
		l.locks[scope] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}
