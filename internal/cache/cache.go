// Package cache holds small in-process caches. Ledgers are never cached;
// only facts that cannot change once observed, such as a user being
// registered or an event having been exported.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans a set of caches.
type Manager struct {
	caches []Cleaner
	done   chan struct{}
}

func NewManager(caches ...Cleaner) *Manager {
	return &Manager{caches: caches, done: make(chan struct{})}
}

// Register adds a cache to the cleanup loop. Call it before StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup runs the cleanup loop until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n := m.CleanNow(); n > 0 {
					slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// CleanNow cleans every registered cache once.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Wait blocks until the cleanup loop started by StartCleanup has exited.
func (m *Manager) Wait() {
	<-m.done
}
