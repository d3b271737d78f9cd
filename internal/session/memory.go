package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory map.
// Sessions are copied on the way in and out so callers never share state
// with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
}

// NewMemoryStore creates an in-memory store. Sessions idle for longer than
// idleTimeout are removed by Sweep; zero disables expiry.
func NewMemoryStore(idleTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
	}
}

// Get implements Store
func (m *MemoryStore) Get(ctx context.Context, key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

// Put implements Store
func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions == nil {
		return ErrStoreClosed
	}
	m.sessions[s.Key] = s.Clone()
	return nil
}

// Delete implements Store
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, key)
	return nil
}

// Close implements Store
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = nil
	return nil
}

// Len returns the number of stored sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle since before now-idleTimeout and returns how
// many were removed
func (m *MemoryStore) Sweep(now time.Time) int {
	if m.idleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, s := range m.sessions {
		if s.IdleSince(now) > m.idleTimeout {
			delete(m.sessions, key)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired sessions every interval until ctx is done
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.idleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				slog.Debug("session.janitor: expired idle sessions", "removed", n)
			}
		}
	}
}
