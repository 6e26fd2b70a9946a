package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a map for the lifetime of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

// Insert stores s unless a session with that code is still valid at s.CreatedAt.
func (m *MemoryStore) Insert(_ context.Context, s Session) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[s.Code]; ok && !existing.ExpiredAt(s.CreatedAt) {
		return false, nil
	}
	m.sessions[s.Code] = s
	return true, nil
}

// Get returns the session for code if it is valid at now.
func (m *MemoryStore) Get(_ context.Context, code string, now time.Time) (Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[code]
	m.mu.RUnlock()

	if !ok || s.ExpiredAt(now) {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// DeleteExpired drops every session expired at now.
func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, s := range m.sessions {
		if s.ExpiredAt(now) {
			delete(m.sessions, code)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored records, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
