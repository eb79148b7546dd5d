package state

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[Key]Session
}

// NewMemoryStore constructs an in-process Store for tests and single-instance deployments.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[Key]Session),
	}
}

func (m *memoryStore) Get(_ context.Context, key Key) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.sessions[key]; ok {
		return s.Clone(), nil
	}
	return Idle(), nil
}

// Set replaces the stored session; concurrent writers for one key race and the last one wins.
func (m *memoryStore) Set(_ context.Context, key Key, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !s.Active() {
		delete(m.sessions, key)
		return nil
	}
	m.sessions[key] = s.Clone()
	return nil
}

func (m *memoryStore) Clear(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, key)
	return nil
}
