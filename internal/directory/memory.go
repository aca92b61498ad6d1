package directory

import (
	"context"
	"sync"
)

// Memory implements Lookup using an in-memory map.
// Intended for demos and testing.
type Memory struct {
	mu    sync.RWMutex
	users map[string]UserRecord
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]UserRecord)}
}

// Put stores a user record.
func (m *Memory) Put(u UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// Delete removes a user record.
func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *Memory) BatchGet(_ context.Context, ids []string) (map[string]UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make(map[string]UserRecord, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			users[id] = u
		}
	}
	return users, nil
}
