package accounts

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps accounts in a map. It backs the API when no
// MongoDB URI is configured and is used by tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byUID   map[string]*Account
	byEmail map[string]string // email -> uid
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byUID: make(map[string]*Account), byEmail: make(map[string]string)}
}

func (m *MemoryRepository) CreateIfAbsent(_ context.Context, a *Account) (*Account, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byUID[a.UID]; ok {
		c := *existing
		return &c, false, nil
	}
	if _, taken := m.byEmail[a.Email]; taken {
		return nil, false, ErrEmailTaken
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	c := *a
	m.byUID[a.UID] = &c
	m.byEmail[a.Email] = a.UID
	out := c
	return &out, true, nil
}

func (m *MemoryRepository) GetByUID(_ context.Context, uid string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byUID[uid]
	if !ok {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *MemoryRepository) DeleteByUID(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byUID[uid]
	if !ok {
		return ErrNotFound
	}
	delete(m.byEmail, a.Email)
	delete(m.byUID, uid)
	return nil
}
