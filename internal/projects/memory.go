package projects

import (
	"context"
	"sort"
	"sync"

	"github.com/unified-feedback/unified/backend/internal/form"
)

// MemoryRepository is the in-process Repository used without MongoDB and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*form.Project
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*form.Project)}
}

func (m *MemoryRepository) Insert(_ context.Context, p *form.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[p.ID] = p.Clone()
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*form.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.store[id]; ok {
		return p.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]*form.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*form.Project{}
	for _, p := range m.store {
		if p.OwnerID == ownerID {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryRepository) Replace(_ context.Context, p *form.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[p.ID]; !ok {
		return ErrNotFound
	}
	m.store[p.ID] = p.Clone()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
