package feedback

import (
	"context"
	"sort"
	"sync"

	"github.com/unified-feedback/unified/backend/internal/form"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*form.Feedback
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*form.Feedback)}
}

func clone(f *form.Feedback) *form.Feedback {
	c := *f
	c.Answers = make(form.Answers, len(f.Answers))
	for k, v := range f.Answers {
		c.Answers[k] = v
	}
	return &c
}

func (m *MemoryRepository) Insert(_ context.Context, f *form.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[f.ID] = clone(f)
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*form.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(f), nil
}

func (m *MemoryRepository) ListByProject(_ context.Context, projectID string) ([]*form.Feedback, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*form.Feedback{}
	for _, f := range m.store {
		if f.ProjectID == projectID {
			out = append(out, clone(f))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (m *MemoryRepository) DeleteByProject(_ context.Context, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, f := range m.store {
		if f.ProjectID == projectID {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}
