package progress

import (
	"context"
	"sync"
)

// Store persists a Record. Implementations must treat "nothing saved yet" as
// an empty record rather than an error.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// MemoryStore is an in-process Store, used by tests and the "memory" backend.
type MemoryStore struct {
	mu  sync.Mutex
	rec Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rec: NewRecord()}
}

func (m *MemoryStore) Load(ctx context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec.Clone()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = NewRecord()
	return nil
}
