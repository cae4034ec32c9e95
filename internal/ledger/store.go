package ledger

import (
	"context"
	"sync"

	"ledger/internal/core"
)

// Ports for entry storage.
type (
	// Store keeps entries in insertion order. Stores never remove or
	// modify an entry once appended.
	Store interface {
		Append(ctx context.Context, e core.Entry) error
		List(ctx context.Context) ([]core.Entry, error)
	}

	// Summer is implemented by stores that can total amounts by kind
	// without materialising every entry. Results must be computed on each
	// call.
	Summer interface {
		Sum(ctx context.Context) (core.Totals, error)
	}
)

// MemoryStore is the default Store: a slice owned by the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items []core.Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores the entry after validating it.
func (s *MemoryStore) Append(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return nil
}

// List returns a copy of the entries, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Entry(nil), s.items...), nil
}
