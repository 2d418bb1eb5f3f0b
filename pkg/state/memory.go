package state

import (
	"context"
	"sync"

	"github.com/ajitpratap0/tap-postmark/pkg/connector/core"
)

// MemoryStore keeps bookmarks for the lifetime of the process. It backs
// dry runs and tests.
type MemoryStore struct {
	mu    sync.Mutex
	st    *core.State
	saves int
}

// NewMemoryStore starts from initial, or an empty state when nil.
func NewMemoryStore(initial *core.State) *MemoryStore {
	return &MemoryStore{st: initial.Clone()}
}

// Load returns a copy of the stored state.
func (m *MemoryStore) Load(context.Context) (*core.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Clone(), nil
}

// Save stores a copy of st.
func (m *MemoryStore) Save(_ context.Context, st *core.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st.Clone()
	m.saves++
	return nil
}

// Saves counts successful saves.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
