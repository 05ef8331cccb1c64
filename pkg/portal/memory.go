package portal

import (
	"context"
	"sync"
)

// MemoryPortal serves items from an in-process map. It backs tests and
// offline runs against exported portal dumps.
type MemoryPortal struct {
	mu     sync.RWMutex
	scopes map[string][]Item

	// FailuresBeforeSuccess makes the next N calls fail with
	// ErrSourceUnavailable, exercising caller retry paths.
	FailuresBeforeSuccess int
	calls                 int
}

// NewMemoryPortal creates a portal over the given scope map.
func NewMemoryPortal(scopes map[string][]Item) *MemoryPortal {
	if scopes == nil {
		scopes = make(map[string][]Item)
	}
	return &MemoryPortal{scopes: scopes}
}

// Items returns the raw items for one scope. An unknown scope is an
// empty result, not an error; the portal contract is superset-or-equal
// on re-query, and an empty scope satisfies that trivially.
func (m *MemoryPortal) Items(ctx context.Context, scope string) ([]Item, error) {
	m.mu.Lock()
	m.calls++
	if m.calls <= m.FailuresBeforeSuccess {
		m.mu.Unlock()
		return nil, ErrSourceUnavailable
	}
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.scopes[scope]
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

// Add appends items to a scope.
func (m *MemoryPortal) Add(scope string, items ...Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes[scope] = append(m.scopes[scope], items...)
}

// Calls reports how many Items calls the portal has served.
func (m *MemoryPortal) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}
