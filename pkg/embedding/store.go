package embedding

import (
	"context"
	"sync"
)

// VersionStore persists embedding versions. Publish is atomic: a
// version becomes current only once every vector is durably written,
// so a concurrent reader sees either the previous complete version or
// the new complete version, never a partial one.
type VersionStore interface {
	// Publish writes a complete vector set under version and makes it
	// current.
	Publish(ctx context.Context, version int64, vectors map[string][]float32) error

	// Current returns the latest published version, or ErrNoVersion.
	Current(ctx context.Context) (int64, error)

	// Vectors returns the vector set published under version.
	Vectors(ctx context.Context, version int64) (map[string][]float32, error)

	// Close releases store resources.
	Close() error
}

// MemoryStore is an in-process VersionStore for tests and embedded
// use.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[int64]map[string][]float32
	current  int64
}

// NewMemoryStore creates an empty in-memory version store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[int64]map[string][]float32)}
}

// Publish stores the vector set and swaps the current pointer.
func (s *MemoryStore) Publish(ctx context.Context, version int64, vectors map[string][]float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	copied := make(map[string][]float32, len(vectors))
	for id, v := range vectors {
		copied[id] = append([]float32(nil), v...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[version] = copied
	if version > s.current {
		s.current = version
	}
	return nil
}

// Current returns the latest published version.
func (s *MemoryStore) Current(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == 0 {
		return 0, ErrNoVersion
	}
	return s.current, nil
}

// Vectors returns the vector set for a version.
func (s *MemoryStore) Vectors(ctx context.Context, version int64) (map[string][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.versions[version]
	if !ok {
		return nil, ErrNoVersion
	}
	out := make(map[string][]float32, len(stored))
	for id, v := range stored {
		out[id] = append([]float32(nil), v...)
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
