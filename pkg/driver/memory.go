package driver

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/metalink/pkg/types"
)

// MemoryDriver is an in-process GraphDriver used for tests and
// embedded runs. A single RWMutex provides the single-writer-per-key
// discipline the pipeline relies on.
type MemoryDriver struct {
	mu    sync.RWMutex
	nodes map[string]*types.Node
	edges map[string]*types.Edge

	now func() time.Time
}

// NewMemoryDriver creates an empty in-memory graph store.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		nodes: make(map[string]*types.Node),
		edges: make(map[string]*types.Edge),
		now:   time.Now,
	}
}

// UpsertNode creates or merge-updates a node under the store lock.
func (m *MemoryDriver) UpsertNode(ctx context.Context, node *types.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertNodeLocked(node)
	return nil
}

func (m *MemoryDriver) upsertNodeLocked(node *types.Node) {
	if existing, ok := m.nodes[node.ID]; ok {
		incoming := node.Clone()
		if incoming.UpdatedAt.IsZero() {
			incoming.UpdatedAt = m.now()
		}
		existing.Merge(incoming)
		return
	}
	stored := node.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	m.nodes[stored.ID] = stored
}

// UpsertEdge creates or re-asserts an edge under the store lock.
func (m *MemoryDriver) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertEdgeLocked(edge)
	return nil
}

func (m *MemoryDriver) upsertEdgeLocked(edge *types.Edge) {
	key := edge.Key()
	if existing, ok := m.edges[key]; ok {
		incoming := edge.Clone()
		if incoming.UpdatedAt.IsZero() {
			incoming.UpdatedAt = m.now()
		}
		existing.Merge(incoming)
		return
	}
	stored := edge.Clone()
	if stored.UUID == "" {
		stored.UUID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	m.edges[key] = stored
}

// memoryTx stages writes so a failed transaction commits nothing.
type memoryTx struct {
	nodes []*types.Node
	edges []*types.Edge
}

func (t *memoryTx) UpsertNode(ctx context.Context, node *types.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}
	t.nodes = append(t.nodes, node.Clone())
	return nil
}

func (t *memoryTx) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	if err := edge.Validate(); err != nil {
		return err
	}
	t.edges = append(t.edges, edge.Clone())
	return nil
}

// WithTx stages fn's writes and applies them atomically under the
// store lock. Cancellation or an error from fn discards everything.
func (m *MemoryDriver) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memoryTx{}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range tx.nodes {
		m.upsertNodeLocked(n)
	}
	for _, e := range tx.edges {
		m.upsertEdgeLocked(e)
	}
	return nil
}

// GetNode retrieves a node by canonical identifier.
func (m *MemoryDriver) GetNode(ctx context.Context, nodeID string) (*types.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	node, ok := m.nodes[nodeID]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node.Clone(), nil
}

// GetNodes retrieves multiple nodes, skipping missing identifiers.
func (m *MemoryDriver) GetNodes(ctx context.Context, nodeIDs []string) ([]*types.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Node, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		if node, ok := m.nodes[id]; ok {
			out = append(out, node.Clone())
		}
	}
	return out, nil
}

// NodeEdges returns every edge touching the node, ordered by key.
func (m *MemoryDriver) NodeEdges(ctx context.Context, nodeID string) ([]*types.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Edge
	for _, e := range m.edges {
		if e.SourceID == nodeID || e.TargetID == nodeID {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// Neighbors returns the immediate neighbors of a node.
func (m *MemoryDriver) Neighbors(ctx context.Context, nodeID string) ([]types.Neighbor, error) {
	edges, err := m.NodeEdges(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.Neighbor
	for _, e := range edges {
		otherID := e.TargetID
		if otherID == nodeID {
			otherID = e.SourceID
		}
		if other, ok := m.nodes[otherID]; ok {
			out = append(out, types.Neighbor{Node: other.Clone(), EdgeType: e.Type})
		}
	}
	return out, nil
}

// AllNodes returns a snapshot of every node ordered by identifier.
func (m *MemoryDriver) AllNodes(ctx context.Context) ([]*types.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// AllEdges returns a snapshot of every edge ordered by identity key.
func (m *MemoryDriver) AllEdges(ctx context.Context) ([]*types.Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Edge, 0, len(m.edges))
	for _, e := range m.edges {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// CreateIndices is a no-op for the in-memory store.
func (m *MemoryDriver) CreateIndices(ctx context.Context) error { return nil }

// Stats retrieves node/edge counts by type.
func (m *MemoryDriver) Stats(ctx context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{
		NodeCount:   int64(len(m.nodes)),
		EdgeCount:   int64(len(m.edges)),
		NodesByType: make(map[string]int64),
		EdgesByType: make(map[string]int64),
		LastUpdated: m.now(),
	}
	for _, n := range m.nodes {
		stats.NodesByType[string(n.Type)]++
	}
	for _, e := range m.edges {
		stats.EdgesByType[string(e.Type)]++
	}
	return stats, nil
}

// Provider returns the provider tag for this driver.
func (m *MemoryDriver) Provider() GraphProvider { return GraphProviderMemory }

// Close releases the store.
func (m *MemoryDriver) Close(ctx context.Context) error { return nil }
