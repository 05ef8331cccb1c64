package driver

import (
	"context"
	"errors"
	"time"

	"github.com/soundprediction/metalink/pkg/types"
)

// GraphProvider represents the type of graph database provider.
type GraphProvider string

const (
	GraphProviderNeo4j  GraphProvider = "neo4j"
	GraphProviderMemory GraphProvider = "memory"
)

var (
	// ErrNodeNotFound is returned when a node is not found.
	ErrNodeNotFound = errors.New("node not found")
	// ErrWriteConflict is returned when the store could not serialize
	// a write after exhausting its transaction retries.
	ErrWriteConflict = errors.New("graph write conflict")
)

// Tx is the write surface available inside a transactional scope.
// All writes made through a Tx commit atomically or not at all.
type Tx interface {
	// UpsertNode creates or merge-updates a node keyed by its
	// canonical identifier. Attribute merge is last-write-wins per
	// field; raw texts accumulate as a set.
	UpsertNode(ctx context.Context, node *types.Node) error

	// UpsertEdge creates or re-asserts an edge. An edge with equal
	// (source, target, type) is treated as already present and merged,
	// never duplicated.
	UpsertEdge(ctx context.Context, edge *types.Edge) error
}

// GraphDriver defines the graph store boundary. Implementations must
// serialize concurrent upserts to the same canonical identifier
// through their own transaction discipline; callers hold no locks.
type GraphDriver interface {
	Tx

	// WithTx runs fn inside a transactional scope. If fn returns an
	// error nothing it wrote is visible.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// GetNode retrieves a single node by canonical identifier.
	GetNode(ctx context.Context, nodeID string) (*types.Node, error)

	// GetNodes retrieves multiple nodes; missing identifiers are
	// skipped, not errors.
	GetNodes(ctx context.Context, nodeIDs []string) ([]*types.Node, error)

	// NodeEdges retrieves every edge touching a node, in either
	// direction.
	NodeEdges(ctx context.Context, nodeID string) ([]*types.Edge, error)

	// Neighbors retrieves the immediate neighbors of a node with the
	// edge type that reaches each one.
	Neighbors(ctx context.Context, nodeID string) ([]types.Neighbor, error)

	// AllNodes returns a consistent snapshot of every node, ordered
	// by canonical identifier.
	AllNodes(ctx context.Context) ([]*types.Node, error)

	// AllEdges returns a consistent snapshot of every edge, ordered
	// by identity key.
	AllEdges(ctx context.Context) ([]*types.Edge, error)

	// CreateIndices creates store indices and uniqueness constraints.
	CreateIndices(ctx context.Context) error

	// Stats retrieves node/edge counts by type.
	Stats(ctx context.Context) (*GraphStats, error)

	// Provider returns the type of graph database provider.
	Provider() GraphProvider

	// Close releases all resources held by the driver.
	Close(ctx context.Context) error
}

// GraphStats holds statistics about the graph.
type GraphStats struct {
	NodeCount   int64            `json:"node_count"`
	EdgeCount   int64            `json:"edge_count"`
	NodesByType map[string]int64 `json:"nodes_by_type"`
	EdgesByType map[string]int64 `json:"edges_by_type"`
	LastUpdated time.Time        `json:"last_updated"`
}
