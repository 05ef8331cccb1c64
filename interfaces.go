package metalink

import (
	"context"

	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/search"
	"github.com/soundprediction/metalink/pkg/types"
)

// This file defines focused interfaces; the main Metalink interface
// is composed from them. Consumers should depend on the smallest
// interface that meets their needs.

// Rebuilder runs the extract, link, build, embed pipeline.
type Rebuilder interface {
	// Rebuild runs the full pipeline for the given portal scopes and
	// reports per-scope record counts. Per-record failures never abort
	// a scope; a scope fails only when the portal stays unreachable.
	Rebuild(ctx context.Context, scopes []string) (*types.RebuildReport, error)
}

// Querier provides the read-only query surface over the graph and the
// published embeddings. Queries never block on an in-progress rebuild.
type Querier interface {
	// Search answers a free-text query with ranked nodes, blending
	// lexical and embedding scores. Degraded results carry a flag.
	Search(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error)

	// Similar answers a seed-entity query; the seed never appears in
	// its own results.
	Similar(ctx context.Context, seedID string, config *types.SearchConfig) (*types.SearchResults, error)

	// Compare scores the relatedness of two nodes by weighted overlap
	// of their neighborhoods.
	Compare(ctx context.Context, idA, idB string) (*search.Relatedness, error)

	// Autocomplete completes a label prefix against the graph's node
	// labels.
	Autocomplete(ctx context.Context, prefix string, limit int) ([]search.Completion, error)

	// GetNode retrieves a node by canonical identifier.
	GetNode(ctx context.Context, nodeID string) (*types.Node, error)

	// Neighbors retrieves a node's immediate neighbors.
	Neighbors(ctx context.Context, nodeID string) ([]types.Neighbor, error)

	// Stats retrieves node/edge counts by type.
	Stats(ctx context.Context) (*driver.GraphStats, error)

	// EmbeddingAvailable reports whether embedding-based scoring is
	// currently possible, surfaced to callers as a capability flag.
	EmbeddingAvailable(ctx context.Context) bool
}

// Metalink is the main interface for building and querying the
// metadata knowledge graph.
type Metalink interface {
	Rebuilder
	Querier

	// CreateIndices creates store indices and uniqueness constraints.
	CreateIndices(ctx context.Context) error

	// Close releases all resources.
	Close(ctx context.Context) error
}
