// Package embedding computes versioned node embeddings from the
// current graph snapshot. Embedding runs are batch jobs, one exclusive
// run per rebuild cycle; each run publishes atomically under a
// monotonically increasing version, and readers only ever see the last
// complete version.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/types"
)

var (
	// ErrCompute marks an embedding computation failure. Callers
	// degrade to lexical-only search; the previously published version
	// stays in place.
	ErrCompute = errors.New("embedding computation failed")

	// ErrNoVersion is returned when no embedding version has been
	// published yet.
	ErrNoVersion = errors.New("no published embedding version")
)

// Snapshot is the consistent graph view a trainer computes from. The
// trainer must never mutate graph topology.
type Snapshot struct {
	Nodes     []*types.Node
	Neighbors map[string][]string
}

// Trainer computes one embedding per node from a graph snapshot.
type Trainer interface {
	Train(ctx context.Context, snapshot *Snapshot) (map[string][]float32, error)
}

// Engine owns the embedding lifecycle: snapshot, train, publish.
type Engine struct {
	driver  driver.GraphDriver
	trainer Trainer
	store   VersionStore
	logger  *slog.Logger

	// mu makes the embedding job exclusive per process.
	mu sync.Mutex
}

// NewEngine creates an embedding engine.
func NewEngine(d driver.GraphDriver, trainer Trainer, store VersionStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		driver:  d,
		trainer: trainer,
		store:   store,
		logger:  logger.With("component", "embedding"),
	}
}

// Rebuild reads a consistent graph snapshot, trains embeddings for
// every node, and publishes them as the next version. The previous
// version stays published until the new one is complete.
func (e *Engine) Rebuild(ctx context.Context) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	snapshot, err := e.snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("graph snapshot: %w", err)
	}
	if len(snapshot.Nodes) == 0 {
		return 0, fmt.Errorf("%w: empty graph", ErrCompute)
	}

	vectors, err := e.trainer.Train(ctx, snapshot)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCompute, err)
	}
	if len(vectors) == 0 {
		return 0, fmt.Errorf("%w: trainer produced no vectors", ErrCompute)
	}

	version := int64(1)
	if current, err := e.store.Current(ctx); err == nil {
		version = current + 1
	} else if !errors.Is(err, ErrNoVersion) {
		return 0, fmt.Errorf("read current version: %w", err)
	}

	if err := e.store.Publish(ctx, version, vectors); err != nil {
		return 0, fmt.Errorf("publish version %d: %w", version, err)
	}

	e.logger.Info("embedding version published",
		"version", version,
		"nodes", len(vectors),
		"elapsed", time.Since(start))
	return version, nil
}

// Current returns the latest published vectors and their version.
func (e *Engine) Current(ctx context.Context) (map[string][]float32, int64, error) {
	version, err := e.store.Current(ctx)
	if err != nil {
		return nil, 0, err
	}
	vectors, err := e.store.Vectors(ctx, version)
	if err != nil {
		return nil, 0, err
	}
	return vectors, version, nil
}

func (e *Engine) snapshot(ctx context.Context) (*Snapshot, error) {
	nodes, err := e.driver.AllNodes(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := e.driver.AllEdges(ctx)
	if err != nil {
		return nil, err
	}

	neighbors := make(map[string][]string)
	for _, edge := range edges {
		neighbors[edge.SourceID] = append(neighbors[edge.SourceID], edge.TargetID)
		neighbors[edge.TargetID] = append(neighbors[edge.TargetID], edge.SourceID)
	}
	return &Snapshot{Nodes: nodes, Neighbors: neighbors}, nil
}
