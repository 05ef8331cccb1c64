package driver

import (
	"context"
	"errors"
	"testing"

	"github.com/soundprediction/metalink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDriverUpsertNodeIdempotent(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()
	ctx := context.Background()

	node := &types.Node{
		ID:         "syn1",
		Type:       types.DatasetNodeType,
		Name:       "dataset one",
		Attributes: map[string]any{"dataType": "genomics"},
		RawTexts:   []string{"dataset one"},
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, d.UpsertNode(ctx, node))
	}

	nodes, err := d.AllNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "dataset one", nodes[0].Name)
	assert.Equal(t, []string{"dataset one"}, nodes[0].RawTexts)
}

func TestMemoryDriverUpsertNodeMerges(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()
	ctx := context.Background()

	require.NoError(t, d.UpsertNode(ctx, &types.Node{
		ID: "syn1", Name: "old", Attributes: map[string]any{"a": "1", "b": "2"},
	}))
	require.NoError(t, d.UpsertNode(ctx, &types.Node{
		ID: "syn1", Name: "new", Attributes: map[string]any{"b": "3"},
	}))

	got, err := d.GetNode(ctx, "syn1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, "1", got.Attributes["a"])
	assert.Equal(t, "3", got.Attributes["b"])
}

func TestMemoryDriverUpsertEdgeNoDuplicates(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()
	ctx := context.Background()

	require.NoError(t, d.UpsertNode(ctx, &types.Node{ID: "syn1"}))
	require.NoError(t, d.UpsertNode(ctx, &types.Node{ID: "C001"}))

	edge := &types.Edge{
		SourceID: "syn1", TargetID: "C001",
		Type: types.LinksToEdgeType, Provenance: types.StageLinker, Confidence: 0.9,
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, d.UpsertEdge(ctx, edge))
	}

	edges, err := d.AllEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.NotEmpty(t, edges[0].UUID)

	first := edges[0].UUID
	require.NoError(t, d.UpsertEdge(ctx, edge))
	edges, err = d.AllEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, edges[0].UUID, "re-assertion must keep the original UUID")
}

func TestMemoryDriverWithTxRollsBack(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()
	ctx := context.Background()

	boom := errors.New("boom")
	err := d.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.UpsertNode(ctx, &types.Node{ID: "syn1"}); err != nil {
			return err
		}
		if err := tx.UpsertEdge(ctx, &types.Edge{SourceID: "syn1", TargetID: "syn2", Type: types.ParentOfEdgeType}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stats, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.NodeCount, "failed transaction must commit nothing")
	assert.Zero(t, stats.EdgeCount)
}

func TestMemoryDriverWithTxCancelled(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()

	ctx, cancel := context.WithCancel(context.Background())
	err := d.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.UpsertNode(ctx, &types.Node{ID: "syn1"}); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	stats, serr := d.Stats(context.Background())
	require.NoError(t, serr)
	assert.Zero(t, stats.NodeCount, "cancelled record must commit nothing")
}

func TestMemoryDriverNeighbors(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()
	ctx := context.Background()

	require.NoError(t, d.UpsertNode(ctx, &types.Node{ID: "syn1", Type: types.ProjectNodeType}))
	require.NoError(t, d.UpsertNode(ctx, &types.Node{ID: "C001", Type: types.ConceptNodeType}))
	require.NoError(t, d.UpsertNode(ctx, &types.Node{ID: "syn1:Wiki", Type: types.WikiNodeType}))
	require.NoError(t, d.UpsertEdge(ctx, &types.Edge{SourceID: "syn1", TargetID: "C001", Type: types.LinksToEdgeType}))
	require.NoError(t, d.UpsertEdge(ctx, &types.Edge{SourceID: "syn1", TargetID: "syn1:Wiki", Type: types.HasWikiEdgeType}))

	neighbors, err := d.Neighbors(ctx, "syn1")
	require.NoError(t, err)
	require.Len(t, neighbors, 2)

	// Reverse direction is visible too.
	neighbors, err = d.Neighbors(ctx, "C001")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "syn1", neighbors[0].Node.ID)
	assert.Equal(t, types.LinksToEdgeType, neighbors[0].EdgeType)
}

func TestMemoryDriverGetNodeNotFound(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()

	_, err := d.GetNode(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestMemoryDriverSnapshotIsolation(t *testing.T) {
	t.Parallel()
	d := NewMemoryDriver()
	ctx := context.Background()

	require.NoError(t, d.UpsertNode(ctx, &types.Node{ID: "syn1", Name: "original"}))
	nodes, err := d.AllNodes(ctx)
	require.NoError(t, err)

	nodes[0].Name = "mutated"
	got, err := d.GetNode(ctx, "syn1")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Name, "snapshots must not alias store state")
}
