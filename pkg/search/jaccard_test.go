package search

import (
	"context"
	"testing"

	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compareFixture(t *testing.T) *driver.MemoryDriver {
	t.Helper()
	d := driver.NewMemoryDriver()
	ctx := context.Background()
	for _, id := range []string{"ds-a", "ds-b", "C1", "C2", "C3"} {
		nt := types.ConceptNodeType
		if id == "ds-a" || id == "ds-b" {
			nt = types.DatasetNodeType
		}
		require.NoError(t, d.UpsertNode(ctx, &types.Node{ID: id, Type: nt, Name: id}))
	}
	edges := []*types.Edge{
		{SourceID: "ds-a", TargetID: "C1", Type: types.LinksToEdgeType, Provenance: types.StageLinker},
		{SourceID: "ds-a", TargetID: "C2", Type: types.MentionsEdgeType, Provenance: types.StageLinker},
		{SourceID: "ds-b", TargetID: "C1", Type: types.LinksToEdgeType, Provenance: types.StageLinker},
		{SourceID: "ds-b", TargetID: "C3", Type: types.LinksToEdgeType, Provenance: types.StageLinker},
	}
	for _, e := range edges {
		require.NoError(t, d.UpsertEdge(ctx, e))
	}
	return d
}

func TestCompareWeightedJaccard(t *testing.T) {
	t.Parallel()

	svc := NewService(compareFixture(t), nil, nil, nil)
	got, err := svc.Compare(context.Background(), "ds-a", "ds-b")
	require.NoError(t, err)

	// Shared: C1 at weight 1.0. Union: C1 (1.0) + C2 mention (0.5)
	// + C3 link (1.0) = 2.5.
	assert.InDelta(t, 0.4, got.Score, 1e-9)
	assert.Equal(t, []string{"C1"}, got.Shared)
}

func TestCompareIsSymmetric(t *testing.T) {
	t.Parallel()

	svc := NewService(compareFixture(t), nil, nil, nil)
	ctx := context.Background()

	ab, err := svc.Compare(ctx, "ds-a", "ds-b")
	require.NoError(t, err)
	ba, err := svc.Compare(ctx, "ds-b", "ds-a")
	require.NoError(t, err)
	assert.Equal(t, ab.Score, ba.Score)
	assert.Equal(t, ab.Shared, ba.Shared)
}

func TestCompareNoSharedNeighbors(t *testing.T) {
	t.Parallel()

	svc := NewService(compareFixture(t), nil, nil, nil)
	got, err := svc.Compare(context.Background(), "C2", "C3")
	require.NoError(t, err)
	assert.Zero(t, got.Score)
	assert.Empty(t, got.Shared)
}

func TestCompareUnknownNode(t *testing.T) {
	t.Parallel()

	svc := NewService(compareFixture(t), nil, nil, nil)
	_, err := svc.Compare(context.Background(), "ds-a", "missing")
	assert.ErrorIs(t, err, driver.ErrNodeNotFound)
}
