package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/soundprediction/metalink/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder maps text deterministically into a small vector space.
type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 8)
		for j, r := range text {
			v[(j+int(r))%8] += float32(r%13) + 1
		}
		out[i] = v
	}
	return out, nil
}

func (hashEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vs, err := hashEmbedder{}.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (hashEmbedder) Dimensions() int { return 8 }
func (hashEmbedder) Close() error    { return nil }

type failingTrainer struct{}

func (failingTrainer) Train(context.Context, *Snapshot) (map[string][]float32, error) {
	return nil, errors.New("did not converge")
}

func seedGraph(t *testing.T) *driver.MemoryDriver {
	t.Helper()
	d := driver.NewMemoryDriver()
	ctx := context.Background()
	nodes := []*types.Node{
		{ID: "ds-1", Type: types.DatasetNodeType, Name: "Cohort A"},
		{ID: "C001", Type: types.ConceptNodeType, Name: "Diabetes Mellitus"},
		{ID: "syn100", Type: types.ProjectNodeType, Name: "NF Study"},
	}
	for _, n := range nodes {
		require.NoError(t, d.UpsertNode(ctx, n))
	}
	require.NoError(t, d.UpsertEdge(ctx, &types.Edge{
		SourceID: "ds-1", TargetID: "C001", Type: types.LinksToEdgeType,
		Provenance: types.StageLinker,
	}))
	return d
}

func TestEngineRebuildPublishesMonotonicVersions(t *testing.T) {
	t.Parallel()

	d := seedGraph(t)
	engine := NewEngine(d, NewLabelTrainer(hashEmbedder{}, 1), NewMemoryStore(), nil)
	ctx := context.Background()

	v1, err := engine.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	v2, err := engine.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)

	vectors, version, err := engine.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Len(t, vectors, 3, "every node gets a vector")
}

func TestEngineRebuildDeterministic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := seedGraph(t)

	run := func() map[string][]float32 {
		engine := NewEngine(d, NewLabelTrainer(hashEmbedder{}, 2), NewMemoryStore(), nil)
		_, err := engine.Rebuild(ctx)
		require.NoError(t, err)
		vectors, _, err := engine.Current(ctx)
		require.NoError(t, err)
		return vectors
	}
	assert.Equal(t, run(), run(), "identical snapshot must embed identically")
}

func TestEngineRebuildEmptyGraphFails(t *testing.T) {
	t.Parallel()

	engine := NewEngine(driver.NewMemoryDriver(), NewLabelTrainer(hashEmbedder{}, 1), NewMemoryStore(), nil)
	_, err := engine.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrCompute)
}

func TestEngineFailureKeepsPreviousVersion(t *testing.T) {
	t.Parallel()

	d := seedGraph(t)
	store := NewMemoryStore()
	ctx := context.Background()

	good := NewEngine(d, NewLabelTrainer(hashEmbedder{}, 1), store, nil)
	_, err := good.Rebuild(ctx)
	require.NoError(t, err)

	bad := NewEngine(d, failingTrainer{}, store, nil)
	_, err = bad.Rebuild(ctx)
	require.ErrorIs(t, err, ErrCompute)

	_, version, err := bad.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version, "a failed run must leave the published version alone")
}

func TestLabelTrainerSmoothingPullsNeighborsTogether(t *testing.T) {
	t.Parallel()

	snapshot := &Snapshot{
		Nodes: []*types.Node{
			{ID: "a", Name: "alpha entity"},
			{ID: "b", Name: "totally different words"},
		},
		Neighbors: map[string][]string{"a": {"b"}, "b": {"a"}},
	}

	flat := NewLabelTrainer(hashEmbedder{}, 0)
	flat.rounds = 0
	base, err := flat.Train(context.Background(), snapshot)
	require.NoError(t, err)

	smoothed, err := NewLabelTrainer(hashEmbedder{}, 2).Train(context.Background(), snapshot)
	require.NoError(t, err)

	before := utils.CosineSimilarity(base["a"], base["b"])
	after := utils.CosineSimilarity(smoothed["a"], smoothed["b"])
	assert.Greater(t, after, before, "connected nodes must drift together")
}

func TestExportSnapshot(t *testing.T) {
	t.Parallel()

	d := seedGraph(t)
	engine := NewEngine(d, NewLabelTrainer(hashEmbedder{}, 1), NewMemoryStore(), nil)
	ctx := context.Background()
	_, err := engine.Rebuild(ctx)
	require.NoError(t, err)

	path := t.TempDir() + "/embeddings.parquet"
	require.NoError(t, engine.ExportSnapshot(ctx, path))
}
