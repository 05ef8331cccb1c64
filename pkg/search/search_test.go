package search

import (
	"context"
	"testing"

	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/embedding"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedVectors struct {
	vectors map[string][]float32
	version int64
}

func (f *fixedVectors) Current(context.Context) (map[string][]float32, int64, error) {
	if f == nil || f.version == 0 {
		return nil, 0, embedding.ErrNoVersion
	}
	return f.vectors, f.version, nil
}

type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) EmbedSingle(_ context.Context, text string) ([]float32, error) {
	return f.vectors[text], nil
}

func seedDriver(t *testing.T) *driver.MemoryDriver {
	t.Helper()
	d := driver.NewMemoryDriver()
	ctx := context.Background()
	nodes := []*types.Node{
		{ID: "C001", Type: types.ConceptNodeType, Name: "Diabetes Mellitus", RawTexts: []string{"diabetes"}},
		{ID: "C002", Type: types.ConceptNodeType, Name: "Neurofibromatosis"},
		{ID: "ds-1", Type: types.DatasetNodeType, Name: "Diabetes Cohort"},
		{ID: "syn100", Type: types.ProjectNodeType, Name: "NF Study"},
	}
	for _, n := range nodes {
		require.NoError(t, d.UpsertNode(ctx, n))
	}
	return d
}

func TestSearchDegradedExactLabelTopRank(t *testing.T) {
	t.Parallel()

	svc := NewService(seedDriver(t), nil, nil, nil)
	results, err := svc.Search(context.Background(), "Diabetes Mellitus", nil)
	require.NoError(t, err)

	assert.True(t, results.Degraded)
	assert.Zero(t, results.EmbeddingVersion)
	require.NotEmpty(t, results.Results)
	assert.Equal(t, "C001", results.Results[0].Node.ID, "exact label must rank first in lexical-only mode")
	assert.Equal(t, 1.0, results.Results[0].Score)
}

func TestSearchNoMatchesIsEmptyNotError(t *testing.T) {
	t.Parallel()

	svc := NewService(seedDriver(t), nil, nil, nil)
	results, err := svc.Search(context.Background(), "zebrafish locomotion", nil)
	require.NoError(t, err)
	assert.Empty(t, results.Results)
}

func TestSearchMinScoreFilters(t *testing.T) {
	t.Parallel()

	svc := NewService(seedDriver(t), nil, nil, nil)
	results, err := svc.Search(context.Background(), "diabetes", &types.SearchConfig{MinScore: 0.99})
	require.NoError(t, err)
	for _, r := range results.Results {
		assert.GreaterOrEqual(t, r.Score, 0.99)
	}
}

func TestSearchNodeTypeFilter(t *testing.T) {
	t.Parallel()

	svc := NewService(seedDriver(t), nil, nil, nil)
	results, err := svc.Search(context.Background(), "diabetes", &types.SearchConfig{
		NodeTypes: []types.NodeType{types.DatasetNodeType},
	})
	require.NoError(t, err)
	require.NotEmpty(t, results.Results)
	for _, r := range results.Results {
		assert.Equal(t, types.DatasetNodeType, r.Node.Type)
	}
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	t.Parallel()

	d := driver.NewMemoryDriver()
	ctx := context.Background()
	for _, id := range []string{"b-node", "a-node"} {
		require.NoError(t, d.UpsertNode(ctx, &types.Node{
			ID: id, Type: types.ConceptNodeType, Name: "Glioma",
		}))
	}

	svc := NewService(d, nil, nil, nil)
	first, err := svc.Search(ctx, "Glioma", nil)
	require.NoError(t, err)
	second, err := svc.Search(ctx, "Glioma", nil)
	require.NoError(t, err)

	require.Len(t, first.Results, 2)
	assert.Equal(t, "a-node", first.Results[0].Node.ID, "equal scores order by canonical id")
	assert.Equal(t, first.Results, second.Results)
}

func TestSearchHybridUsesEmbeddings(t *testing.T) {
	t.Parallel()

	vectors := &fixedVectors{
		version: 4,
		vectors: map[string][]float32{
			"C001":   {1, 0},
			"C002":   {0.95, 0.05},
			"ds-1":   {0, 1},
			"syn100": {0, 1},
		},
	}
	embedderFake := &fixedEmbedder{vectors: map[string][]float32{
		"metabolic disease": {1, 0},
	}}

	svc := NewService(seedDriver(t), vectors, embedderFake, nil)
	results, err := svc.Search(context.Background(), "metabolic disease", nil)
	require.NoError(t, err)

	assert.False(t, results.Degraded)
	assert.Equal(t, int64(4), results.EmbeddingVersion)
	require.NotEmpty(t, results.Results)
	assert.Equal(t, "C001", results.Results[0].Node.ID, "embedding proximity must drive ranking without lexical overlap")
}

func TestSimilarExcludesSeed(t *testing.T) {
	t.Parallel()

	vectors := &fixedVectors{
		version: 1,
		vectors: map[string][]float32{
			"C001":   {1, 0},
			"C002":   {0.9, 0.1},
			"ds-1":   {0.8, 0.2},
			"syn100": {0, 1},
		},
	}
	svc := NewService(seedDriver(t), vectors, nil, nil)

	results, err := svc.Similar(context.Background(), "C001", nil)
	require.NoError(t, err)
	assert.False(t, results.Degraded)
	require.NotEmpty(t, results.Results)
	for _, r := range results.Results {
		assert.NotEqual(t, "C001", r.Node.ID, "seed must never appear in its own results")
	}
}

func TestSimilarUnknownSeed(t *testing.T) {
	t.Parallel()

	svc := NewService(seedDriver(t), nil, nil, nil)
	_, err := svc.Similar(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, driver.ErrNodeNotFound)
}

func TestSimilarDegradedLexicalFallback(t *testing.T) {
	t.Parallel()

	svc := NewService(seedDriver(t), nil, nil, nil)
	results, err := svc.Similar(context.Background(), "ds-1", nil)
	require.NoError(t, err)

	assert.True(t, results.Degraded)
	require.NotEmpty(t, results.Results)
	assert.Equal(t, "C001", results.Results[0].Node.ID, "shared token with the seed name ranks first")
}

func TestEmbeddingAvailable(t *testing.T) {
	t.Parallel()

	d := seedDriver(t)
	assert.False(t, NewService(d, nil, nil, nil).EmbeddingAvailable(context.Background()))

	vectors := &fixedVectors{version: 1, vectors: map[string][]float32{"C001": {1}}}
	assert.True(t, NewService(d, vectors, nil, nil).EmbeddingAvailable(context.Background()))
}
