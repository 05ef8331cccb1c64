package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeImpls(t *testing.T) map[string]VersionStore {
	t.Helper()
	badgerStore, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { badgerStore.Close() })
	return map[string]VersionStore{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestVersionStoreEmpty(t *testing.T) {
	t.Parallel()

	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Current(context.Background())
			assert.ErrorIs(t, err, ErrNoVersion)
		})
	}
}

func TestVersionStorePublishAndRead(t *testing.T) {
	t.Parallel()

	vectors := map[string][]float32{
		"ds-1": {0.1, 0.2},
		"C001": {0.3, 0.4},
	}
	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Publish(ctx, 1, vectors))

			version, err := store.Current(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), version)

			got, err := store.Vectors(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, vectors, got)
		})
	}
}

func TestVersionStoreSupersede(t *testing.T) {
	t.Parallel()

	for name, store := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Publish(ctx, 1, map[string][]float32{"a": {1}}))
			require.NoError(t, store.Publish(ctx, 2, map[string][]float32{"a": {2}, "b": {3}}))

			version, err := store.Current(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), version)

			got, err := store.Vectors(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.Equal(t, []float32{2}, got["a"])

			// The superseded version stays readable until retired.
			old, err := store.Vectors(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, []float32{1}, old["a"])
		})
	}
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Publish(ctx, 3, map[string][]float32{"ds-1": {1, 2}}))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	vectors, err := reopened.Vectors(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vectors["ds-1"])
}
