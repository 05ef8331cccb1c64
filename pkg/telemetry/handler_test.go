package telemetry

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func parquetFiles(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	require.NoError(t, err)
	return files
}

func TestOnlyErrorsAreBuffered(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(discardHandler(), dir)
	require.NoError(t, err)
	log := slog.New(h)

	log.Info("routine message")
	log.Warn("warning message")
	require.NoError(t, h.Flush())
	assert.Empty(t, parquetFiles(t, dir), "non-error records must not be archived")

	log.Error("something broke", "scope", "nf")
	require.NoError(t, h.Flush())
	assert.Len(t, parquetFiles(t, dir), 1)
}

func TestFlushWritesReadableRecords(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(discardHandler(), dir)
	require.NoError(t, err)
	log := slog.New(h)

	log.Error("portal unreachable", "scope", "nf", "attempt", int64(3))
	log.Error("embedding compute failed")
	require.NoError(t, h.Flush())

	files := parquetFiles(t, dir)
	require.Len(t, files, 1)

	rows, err := parquet.ReadFile[LogRecord](files[0])
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "portal unreachable", rows[0].Message)
	assert.Equal(t, "ERROR", rows[0].Level)
	assert.NotEmpty(t, rows[0].ID)
	assert.Contains(t, rows[0].Attributes, `"scope":"nf"`)
	assert.Equal(t, "embedding compute failed", rows[1].Message)
}

func TestBatchSizeTriggersFlush(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHandler(discardHandler(), dir)
	require.NoError(t, err)
	h.batchSize = 2
	log := slog.New(h)

	log.Error("first")
	assert.Empty(t, parquetFiles(t, dir))
	log.Error("second")
	assert.Len(t, parquetFiles(t, dir), 1)
}

func TestNewParquetHandlerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "telemetry")
	_, err := NewParquetHandler(discardHandler(), dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
