package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Error("boom")
	assert.True(t, strings.HasPrefix(buf.String(), colorRed))
	buf.Reset()

	log.Warn("careful")
	assert.True(t, strings.HasPrefix(buf.String(), colorYellow))
	buf.Reset()

	log.Info("nothing special")
	assert.False(t, strings.HasPrefix(buf.String(), colorGreen))
	buf.Reset()

	log.Info("Published embedding version", "version", 2)
	assert.True(t, strings.HasPrefix(buf.String(), colorGreen))
}

func TestAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewColorHandler(&buf, nil))

	log.With("scope", "nf").WithGroup("portal").Info("fetched", "records", 7)
	line := buf.String()
	assert.Contains(t, line, "scope=nf")
	assert.Contains(t, line, "portal.records=7")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	h := NewColorHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})

	require.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, h.Enabled(context.Background(), slog.LevelWarn))

	log := slog.New(h)
	log.Info("dropped")
	assert.Empty(t, buf.String())
}
