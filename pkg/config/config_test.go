package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.8, cfg.Linker.FuzzyThreshold)
	assert.Equal(t, 0.5, cfg.Linker.AcceptanceThreshold)
	assert.Equal(t, 3, cfg.Extract.RetryAttempts)
	assert.Equal(t, 0.5, cfg.Search.LexicalWeight)
	assert.Equal(t, 0.5, cfg.Search.EmbeddingWeight)
	assert.Equal(t, "local", cfg.Embedding.Provider)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("NEO4J_USER", "svc")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PORTAL_BASE_URL", "https://portal.example.org")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "neo4j", cfg.Database.Driver)
	assert.Equal(t, "bolt://graph:7687", cfg.Database.URI)
	assert.Equal(t, "svc", cfg.Database.Username)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://portal.example.org", cfg.Portal.BaseURL)
}
