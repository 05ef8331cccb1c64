package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.applyDefaults()
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)

	cfg = &Config{Model: "text-embedding-3-small", BatchSize: 10}
	cfg.applyDefaults()
	assert.Equal(t, "text-embedding-3-small", cfg.Model)
	assert.Equal(t, 10, cfg.BatchSize)
}

func TestNewUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New(&Config{Provider: "cohere"})
	assert.Error(t, err)
}

func TestNewOpenAIClient(t *testing.T) {
	t.Parallel()

	client, err := NewOpenAIClient(&Config{
		Provider:   "openai",
		Model:      "text-embedding-3-small",
		APIKey:     "test-key",
		BaseURL:    "http://localhost:9999/v1",
		Dimensions: 1536,
	})
	require.NoError(t, err)
	assert.Equal(t, 1536, client.Dimensions())
	assert.NoError(t, client.Close())
}
