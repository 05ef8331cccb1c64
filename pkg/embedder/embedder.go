package embedder

import (
	"context"
	"errors"
	"fmt"
)

// Default settings applied when the config leaves them zero.
const (
	DefaultModel     = "all-MiniLM-L6-v2"
	DefaultBatchSize = 100
)

var ErrNoEmbeddings = errors.New("no embeddings returned")

// Config holds settings shared by all embedding providers.
type Config struct {
	// Provider selects the backing implementation: "local" (in-process
	// embed-everything runtime) or "openai" (OpenAI-compatible API).
	Provider string `mapstructure:"provider"`

	// Model names the embedding model.
	Model string `mapstructure:"model"`

	// APIKey authenticates against API providers. Ignored for local.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the API endpoint, for OpenAI-compatible
	// servers. Ignored for local.
	BaseURL string `mapstructure:"base_url"`

	// Dimensions is the expected embedding dimensionality.
	Dimensions int `mapstructure:"dimensions"`

	// BatchSize caps how many texts go into a single provider call.
	BatchSize int `mapstructure:"batch_size"`
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Client is the text embedding surface used by the linker and the
// embedding engine.
type Client interface {
	// Embed generates one embedding per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int

	// Close releases provider resources.
	Close() error
}

// New creates a client for the configured provider.
func New(config *Config) (Client, error) {
	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()
	switch config.Provider {
	case "", "local":
		return NewEmbedEverythingClient(config)
	case "openai":
		return NewOpenAIClient(config)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
	}
}
