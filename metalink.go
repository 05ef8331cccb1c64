package metalink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/soundprediction/metalink/pkg/builder"
	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/embedder"
	"github.com/soundprediction/metalink/pkg/embedding"
	"github.com/soundprediction/metalink/pkg/extract"
	"github.com/soundprediction/metalink/pkg/linker"
	"github.com/soundprediction/metalink/pkg/portal"
	"github.com/soundprediction/metalink/pkg/search"
	"github.com/soundprediction/metalink/pkg/types"
	"github.com/soundprediction/metalink/pkg/vocab"
)

// Config assembles the collaborators and tunables for a Client. Driver,
// Portal, and Vocabulary are required; Embedder and EmbeddingStore are
// optional and their absence leaves the client permanently degraded to
// lexical-only search.
type Config struct {
	Driver     driver.GraphDriver
	Portal     portal.Portal
	Vocabulary vocab.Vocabulary

	// Embedder powers embedding-space link matching, node embeddings,
	// and free-text query embedding.
	Embedder embedder.Client

	// EmbeddingStore persists published embedding versions. Defaults
	// to an in-memory store.
	EmbeddingStore embedding.VersionStore

	Extract extract.Config
	Linker  linker.Config

	// SmoothingRounds configures the default embedding trainer.
	SmoothingRounds int

	// Parallelism caps how many scopes rebuild concurrently.
	Parallelism int

	Logger *slog.Logger
}

// Client is the main implementation of the Metalink interface.
type Client struct {
	driver    driver.GraphDriver
	embedder  embedder.Client
	extractor *extract.Extractor
	linker    *linker.Linker
	builder   *builder.Builder
	engine    *embedding.Engine
	searcher  *search.Service
	config    *Config
	logger    *slog.Logger
}

// New creates a Client from the given configuration.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Driver == nil {
		return nil, errors.New("graph driver is required")
	}
	if cfg.Portal == nil {
		return nil, errors.New("portal is required")
	}
	if cfg.Vocabulary == nil {
		return nil, errors.New("vocabulary is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Extract.RetryAttempts == 0 {
		cfg.Extract = extract.DefaultConfig()
	}
	if cfg.Linker.FuzzyThreshold == 0 {
		cfg.Linker = linker.DefaultConfig()
	}
	if cfg.EmbeddingStore == nil {
		cfg.EmbeddingStore = embedding.NewMemoryStore()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}

	var linkEmbedder linker.TextEmbedder
	var queryEmbedder search.TextEmbedder
	var engine *embedding.Engine
	if cfg.Embedder != nil {
		linkEmbedder = cfg.Embedder
		queryEmbedder = cfg.Embedder
		trainer := embedding.NewLabelTrainer(cfg.Embedder, cfg.SmoothingRounds)
		engine = embedding.NewEngine(cfg.Driver, trainer, cfg.EmbeddingStore, logger)
	}

	var vectors search.VectorSource
	if engine != nil {
		vectors = engine
	}

	return &Client{
		driver:    cfg.Driver,
		embedder:  cfg.Embedder,
		extractor: extract.New(cfg.Portal, cfg.Extract, logger),
		linker:    linker.New(cfg.Vocabulary, cfg.Linker, linkEmbedder, logger),
		builder:   builder.New(cfg.Driver, logger),
		engine:    engine,
		searcher:  search.NewService(cfg.Driver, vectors, queryEmbedder, logger),
		config:    cfg,
		logger:    logger,
	}, nil
}

// Search answers a free-text query.
func (c *Client) Search(ctx context.Context, query string, config *types.SearchConfig) (*types.SearchResults, error) {
	return c.searcher.Search(ctx, query, config)
}

// Similar answers a seed-entity query.
func (c *Client) Similar(ctx context.Context, seedID string, config *types.SearchConfig) (*types.SearchResults, error) {
	return c.searcher.Similar(ctx, seedID, config)
}

// Compare scores the relatedness of two nodes.
func (c *Client) Compare(ctx context.Context, idA, idB string) (*search.Relatedness, error) {
	return c.searcher.Compare(ctx, idA, idB)
}

// Autocomplete completes a label prefix.
func (c *Client) Autocomplete(ctx context.Context, prefix string, limit int) ([]search.Completion, error) {
	return c.searcher.Autocomplete(ctx, prefix, limit)
}

// GetNode retrieves a node by canonical identifier.
func (c *Client) GetNode(ctx context.Context, nodeID string) (*types.Node, error) {
	return c.driver.GetNode(ctx, nodeID)
}

// Neighbors retrieves a node's immediate neighbors.
func (c *Client) Neighbors(ctx context.Context, nodeID string) ([]types.Neighbor, error) {
	return c.driver.Neighbors(ctx, nodeID)
}

// Stats retrieves node/edge counts by type.
func (c *Client) Stats(ctx context.Context) (*driver.GraphStats, error) {
	return c.driver.Stats(ctx)
}

// EmbeddingAvailable reports whether embedding-based scoring is
// currently possible.
func (c *Client) EmbeddingAvailable(ctx context.Context) bool {
	return c.searcher.EmbeddingAvailable(ctx)
}

// CreateIndices creates store indices and uniqueness constraints.
func (c *Client) CreateIndices(ctx context.Context) error {
	return c.driver.CreateIndices(ctx)
}

// Close releases all resources.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	if c.embedder != nil {
		if err := c.embedder.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.config.EmbeddingStore != nil {
		if err := c.config.EmbeddingStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.driver.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
