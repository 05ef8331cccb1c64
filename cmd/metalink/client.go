package metalink

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/soundprediction/metalink"
	"github.com/soundprediction/metalink/pkg/config"
	"github.com/soundprediction/metalink/pkg/driver"
	"github.com/soundprediction/metalink/pkg/embedder"
	"github.com/soundprediction/metalink/pkg/embedding"
	"github.com/soundprediction/metalink/pkg/extract"
	"github.com/soundprediction/metalink/pkg/linker"
	metalinkLogger "github.com/soundprediction/metalink/pkg/logger"
	"github.com/soundprediction/metalink/pkg/portal"
	"github.com/soundprediction/metalink/pkg/telemetry"
	"github.com/soundprediction/metalink/pkg/vocab"
)

// initializeMetalink wires a Metalink client from configuration. It is
// shared by the serve, rebuild and search commands.
func initializeMetalink(cfg *config.Config) (metalink.Metalink, *slog.Logger, error) {
	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	graphDriver, err := buildDriver(cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Portal.BaseURL == "" {
		return nil, nil, fmt.Errorf("portal base URL is required")
	}
	portalClient := portal.NewHTTPPortal(cfg.Portal.BaseURL)

	vocabulary, err := buildVocabulary(cfg)
	if err != nil {
		return nil, nil, err
	}

	embedderClient, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	var store embedding.VersionStore
	if cfg.Embedding.StoreDir != "" {
		store, err = embedding.NewBadgerStore(cfg.Embedding.StoreDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open embedding store: %w", err)
		}
	}

	extractCfg := extract.DefaultConfig()
	if cfg.Extract.RetryAttempts > 0 {
		extractCfg.RetryAttempts = cfg.Extract.RetryAttempts
	}
	if cfg.Extract.BackoffBase != "" {
		backoff, err := time.ParseDuration(cfg.Extract.BackoffBase)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid extract backoff: %w", err)
		}
		extractCfg.BackoffBase = backoff
	}

	client, err := metalink.New(&metalink.Config{
		Driver:          graphDriver,
		Portal:          portalClient,
		Vocabulary:      vocabulary,
		Embedder:        embedderClient,
		EmbeddingStore:  store,
		Extract:         extractCfg,
		Linker:          buildLinkerConfig(cfg),
		SmoothingRounds: cfg.Embedding.SmoothingRounds,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metalink client: %w", err)
	}

	logger.Info("metalink initialized",
		"driver", cfg.Database.Driver,
		"portal", cfg.Portal.BaseURL,
		"embedding_provider", cfg.Embedding.Provider)
	return client, logger, nil
}

// buildLogger assembles the colored handler, optionally chained with
// parquet error telemetry.
func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	var handler slog.Handler = metalinkLogger.NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	})

	if cfg.Telemetry.ParquetPath != "" {
		if err := os.MkdirAll(cfg.Telemetry.ParquetPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
		}
		parquetHandler, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize error tracking: %v\n", err)
		} else {
			handler = parquetHandler
		}
	}
	return slog.New(handler), nil
}

func buildDriver(cfg *config.Config) (driver.GraphDriver, error) {
	switch cfg.Database.Driver {
	case "neo4j":
		d, err := driver.NewNeo4jDriver(
			cfg.Database.URI,
			cfg.Database.Username,
			cfg.Database.Password,
			cfg.Database.Database,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
		}
		return d, nil
	case "memory", "":
		return driver.NewMemoryDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func buildVocabulary(cfg *config.Config) (vocab.Vocabulary, error) {
	if cfg.Vocabulary.BaseURL == "" {
		return nil, fmt.Errorf("vocabulary base URL is required")
	}
	var vocabulary vocab.Vocabulary = vocab.NewHTTPVocabulary(cfg.Vocabulary.BaseURL, nil)

	if cfg.Vocabulary.CacheDir != "" {
		ttl := 24 * time.Hour
		if cfg.Vocabulary.CacheTTL != "" {
			parsed, err := time.ParseDuration(cfg.Vocabulary.CacheTTL)
			if err != nil {
				return nil, fmt.Errorf("invalid vocabulary cache TTL: %w", err)
			}
			ttl = parsed
		}
		cached, err := vocab.NewCache(vocabulary, cfg.Vocabulary.CacheDir, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to open vocabulary cache: %w", err)
		}
		vocabulary = cached
	}
	return vocabulary, nil
}

// buildEmbedder returns nil when embeddings are disabled; the pipeline
// then runs in lexical-only degraded mode.
func buildEmbedder(cfg *config.Config) (embedder.Client, error) {
	if cfg.Embedding.Provider == "none" {
		return nil, nil
	}
	client, err := embedder.New(&embedder.Config{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return client, nil
}

func buildLinkerConfig(cfg *config.Config) linker.Config {
	linkerCfg := linker.DefaultConfig()
	if cfg.Linker.FuzzyThreshold > 0 {
		linkerCfg.FuzzyThreshold = cfg.Linker.FuzzyThreshold
	}
	if cfg.Linker.AcceptanceThreshold > 0 {
		linkerCfg.AcceptanceThreshold = cfg.Linker.AcceptanceThreshold
	}
	if cfg.Linker.TieEpsilon > 0 {
		linkerCfg.TieEpsilon = cfg.Linker.TieEpsilon
	}
	if len(cfg.Linker.VocabularyPriority) > 0 {
		linkerCfg.VocabularyPriority = cfg.Linker.VocabularyPriority
	}
	if len(cfg.Linker.Fields) > 0 {
		linkerCfg.Fields = cfg.Linker.Fields
	}
	return linkerCfg
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
