// Package config loads application configuration from file and
// environment variables via viper.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration (graph store)
	Database DatabaseConfig `mapstructure:"database"`

	// Portal configuration (metadata source)
	Portal PortalConfig `mapstructure:"portal"`

	// Vocabulary configuration (external knowledge base)
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`

	// Extract configuration
	Extract ExtractConfig `mapstructure:"extract"`

	// Linker configuration
	Linker LinkerConfig `mapstructure:"linker"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Search configuration
	Search SearchConfig `mapstructure:"search"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds graph store configuration.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// PortalConfig holds metadata portal client configuration.
type PortalConfig struct {
	BaseURL string   `mapstructure:"base_url"`
	Scopes  []string `mapstructure:"scopes"`
}

// VocabularyConfig holds knowledge-base client configuration.
type VocabularyConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	CacheDir string `mapstructure:"cache_dir"`
	CacheTTL string `mapstructure:"cache_ttl"` // duration string
}

// ExtractConfig holds extractor retry settings.
type ExtractConfig struct {
	RetryAttempts int    `mapstructure:"retry_attempts"`
	BackoffBase   string `mapstructure:"backoff_base"` // duration string
}

// LinkerConfig holds entity-linking thresholds.
type LinkerConfig struct {
	FuzzyThreshold      float64  `mapstructure:"fuzzy_threshold"`
	AcceptanceThreshold float64  `mapstructure:"acceptance_threshold"`
	TieEpsilon          float64  `mapstructure:"tie_epsilon"`
	VocabularyPriority  []string `mapstructure:"vocabulary_priority"`
	Fields              []string `mapstructure:"fields"`
}

// EmbeddingConfig holds embedding engine configuration.
type EmbeddingConfig struct {
	Provider        string `mapstructure:"provider"` // local, openai
	Model           string `mapstructure:"model"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url"`
	Dimension       int    `mapstructure:"dimension"`
	StoreDir        string `mapstructure:"store_dir"`
	SmoothingRounds int    `mapstructure:"smoothing_rounds"`
}

// SearchConfig holds similarity scoring configuration.
type SearchConfig struct {
	LexicalWeight   float64 `mapstructure:"lexical_weight"`
	EmbeddingWeight float64 `mapstructure:"embedding_weight"`
	MinScore        float64 `mapstructure:"min_score"`
	DefaultLimit    int     `mapstructure:"default_limit"`
}

// TelemetryConfig holds telemetry configuration.
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)
	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.driver", "memory")
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "")

	viper.SetDefault("extract.retry_attempts", 3)
	viper.SetDefault("extract.backoff_base", "500ms")

	viper.SetDefault("linker.fuzzy_threshold", 0.8)
	viper.SetDefault("linker.acceptance_threshold", 0.5)
	viper.SetDefault("linker.tie_epsilon", 0.01)

	viper.SetDefault("embedding.provider", "local")
	viper.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	viper.SetDefault("embedding.dimension", 384)
	viper.SetDefault("embedding.smoothing_rounds", 2)

	viper.SetDefault("search.lexical_weight", 0.5)
	viper.SetDefault("search.embedding_weight", 0.5)
	viper.SetDefault("search.min_score", 0.0)
	viper.SetDefault("search.default_limit", 10)

	viper.SetDefault("vocabulary.cache_ttl", "24h")

	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.metalink/telemetry", home))
		viper.SetDefault("vocabulary.cache_dir", fmt.Sprintf("%s/.metalink/vocab", home))
		viper.SetDefault("embedding.store_dir", fmt.Sprintf("%s/.metalink/embeddings", home))
	}
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
		config.Database.Driver = "neo4j"
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}

	if base := os.Getenv("PORTAL_BASE_URL"); base != "" {
		config.Portal.BaseURL = base
	}
	if base := os.Getenv("VOCABULARY_BASE_URL"); base != "" {
		config.Vocabulary.BaseURL = base
	}

	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Embedding.APIKey = apiKey
	}

	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
