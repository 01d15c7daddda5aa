// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// RepoConfigFile is the per-repository config file name.
const RepoConfigFile = ".astchunk.yaml"

// Sink names accepted in storage.sinks.
const (
	SinkJSONL  = "jsonl"
	SinkSQLite = "sqlite"
	SinkQdrant = "qdrant"
	SinkKafka  = "kafka"
)

// Config holds global configuration
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ChunkingConfig struct {
	MaxChunkSize int    `yaml:"max_chunk_size" envconfig:"ASTCHUNK_MAX_CHUNK_SIZE"`
	Template     string `yaml:"metadata_template" envconfig:"ASTCHUNK_METADATA_TEMPLATE"`
	Expand       bool   `yaml:"expand" envconfig:"ASTCHUNK_EXPAND"`
}

type EmbeddingConfig struct {
	Enabled           bool   `yaml:"enabled" envconfig:"ASTCHUNK_EMBED"`
	Provider          string `yaml:"provider" envconfig:"ASTCHUNK_EMBED_PROVIDER"` // "voyage"
	Model             string `yaml:"model" envconfig:"ASTCHUNK_EMBED_MODEL"`
	BatchSize         int    `yaml:"batch_size" envconfig:"ASTCHUNK_EMBED_BATCH_SIZE"`
	RequestsPerMinute int    `yaml:"requests_per_minute" envconfig:"ASTCHUNK_EMBED_RPM"`
}

type StorageConfig struct {
	Sinks        []string      `yaml:"sinks" envconfig:"ASTCHUNK_SINKS"`
	JSONLPath    string        `yaml:"jsonl_path" envconfig:"ASTCHUNK_JSONL_PATH"`
	SQLitePath   string        `yaml:"sqlite_path" envconfig:"ASTCHUNK_SQLITE_PATH"`
	QdrantHost   string        `yaml:"qdrant_host" envconfig:"QDRANT_HOST"`
	QdrantPort   int           `yaml:"qdrant_port" envconfig:"QDRANT_PORT"`
	Collection   string        `yaml:"collection" envconfig:"ASTCHUNK_COLLECTION"`
	KafkaBrokers string        `yaml:"kafka_brokers" envconfig:"ASTCHUNK_KAFKA_BROKERS"`
	KafkaTopic   string        `yaml:"kafka_topic" envconfig:"ASTCHUNK_KAFKA_TOPIC"`
	RedisURL     string        `yaml:"redis_url" envconfig:"REDIS_URL"`
	CacheTTL     time.Duration `yaml:"cache_ttl" envconfig:"ASTCHUNK_CACHE_TTL"`
}

type IndexingConfig struct {
	Workers       int  `yaml:"workers" envconfig:"ASTCHUNK_WORKERS"`
	RedactSecrets bool `yaml:"redact_secrets" envconfig:"ASTCHUNK_REDACT_SECRETS"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"ASTCHUNK_LOG_LEVEL"` // error|warn|info|debug
	Format      string `yaml:"format" envconfig:"ASTCHUNK_LOG_FORMAT"`
	MetricsPath string `yaml:"metrics_path" envconfig:"ASTCHUNK_METRICS_PATH"`
}

// RepoConfig holds per-repository configuration
type RepoConfig struct {
	Name          string   `yaml:"name"`
	DefaultBranch string   `yaml:"default_branch"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	// MaxChunkSize overrides the global budget when set.
	MaxChunkSize int `yaml:"max_chunk_size,omitempty"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "astchunk")

	return &Config{
		Chunking: ChunkingConfig{
			MaxChunkSize: 1800,
			Template:     string(chunk.TemplateDefault),
		},
		Embedding: EmbeddingConfig{
			Provider:          "voyage",
			Model:             "voyage-code-3",
			BatchSize:         64,
			RequestsPerMinute: 300,
		},
		Storage: StorageConfig{
			Sinks:      []string{SinkJSONL},
			JSONLPath:  "chunks.jsonl",
			SQLitePath: filepath.Join(dataDir, "chunks.db"),
			QdrantHost: "localhost",
			QdrantPort: 6334,
			Collection: "chunks",
			KafkaTopic: "astchunk.chunks",
			RedisURL:   "redis://localhost:6379",
			CacheTTL:   24 * time.Hour,
		},
		Indexing: IndexingConfig{
			Workers:       4,
			RedactSecrets: true,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			MetricsPath: filepath.Join(dataDir, "metrics.jsonl"),
		},
	}
}

// LoadConfig loads config from file or returns defaults, then applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Chunking.MaxChunkSize < 1 {
		errs = append(errs, "max_chunk_size must be positive")
	}
	if _, err := chunk.ParseTemplate(c.Chunking.Template); err != nil {
		errs = append(errs, fmt.Sprintf("invalid metadata_template: %s (must be one of %s)",
			c.Chunking.Template, strings.Join(chunk.Templates(), ", ")))
	}

	if c.Embedding.Enabled && c.Embedding.Provider != "voyage" {
		errs = append(errs, fmt.Sprintf("invalid embedding provider: %s (must be voyage)", c.Embedding.Provider))
	}
	if c.Embedding.BatchSize < 1 {
		errs = append(errs, "embedding batch_size must be positive")
	}

	validSinks := []string{SinkJSONL, SinkSQLite, SinkQdrant, SinkKafka}
	for _, s := range c.Storage.Sinks {
		if !slices.Contains(validSinks, s) {
			errs = append(errs, fmt.Sprintf("invalid sink: %s (must be jsonl, sqlite, qdrant, or kafka)", s))
		}
	}
	if slices.Contains(c.Storage.Sinks, SinkKafka) {
		if len(c.KafkaBrokers()) == 0 {
			errs = append(errs, "kafka sink requires kafka_brokers")
		}
		if c.Storage.KafkaTopic == "" {
			errs = append(errs, "kafka sink requires kafka_topic")
		}
	}

	if c.Indexing.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// KafkaBrokers splits the comma-separated broker list.
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Storage.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// LoadRepoConfig loads .astchunk.yaml from repo root
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	path := filepath.Join(repoPath, RepoConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		AstChunk RepoConfig `yaml:"astchunk"`
	}

	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}

	if wrapper.AstChunk.Name == "" {
		wrapper.AstChunk.Name = filepath.Base(repoPath)
	}

	return &wrapper.AstChunk, nil
}

// GlobalConfigPath returns the default location of the global config.
func GlobalConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory config
		return ".astchunk-config.yaml"
	}
	return filepath.Join(homeDir, ".config", "astchunk", "config.yaml")
}
