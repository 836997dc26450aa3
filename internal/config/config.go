// Package config provides configuration loading and structs for the Kaimono server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kaimono/internal/ranking"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                  `yaml:"debug"`
	Server    ServerConfig          `yaml:"server"`
	Storage   StorageConfig         `yaml:"storage"`
	Redis     RedisConfig           `yaml:"redis"`
	Embedding EmbeddingConfig       `yaml:"embedding"`
	Vector    VectorConfig          `yaml:"vector"`
	Search    SearchConfig          `yaml:"search"`
	Ranking   ranking.RankingConfig `yaml:"ranking"`
	Ingest    IngestConfig          `yaml:"ingest"`
	Watch     WatchConfig           `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// RateLimit is the sustained requests per second allowed per server; 0 disables limiting.
	RateLimit    float64 `yaml:"rate_limit"`
	RateBurst    int     `yaml:"rate_burst"`
	MaxBodyBytes int64   `yaml:"max_body_bytes"`
}

// StorageConfig holds paths for the catalog database and the local vector snapshot.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	MemoryIndexPath string `yaml:"memory_index_path"`
}

// RedisConfig enables the catalog read-through cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"pool_size"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// EmbeddingConfig selects and configures the embedding service.
type EmbeddingConfig struct {
	// Provider is "http", "onnx" or "mock".
	Provider    string        `yaml:"provider"`
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	ModelPath   string        `yaml:"model_path"`
	Dimensions  int           `yaml:"dimensions"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	CacheSize   int           `yaml:"cache_size"`
	TextWeight  float64       `yaml:"text_weight"`
	ImageWeight float64       `yaml:"image_weight"`
}

// VectorConfig selects and configures the vector index.
type VectorConfig struct {
	// Type is "qdrant" or "memory".
	Type    string        `yaml:"type"`
	Timeout time.Duration `yaml:"timeout"`
	Qdrant  QdrantConfig  `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// SearchConfig holds request defaults and retrieval settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// MinScore is the vector-score threshold applied at the index when a query sets none.
	MinScore float64 `yaml:"min_score"`
	// Overfetch multiplies the limit for every index call.
	Overfetch int `yaml:"overfetch"`
	// RelaxFactor multiplies the threshold of the unfiltered fallback query.
	RelaxFactor float64 `yaml:"relax_factor"`
}

// IngestConfig holds indexing settings.
type IngestConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	ImageFetchTimeout time.Duration `yaml:"image_fetch_timeout"`
	MaxImageBytes     int64         `yaml:"max_image_bytes"`
	ReindexBatchSize  int           `yaml:"reindex_batch_size"`
}

// WatchConfig holds drop-directory watch settings.
type WatchConfig struct {
	Directories []string      `yaml:"directories"`
	Extensions  []string      `yaml:"extensions"`
	Recursive   *bool         `yaml:"recursive"`
	Debounce    time.Duration `yaml:"debounce"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.MemoryIndexPath = expandPath(cfg.Storage.MemoryIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate checks enumerated settings and weights.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "http", "onnx", "mock":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.Vector.Type {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("unknown vector index type %q", c.Vector.Type)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.TextWeight < 0 || c.Embedding.ImageWeight < 0 {
		return fmt.Errorf("embedding weights cannot be negative")
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return fmt.Errorf("search min_score must be within [0, 1], got %v", c.Search.MinScore)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. ":memory:" is kept as is.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
