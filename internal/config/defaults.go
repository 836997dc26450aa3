package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 20 * time.Second
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 20
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 16 << 20
	}

	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kaimono/data/db/catalog.db"
	}
	if cfg.Storage.MemoryIndexPath == "" {
		cfg.Storage.MemoryIndexPath = "/usr/local/var/kaimono/data/indices/vectors.gob"
	}

	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 10 * time.Minute
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "kaimono:"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "http"
	}
	if cfg.Embedding.Endpoint == "" {
		cfg.Embedding.Endpoint = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "clip"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kaimono/data/models/clip-text.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 512
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 77
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 10 * time.Second
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.TextWeight == 0 && cfg.Embedding.ImageWeight == 0 {
		cfg.Embedding.TextWeight = 0.7
		cfg.Embedding.ImageWeight = 0.3
	}

	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "qdrant"
	}
	if cfg.Vector.Timeout == 0 {
		cfg.Vector.Timeout = 5 * time.Second
	}
	if cfg.Vector.Qdrant.Host == "" {
		cfg.Vector.Qdrant.Host = "localhost"
	}
	if cfg.Vector.Qdrant.Port == 0 {
		cfg.Vector.Qdrant.Port = 6334
	}
	if cfg.Vector.Qdrant.Collection == "" {
		cfg.Vector.Qdrant.Collection = "products"
	}

	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.MinScore == 0 {
		cfg.Search.MinScore = 0.2
	}
	if cfg.Search.Overfetch == 0 {
		cfg.Search.Overfetch = 2
	}
	if cfg.Search.RelaxFactor == 0 {
		cfg.Search.RelaxFactor = 0.8
	}

	cfg.Ranking.ApplyDefaults()

	if cfg.Ingest.Concurrency == 0 {
		cfg.Ingest.Concurrency = 4
	}
	if cfg.Ingest.ImageFetchTimeout == 0 {
		cfg.Ingest.ImageFetchTimeout = 10 * time.Second
	}
	if cfg.Ingest.MaxImageBytes == 0 {
		cfg.Ingest.MaxImageBytes = 10 << 20
	}
	if cfg.Ingest.ReindexBatchSize == 0 {
		cfg.Ingest.ReindexBatchSize = 100
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json", ".csv", ".xlsx"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
