package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/catalog.db"
watch:
  directories: ["./dev/sample"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "catalog.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	wantWatch := filepath.Join(dir, "dev", "sample")
	if cfg.Watch.Directories[0] != wantWatch {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], wantWatch)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("default limit: got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.Overfetch != 2 || cfg.Search.RelaxFactor != 0.8 {
		t.Errorf("retrieval defaults: got overfetch=%d relax=%v", cfg.Search.Overfetch, cfg.Search.RelaxFactor)
	}
	if cfg.Embedding.TextWeight != 0.7 || cfg.Embedding.ImageWeight != 0.3 {
		t.Errorf("fusion weights: got %v/%v", cfg.Embedding.TextWeight, cfg.Embedding.ImageWeight)
	}
	if cfg.Vector.Type != "qdrant" || cfg.Vector.Qdrant.Port != 6334 {
		t.Errorf("vector defaults: got %+v", cfg.Vector)
	}
	if cfg.Ranking.MinRelevanceScore != 0.7 || len(cfg.Ranking.Policies) == 0 {
		t.Errorf("ranking defaults not applied: %+v", cfg.Ranking)
	}
	if len(cfg.Watch.Extensions) != 3 || cfg.Watch.Extensions[0] != ".json" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_durationsAndRanking(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
embedding:
  provider: mock
  timeout: 3s
vector:
  type: memory
storage:
  database_path: ":memory:"
ranking:
  vector_weight: 0.6
  policies:
    - name: lamp
      keywords: [lamp, lamps]
      min_semantic: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Embedding.Timeout != 3*time.Second {
		t.Errorf("embedding timeout = %v, want 3s", cfg.Embedding.Timeout)
	}
	if cfg.Storage.DatabasePath != ":memory:" {
		t.Errorf("database_path = %q, want :memory:", cfg.Storage.DatabasePath)
	}
	if cfg.Ranking.VectorWeight != 0.6 || cfg.Ranking.SemanticWeight != 0.3 {
		t.Errorf("ranking weights = %v/%v", cfg.Ranking.VectorWeight, cfg.Ranking.SemanticWeight)
	}
	if len(cfg.Ranking.Policies) != 1 || cfg.Ranking.Policies[0].Name != "lamp" {
		t.Errorf("policies = %+v", cfg.Ranking.Policies)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown provider", "embedding:\n  provider: word2vec\n"},
		{"unknown index", "vector:\n  type: faiss\n"},
		{"min score out of range", "search:\n  min_score: 1.5\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/drop"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("true_returns_true", func(t *testing.T) {
		v := true
		w := &WatchConfig{Recursive: &v}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
