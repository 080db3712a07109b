package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Catalog.Path != "data/cocktail_dataset.json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.Temperature != 0.2 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Index.ChunkSize != 1024 || cfg.Index.ChunkOverlap != 200 || cfg.Index.Backend != BackendMemory {
		t.Errorf("index = %+v", cfg.Index)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %s", cfg.Server.Port)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: "9090"
  read_timeout: 3s
catalog:
  path: /data/c.json
index:
  backend: qdrant
  qdrant_collection: drinks
retrieval:
  top_k: 8
log_level: debug
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Index.Backend != BackendQdrant || cfg.Index.QdrantCollection != "drinks" || cfg.Index.QdrantURL != "localhost:6334" {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Retrieval.TopK != 8 || cfg.Catalog.Path != "/data/c.json" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [unclosed"), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("CATALOG_PATH", "/tmp/x.json")
	t.Setenv("INDEX_BACKEND", "qdrant")
	t.Setenv("NEO4J_URL", "neo4j://db:7687")
	t.Setenv("NATS_URL", "nats://bus:4222")
	t.Setenv("TOP_K", "3")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "7000" || cfg.Catalog.Path != "/tmp/x.json" || cfg.Index.Backend != BackendQdrant {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Neo4j.URL != "neo4j://db:7687" || cfg.NATS.URL != "nats://bus:4222" {
		t.Errorf("optional backends = %+v %+v", cfg.Neo4j, cfg.NATS)
	}
	if cfg.Retrieval.TopK != 3 || cfg.LogLevel != "warn" {
		t.Errorf("retrieval/log = %+v %s", cfg.Retrieval, cfg.LogLevel)
	}
}

func TestLoad_InvalidTopKEnvIgnored(t *testing.T) {
	t.Setenv("TOP_K", "many")
	cfg, err := Load("")
	if err != nil || cfg.Retrieval.TopK != 5 {
		t.Errorf("cfg=%+v err=%v", cfg, err)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":  func(c *Config) { c.Index.Backend = "faiss" },
		"catalog":  func(c *Config) { c.Catalog.Path = "" },
		"top_k":    func(c *Config) { c.Retrieval.TopK = 0 },
		"overlap":  func(c *Config) { c.Index.ChunkOverlap = c.Index.ChunkSize },
		"loglevel": func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, " warn ": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
}
