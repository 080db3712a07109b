// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Index backends.
const (
	BackendMemory = "memory"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the cocktails service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
	NATS      NATSConfig      `yaml:"nats"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	CORSOrigin      string        `yaml:"cors_origin"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       float64       `yaml:"rate_limit"` // tool calls per second, 0 = unlimited
	RateBurst       int           `yaml:"rate_burst"`
}

// CatalogConfig locates the dataset.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// OllamaConfig holds model server settings.
type OllamaConfig struct {
	URL        string  `yaml:"url"`
	EmbedModel string  `yaml:"embed_model"`
	ChatModel  string  `yaml:"chat_model"`
	RateLimit  float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst      int     `yaml:"burst"`
}

// IndexConfig selects and tunes the retrieval index.
type IndexConfig struct {
	Backend          string `yaml:"backend"` // memory or qdrant
	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     int    `yaml:"chunk_overlap"`
	Workers          int    `yaml:"workers"`
}

// RetrievalConfig tunes query-time retrieval.
type RetrievalConfig struct {
	TopK          int           `yaml:"top_k"`
	Temperature   float64       `yaml:"temperature"`
	SearchTimeout time.Duration `yaml:"search_timeout"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
	MaxAttempts   int           `yaml:"max_attempts"`
}

// Neo4jConfig enables the ingredient graph when URL is set.
type Neo4jConfig struct {
	URL  string `yaml:"url"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

// NATSConfig enables the tool responder when URL is set.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	Queue         string `yaml:"queue"`
	EventsSubject string `yaml:"events_subject"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			CORSOrigin:      "*",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateBurst:       20,
		},
		Catalog: CatalogConfig{Path: "data/cocktail_dataset.json"},
		Ollama: OllamaConfig{
			URL:        "http://localhost:11434",
			EmbedModel: "nomic-embed-text",
			ChatModel:  "llama3.2",
			Burst:      1,
		},
		Index: IndexConfig{
			Backend:          BackendMemory,
			QdrantURL:        "localhost:6334",
			QdrantCollection: "cocktails",
			ChunkSize:        1024,
			ChunkOverlap:     200,
			Workers:          4,
		},
		Retrieval: RetrievalConfig{
			TopK:          5,
			Temperature:   0.2,
			SearchTimeout: 5 * time.Second,
			CallTimeout:   60 * time.Second,
			MaxAttempts:   3,
		},
		NATS: NATSConfig{
			SubjectPrefix: "cocktails.tools",
			Queue:         "cocktails",
			EventsSubject: "cocktails.events.indexed",
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Index.Backend != BackendMemory && c.Index.Backend != BackendQdrant {
		return fmt.Errorf("invalid index backend: %q", c.Index.Backend)
	}
	if c.Catalog.Path == "" {
		return errors.New("catalog path is required")
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Index.ChunkSize < 1 || c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("invalid chunking: size %d overlap %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server.Port = envOr("PORT", cfg.Server.Port)
	cfg.Server.CORSOrigin = envOr("CORS_ORIGIN", cfg.Server.CORSOrigin)
	cfg.Catalog.Path = envOr("CATALOG_PATH", cfg.Catalog.Path)
	cfg.Ollama.URL = envOr("OLLAMA_URL", cfg.Ollama.URL)
	cfg.Ollama.EmbedModel = envOr("EMBED_MODEL", cfg.Ollama.EmbedModel)
	cfg.Ollama.ChatModel = envOr("CHAT_MODEL", cfg.Ollama.ChatModel)
	cfg.Index.Backend = envOr("INDEX_BACKEND", cfg.Index.Backend)
	cfg.Index.QdrantURL = envOr("QDRANT_URL", cfg.Index.QdrantURL)
	cfg.Index.QdrantCollection = envOr("QDRANT_COLLECTION", cfg.Index.QdrantCollection)
	cfg.Neo4j.URL = envOr("NEO4J_URL", cfg.Neo4j.URL)
	cfg.Neo4j.User = envOr("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Pass = envOr("NEO4J_PASS", cfg.Neo4j.Pass)
	cfg.NATS.URL = envOr("NATS_URL", cfg.NATS.URL)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.Retrieval.TopK = envInt("TOP_K", cfg.Retrieval.TopK)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
