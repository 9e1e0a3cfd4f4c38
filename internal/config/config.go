// Package config provides configuration loading and structs for the Satei server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the source corpus directory and the persisted
// knowledge-base file pair. EmbeddingsPath and ChunksPath always travel
// together; they are saved and loaded as a unit.
type StorageConfig struct {
	CorpusDir      string `yaml:"corpus_dir"`
	EmbeddingsPath string `yaml:"embeddings_path"`
	ChunksPath     string `yaml:"chunks_path"`
	UploadDir      string `yaml:"upload_dir"`
}

// LLMConfig holds settings for the embedding and generation services.
// BaseURL points at any OpenAI-compatible endpoint. The API key is read from
// the environment variable named by APIKeyEnv, never from the config file.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	// EmbeddingModel embeds documents at build time; QueryEmbeddingModel
	// embeds queries at search time. Asymmetric embedding models differ by
	// role, so the two are configured separately (they may be identical).
	EmbeddingModel      string `yaml:"embedding_model"`
	QueryEmbeddingModel string `yaml:"query_embedding_model"`
	GenerationModel     string `yaml:"generation_model"`
	Dimensions          int    `yaml:"dimensions"`
}

// RetrievalConfig holds chunking and retrieval settings.
type RetrievalConfig struct {
	TopK             int   `yaml:"top_k"`
	ChunkSize        int   `yaml:"chunk_size"`
	ChunkOverlap     int   `yaml:"chunk_overlap"`
	ExpansionEnabled *bool `yaml:"expansion_enabled"`
}

// ExpansionEnabledOrDefault returns whether query expansion is enabled;
// defaults to true when unset.
func (r *RetrievalConfig) ExpansionEnabledOrDefault() bool {
	if r.ExpansionEnabled != nil {
		return *r.ExpansionEnabled
	}
	return true
}

// WatchConfig holds corpus directory watch settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMS int  `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, applies
// defaults, and validates. Returns an error if the file cannot be read or
// parsed, or if validation fails.
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

	configDir := filepath.Dir(path)
	cfg.Storage.CorpusDir = expandPath(cfg.Storage.CorpusDir, configDir)
	cfg.Storage.EmbeddingsPath = expandPath(cfg.Storage.EmbeddingsPath, configDir)
	cfg.Storage.ChunksPath = expandPath(cfg.Storage.ChunksPath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would make the pipeline degenerate.
// These are startup-fatal configuration errors, not request errors.
func Validate(cfg *Config) error {
	if cfg.LLM.Dimensions <= 0 {
		return fmt.Errorf("config: llm.dimensions must be positive, got %d", cfg.LLM.Dimensions)
	}
	if cfg.Retrieval.ChunkSize <= 0 {
		return fmt.Errorf("config: retrieval.chunk_size must be positive, got %d", cfg.Retrieval.ChunkSize)
	}
	if cfg.Retrieval.ChunkOverlap < 0 || cfg.Retrieval.ChunkOverlap >= cfg.Retrieval.ChunkSize {
		return fmt.Errorf("config: retrieval.chunk_overlap must be in [0, chunk_size), got overlap=%d size=%d",
			cfg.Retrieval.ChunkOverlap, cfg.Retrieval.ChunkSize)
	}
	if cfg.Retrieval.TopK <= 0 {
		return fmt.Errorf("config: retrieval.top_k must be positive, got %d", cfg.Retrieval.TopK)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
